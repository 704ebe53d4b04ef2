package realtime

import (
	"encoding/json"
	"fmt"

	"order-dispatch/internal/events"
	apperrors "order-dispatch/pkg/errors"
)

// Encode сериализует событие для передачи через брокер.
func Encode(ev events.ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode разбирает событие и проверяет, что набор снимков соответствует типу.
func Decode(body []byte) (events.ChangeEvent, error) {
	var ev events.ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return events.ChangeEvent{}, fmt.Errorf("%w: %v", apperrors.ErrBadRequest, err)
	}
	if !ev.Kind.Valid() {
		return events.ChangeEvent{}, fmt.Errorf("%w: неизвестный тип события %q", apperrors.ErrBadRequest, ev.Kind)
	}
	if ev.Table == "" {
		return events.ChangeEvent{}, fmt.Errorf("%w: не указана таблица", apperrors.ErrBadRequest)
	}
	switch ev.Kind {
	case events.KindInsert:
		ev.Old = nil
		if ev.New == nil {
			return events.ChangeEvent{}, fmt.Errorf("%w: INSERT без record", apperrors.ErrBadRequest)
		}
	case events.KindDelete:
		ev.New = nil
	}
	return ev, nil
}
