package listeners

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"order-dispatch/internal/events"
	"order-dispatch/pkg/constants"
	"order-dispatch/pkg/eventbus"
)

// ===== СТРУКТУРЫ ДЛЯ ГРУППИРОВКИ СОБЫТИЙ =====
type eventGroup struct {
	changes []events.ChangeEvent
	timer   *time.Timer
}

// OrderActivityListener ведёт журнал изменений заказов: события одного заказа,
// пришедшие в пределах окна, сводятся в одну строку лога.
type OrderActivityListener struct {
	window   time.Duration
	logger   *zap.Logger
	groups   map[string]*eventGroup
	groupsMu sync.Mutex

	// emit получает готовую строку журнала; по умолчанию пишет в logger.
	emit func(orderID, summary string)
}

func NewOrderActivityListener(window time.Duration, logger *zap.Logger) *OrderActivityListener {
	l := &OrderActivityListener{
		window: window,
		logger: logger,
		groups: make(map[string]*eventGroup),
	}
	l.emit = func(orderID, summary string) {
		l.logger.Info("Активность по заказу", zap.String("order_id", orderID), zap.String("changes", summary))
	}
	return l
}

// Register подписывает журнал на шину и возвращает функцию отписки.
func (l *OrderActivityListener) Register(bus *eventbus.Bus) func() {
	unsubscribe := bus.Subscribe(constants.EventOrderChanged, l.handleOrderChanged)
	l.logger.Info("OrderActivityListener (с группировкой) подписан на событие", zap.String("event", constants.EventOrderChanged))
	return unsubscribe
}

func (l *OrderActivityListener) handleOrderChanged(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.OrderChangedEvent)
	if !ok {
		return nil
	}
	orderID := changedOrderID(e.Change)
	if orderID == "" {
		return nil
	}

	l.groupsMu.Lock()
	defer l.groupsMu.Unlock()

	group, exists := l.groups[orderID]
	if !exists {
		group = &eventGroup{}
		l.groups[orderID] = group
		group.timer = time.AfterFunc(l.window, func() {
			l.flush(orderID)
		})
	}
	group.changes = append(group.changes, e.Change)
	return nil
}

func (l *OrderActivityListener) flush(orderID string) {
	l.groupsMu.Lock()
	group, exists := l.groups[orderID]
	if !exists {
		l.groupsMu.Unlock()
		return
	}
	delete(l.groups, orderID)
	l.groupsMu.Unlock()

	if summary := summarize(group.changes); summary != "" {
		l.emit(orderID, summary)
	}
}

// Pending - число заказов, чьи события ещё копятся.
func (l *OrderActivityListener) Pending() int {
	l.groupsMu.Lock()
	defer l.groupsMu.Unlock()
	return len(l.groups)
}

func changedOrderID(ev events.ChangeEvent) string {
	if ev.New != nil {
		return ev.New.ID
	}
	if ev.Old != nil {
		return ev.Old.ID
	}
	return ""
}

func summarize(changes []events.ChangeEvent) string {
	var parts []string
	for _, ev := range changes {
		switch ev.Kind {
		case events.KindInsert:
			parts = append(parts, "создан")
		case events.KindDelete:
			parts = append(parts, "удалён")
		case events.KindUpdate:
			if ev.Old == nil || ev.New == nil {
				parts = append(parts, "изменён")
				continue
			}
			parts = appendTransition(parts, "status", null.StringFrom(ev.Old.Status), null.StringFrom(ev.New.Status))
			parts = appendTransition(parts, "status_a", ev.Old.StatusA, ev.New.StatusA)
			parts = appendTransition(parts, "status_b", ev.Old.StatusB, ev.New.StatusB)
			parts = appendTransition(parts, "courier", ev.Old.CourierID, ev.New.CourierID)
		}
	}
	return strings.Join(parts, ", ")
}

func appendTransition(parts []string, field string, from, to null.String) []string {
	if from == to {
		return parts
	}
	return append(parts, fmt.Sprintf("%s %s→%s", field, orDash(from), orDash(to)))
}

func orDash(s null.String) string {
	if !s.Valid {
		return "-"
	}
	return s.String
}
