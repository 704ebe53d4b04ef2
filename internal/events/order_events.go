package events

import (
	"time"

	"github.com/aarondl/null/v8"

	"order-dispatch/internal/entities"
	"order-dispatch/pkg/constants"
)

type Kind string

const (
	KindInsert Kind = "INSERT"
	KindUpdate Kind = "UPDATE"
	KindDelete Kind = "DELETE"
)

func (k Kind) Valid() bool {
	switch k {
	case KindInsert, KindUpdate, KindDelete:
		return true
	}
	return false
}

// OrderSnapshot - часть строки заказа, которая приходит в событии изменения.
type OrderSnapshot struct {
	ID        string      `json:"id"`
	Status    string      `json:"status"`
	StatusA   null.String `json:"status_a"`
	StatusB   null.String `json:"status_b"`
	CourierID null.String `json:"courier_id"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func SnapshotOf(o entities.Order) *OrderSnapshot {
	return &OrderSnapshot{
		ID:        o.ID,
		Status:    o.Status,
		StatusA:   o.StatusA,
		StatusB:   o.StatusB,
		CourierID: o.CourierID,
		UpdatedAt: o.UpdatedAt,
	}
}

// ChangeEvent - изменение строки таблицы заказов.
// Insert несёт только New, Delete только Old, Update оба снимка.
type ChangeEvent struct {
	Kind  Kind           `json:"type"`
	Table string         `json:"table"`
	Old   *OrderSnapshot `json:"old_record,omitempty"`
	New   *OrderSnapshot `json:"record,omitempty"`
}

func Inserted(o entities.Order) ChangeEvent {
	return ChangeEvent{Kind: KindInsert, Table: constants.OrdersTable, New: SnapshotOf(o)}
}

func Updated(before, after entities.Order) ChangeEvent {
	return ChangeEvent{Kind: KindUpdate, Table: constants.OrdersTable, Old: SnapshotOf(before), New: SnapshotOf(after)}
}

func Deleted(o entities.Order) ChangeEvent {
	return ChangeEvent{Kind: KindDelete, Table: constants.OrdersTable, Old: SnapshotOf(o)}
}

// StatusChanged - отличается ли глобальный статус или любой из под-статусов.
// Update без одного из снимков считается изменением.
func (e ChangeEvent) StatusChanged() bool {
	if e.Kind != KindUpdate {
		return false
	}
	if e.Old == nil || e.New == nil {
		return true
	}
	return e.Old.Status != e.New.Status ||
		e.Old.StatusA != e.New.StatusA ||
		e.Old.StatusB != e.New.StatusB
}

// OrderChangedEvent оборачивает ChangeEvent для внутрипроцессной шины.
type OrderChangedEvent struct {
	Change ChangeEvent
}

// Name - реализуем интерфейс eventbus.Event
func (e OrderChangedEvent) Name() string {
	return constants.EventOrderChanged
}
