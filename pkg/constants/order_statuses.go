package constants

// --- ГЛОБАЛЬНЫЕ СТАТУСЫ ЗАКАЗА (выставляются кассой и курьером) ---
const (
	StatusNew            = "new"
	StatusInProgress     = "in_progress"
	StatusReady          = "ready"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
	StatusClosed         = "closed"
)

// --- ПОД-СТАТУСЫ КУХОННЫХ СТАНЦИЙ (продвигаются каждой станцией независимо) ---
const (
	SubStatusNew        = "new"
	SubStatusInProgress = "in_progress"
	SubStatusReady      = "ready"
	SubStatusDone       = "done"
)

var GlobalStatuses = []string{
	StatusNew,
	StatusInProgress,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusClosed,
}

var SubStatuses = []string{
	SubStatusNew,
	SubStatusInProgress,
	SubStatusReady,
	SubStatusDone,
}

// Под-статусы, при которых заказ ещё виден на экране станции
var KitchenActiveSubStatuses = []string{
	SubStatusNew,
	SubStatusInProgress,
	SubStatusReady,
}

func IsGlobalStatus(code string) bool {
	return contains(GlobalStatuses, code)
}

func IsSubStatus(code string) bool {
	return contains(SubStatuses, code)
}

func IsKitchenActive(code string) bool {
	return contains(KitchenActiveSubStatuses, code)
}

func contains(list []string, code string) bool {
	for _, s := range list {
		if s == code {
			return true
		}
	}
	return false
}

// --- ТИПЫ ЗАКАЗОВ ---
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}
