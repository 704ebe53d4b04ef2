// pkg/constants/constants.go
package constants

//============== COMMERCES ==============

// Commerce - одна из двух независимых линий приготовления.
type Commerce string

const (
	// CommerceA - пиццерия.
	CommerceA Commerce = "A"
	// CommerceB - сэндвич-стойка.
	CommerceB Commerce = "B"
)

func (c Commerce) String() string {
	return string(c)
}

// StatusColumn возвращает колонку под-статуса этой станции в таблице orders.
func (c Commerce) StatusColumn() string {
	switch c {
	case CommerceA:
		return "status_a"
	case CommerceB:
		return "status_b"
	}
	return ""
}

//============== ROLES ==============

// Role определяет, какой дашборд потребляет данные.
type Role string

const (
	RoleCashier  Role = "cashier"
	RoleKitchenA Role = "kitchen_a"
	RoleKitchenB Role = "kitchen_b"
	RoleDelivery Role = "delivery"
)

var Roles = []Role{RoleCashier, RoleKitchenA, RoleKitchenB, RoleDelivery}

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Commerce возвращает станцию для кухонных ролей.
func (r Role) Commerce() (Commerce, bool) {
	switch r {
	case RoleKitchenA:
		return CommerceA, true
	case RoleKitchenB:
		return CommerceB, true
	}
	return "", false
}

//============== REALTIME ==============

const (
	// Таблица, изменения которой слушает realtime-мост.
	OrdersTable = "orders"

	// Имя события в шине событий.
	EventOrderChanged = "order.changed"
)

//============== WEBSOCKET MESSAGE TYPES ==============

const (
	MessageTypeSnapshot = "snapshot"
	MessageTypeAlert    = "alert"
	MessageTypeToast    = "toast"
)
