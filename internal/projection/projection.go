// Package projection превращает сырой список заказов в представление конкретной роли.
package projection

import (
	"order-dispatch/internal/entities"
	"order-dispatch/pkg/constants"
)

// View - производное, не сохраняемое представление для одной роли.
type View struct {
	Visible  []entities.Order `json:"commandes"`
	Mine     []entities.Order `json:"mes_livraisons,omitempty"`
	NewCount int              `json:"new_count"`
}

// Kitchen: заказы с позициями станции и активным под-статусом.
// Смешанный заказ попадает на обе станции целиком; фильтрация позиций - дело экрана.
func Kitchen(commerce constants.Commerce, orders []entities.Order) View {
	view := View{Visible: make([]entities.Order, 0, len(orders))}
	for _, o := range orders {
		status := o.SubStatus(commerce)
		if !constants.IsKitchenActive(status) || !o.HasCommerce(commerce) {
			continue
		}
		view.Visible = append(view.Visible, o)
		if status == constants.SubStatusNew {
			view.NewCount++
		}
	}
	return view
}

// Delivery: Visible - доступные к приёму, Mine - уже принятые этим курьером.
func Delivery(courierID string, orders []entities.Order) View {
	view := View{
		Visible: make([]entities.Order, 0),
		Mine:    make([]entities.Order, 0),
	}
	for _, o := range orders {
		if o.Type != constants.OrderTypeDelivery {
			continue
		}
		switch {
		case !o.IsAssigned() && o.IsReadyForPickup():
			view.Visible = append(view.Visible, o)
		case o.IsAssigned() && o.CourierID.String == courierID && o.Status == constants.StatusOutForDelivery:
			view.Mine = append(view.Mine, o)
		}
	}
	view.NewCount = len(view.Visible)
	return view
}

// Cashier: всё, что ещё не закрыто.
func Cashier(orders []entities.Order) View {
	view := View{Visible: make([]entities.Order, 0, len(orders))}
	for _, o := range orders {
		if o.Status == constants.StatusClosed {
			continue
		}
		view.Visible = append(view.Visible, o)
		if o.Status == constants.StatusNew {
			view.NewCount++
		}
	}
	return view
}
