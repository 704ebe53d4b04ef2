package entities

import (
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"order-dispatch/pkg/constants"
)

type Client struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Phone   null.String `json:"phone"`
	Address null.String `json:"address"`
}

type Product struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Category string             `json:"category"`
	Commerce constants.Commerce `json:"commerce"`
	IsExtra  bool               `json:"is_extra"`
	Price    decimal.Decimal    `json:"price"`
}

// LineItem неизменяем после создания заказа.
// Дополнения, добавленные вручную, уже включены в UnitPrice и описаны в Extras.
type LineItem struct {
	ID        string          `json:"id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Extras    null.String     `json:"extras"`
	Product   Product         `json:"product"`
}

type Order struct {
	ID        string              `json:"id"`
	Number    string              `json:"number"`
	Type      constants.OrderType `json:"type"`
	Status    string              `json:"status"`
	StatusA   null.String         `json:"status_a"`
	StatusB   null.String         `json:"status_b"`
	Total     decimal.Decimal     `json:"total"`
	Notes     null.String         `json:"notes"`
	CourierID null.String         `json:"courier_id"`
	Client    *Client             `json:"client,omitempty"`
	Items     []LineItem          `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SubStatus возвращает под-статус станции; отсутствующий считается "new".
func (o Order) SubStatus(c constants.Commerce) string {
	var s null.String
	switch c {
	case constants.CommerceA:
		s = o.StatusA
	case constants.CommerceB:
		s = o.StatusB
	default:
		return constants.SubStatusNew
	}
	if !s.Valid || s.String == "" {
		return constants.SubStatusNew
	}
	return s.String
}

// HasCommerce - есть ли в заказе хотя бы одна позиция станции.
func (o Order) HasCommerce(c constants.Commerce) bool {
	for _, item := range o.Items {
		if item.Product.Commerce == c {
			return true
		}
	}
	return false
}

// IsMixed - заказ содержит позиции обеих станций.
func (o Order) IsMixed() bool {
	return o.HasCommerce(constants.CommerceA) && o.HasCommerce(constants.CommerceB)
}

// ItemsFor возвращает позиции одной станции, не изменяя сам заказ.
func (o Order) ItemsFor(c constants.Commerce) []LineItem {
	items := make([]LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Product.Commerce == c {
			items = append(items, item)
		}
	}
	return items
}

// IsReadyForPickup: готов глобальный статус или любой из под-статусов.
// Переход глобального статуса смешанного заказа в ready выставляет внешняя сторона.
func (o Order) IsReadyForPickup() bool {
	return o.Status == constants.StatusReady ||
		(o.StatusA.Valid && o.StatusA.String == constants.SubStatusReady) ||
		(o.StatusB.Valid && o.StatusB.String == constants.SubStatusReady)
}

func (o Order) IsAssigned() bool {
	return o.CourierID.Valid && o.CourierID.String != ""
}
