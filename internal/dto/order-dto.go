package dto

type CreateOrderItemDTO struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	Quantity  int     `json:"quantity" validate:"required,gt=0,lte=99"`
	UnitPrice *string `json:"unit_price,omitempty" validate:"omitempty,money"`
	Extras    *string `json:"extras,omitempty" validate:"omitempty,max=255"`
}

type CreateClientDTO struct {
	Name    string  `json:"name" validate:"required,min=2,max=120"`
	Phone   *string `json:"phone,omitempty" validate:"omitempty,min=6,max=20"`
	Address *string `json:"address,omitempty" validate:"omitempty,min=5"`
}

type CreateOrderDTO struct {
	Type   string               `json:"type" validate:"required,order_type"`
	Notes  *string              `json:"notes,omitempty" validate:"omitempty,max=500"`
	Client *CreateClientDTO     `json:"client,omitempty" validate:"required_if=Type delivery,omitempty"`
	Items  []CreateOrderItemDTO `json:"items" validate:"required,min=1,dive"`
}

// UpdateStatusDTO меняет одно поле статуса: status, status_a или status_b.
type UpdateStatusDTO struct {
	Field string `json:"field" validate:"required,oneof=status status_a status_b"`
	Value string `json:"value" validate:"required,order_status"`
}

type AcceptDeliveryDTO struct {
	CourierID string `json:"courier_id" validate:"required,min=1,max=64"`
}
