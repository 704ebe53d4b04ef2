package dto

type OpenSessionDTO struct {
	Role      string `json:"role" validate:"required,dashboard_role"`
	CourierID string `json:"courier_id" validate:"required_if=Role delivery,max=64"`
}

type SessionOpenedDTO struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	CourierID string `json:"courier_id,omitempty"`
	WSPath    string `json:"ws_path"`
}
