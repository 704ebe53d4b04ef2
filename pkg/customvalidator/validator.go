// Файл: pkg/customvalidator/validator.go

package customvalidator

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"order-dispatch/pkg/constants"
)

// RegisterCustomValidations регистрирует правила предметной области в валидаторе.
func RegisterCustomValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("dashboard_role", isDashboardRole); err != nil {
		return err
	}
	if err := v.RegisterValidation("order_type", isOrderType); err != nil {
		return err
	}
	if err := v.RegisterValidation("order_status", isOrderStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("money", isMoney); err != nil {
		return err
	}
	return nil
}

func isDashboardRole(fl validator.FieldLevel) bool {
	return constants.Role(fl.Field().String()).Valid()
}

func isOrderType(fl validator.FieldLevel) bool {
	return constants.OrderType(fl.Field().String()).Valid()
}

// Значение проверяется по объединению глобальных и под-статусов;
// соответствие конкретному полю проверяет сервис.
func isOrderStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return constants.IsGlobalStatus(s) || constants.IsSubStatus(s)
}

func isMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Exponent() >= -2
}
