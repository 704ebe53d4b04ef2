package projection

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"order-dispatch/internal/entities"
	"order-dispatch/internal/schedule"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
)

// RoleConfig собирает всё, чем роли отличаются друг от друга:
// предикат выборки, функцию проекции и таблицу интервалов.
type RoleConfig struct {
	Role      constants.Role
	CourierID string
	Filter    sq.Sqlizer
	Project   func(orders []entities.Order) View
	Intervals schedule.Table
}

func ConfigFor(role constants.Role, courierID string) (RoleConfig, error) {
	cfg := RoleConfig{
		Role:      role,
		CourierID: courierID,
		Intervals: schedule.TableFor(role),
	}

	switch role {
	case constants.RoleCashier:
		cfg.Filter = sq.NotEq{"o.status": constants.StatusClosed}
		cfg.Project = Cashier

	case constants.RoleKitchenA, constants.RoleKitchenB:
		commerce, _ := role.Commerce()
		cfg.Filter = kitchenFilter(commerce)
		cfg.Project = func(orders []entities.Order) View { return Kitchen(commerce, orders) }

	case constants.RoleDelivery:
		if courierID == "" {
			return RoleConfig{}, apperrors.ErrCourierRequired
		}
		cfg.Filter = deliveryFilter(courierID)
		cfg.Project = func(orders []entities.Order) View { return Delivery(courierID, orders) }

	default:
		return RoleConfig{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownRole, role)
	}
	return cfg, nil
}

// Project применяет правила роли к сырому списку.
func Project(role constants.Role, courierID string, orders []entities.Order) (View, error) {
	cfg, err := ConfigFor(role, courierID)
	if err != nil {
		return View{}, err
	}
	return cfg.Project(orders), nil
}

// Грубый фильтр на стороне БД; точные правила применяет проекция.
func kitchenFilter(commerce constants.Commerce) sq.Sqlizer {
	column := "o." + commerce.StatusColumn()
	return sq.And{
		sq.Or{
			sq.Eq{column: constants.KitchenActiveSubStatuses},
			sq.Eq{column: nil},
		},
		sq.Expr(`EXISTS (
			SELECT 1 FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = o.id AND p.commerce = ?)`, commerce.String()),
	}
}

func deliveryFilter(courierID string) sq.Sqlizer {
	return sq.And{
		sq.Eq{"o.type": string(constants.OrderTypeDelivery)},
		sq.Or{
			sq.And{
				sq.Eq{"o.courier_id": nil},
				sq.Or{
					sq.Eq{"o.status": constants.StatusReady},
					sq.Eq{"o.status_a": constants.SubStatusReady},
					sq.Eq{"o.status_b": constants.SubStatusReady},
				},
			},
			sq.Eq{"o.courier_id": courierID, "o.status": constants.StatusOutForDelivery},
		},
	}
}
