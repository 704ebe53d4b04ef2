package projection

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-dispatch/internal/entities"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
)

func lineItem(c constants.Commerce) entities.LineItem {
	return entities.LineItem{Quantity: 1, Product: entities.Product{Commerce: c}}
}

func ids(orders []entities.Order) []string {
	out := make([]string, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestKitchen_MixedOrderOnBothStations(t *testing.T) {
	x := entities.Order{ID: "X", Status: constants.StatusNew, Items: []entities.LineItem{lineItem(constants.CommerceA)}}
	y := entities.Order{ID: "Y", Status: constants.StatusNew, Items: []entities.LineItem{
		lineItem(constants.CommerceA), lineItem(constants.CommerceB),
	}}
	orders := []entities.Order{x, y}

	viewB, err := Project(constants.RoleKitchenB, "", orders)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, ids(viewB.Visible))

	viewA, err := Project(constants.RoleKitchenA, "", orders)
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, ids(viewA.Visible))

	// Заказ не мутируется: полный список позиций остаётся на месте
	assert.Len(t, viewB.Visible[0].Items, 2)
}

func TestKitchen_SubStatusesAreIndependent(t *testing.T) {
	mixed := entities.Order{
		ID:      "M",
		Status:  constants.StatusInProgress,
		StatusA: null.StringFrom(constants.SubStatusDone),
		StatusB: null.StringFrom(constants.SubStatusNew),
		Items:   []entities.LineItem{lineItem(constants.CommerceA), lineItem(constants.CommerceB)},
	}
	cooking := entities.Order{
		ID:      "C",
		Status:  constants.StatusNew,
		StatusA: null.StringFrom(constants.SubStatusInProgress),
		Items:   []entities.LineItem{lineItem(constants.CommerceA)},
	}

	viewA := Kitchen(constants.CommerceA, []entities.Order{mixed, cooking})
	assert.Equal(t, []string{"C"}, ids(viewA.Visible))
	assert.Zero(t, viewA.NewCount, "глобальный статус new не должен влиять на счётчик станции")

	viewB := Kitchen(constants.CommerceB, []entities.Order{mixed, cooking})
	assert.Equal(t, []string{"M"}, ids(viewB.Visible))
	assert.Equal(t, 1, viewB.NewCount)
}

func TestKitchen_MalformedPayload(t *testing.T) {
	noItems := entities.Order{ID: "N", Status: constants.StatusNew}
	missingStatus := entities.Order{ID: "S", Items: []entities.LineItem{lineItem(constants.CommerceB)}}

	view := Kitchen(constants.CommerceB, []entities.Order{noItems, missingStatus})

	assert.Equal(t, []string{"S"}, ids(view.Visible))
	assert.Equal(t, 1, view.NewCount, "отсутствующий под-статус считается new")
}

func TestKitchen_NewCountResetsWhenNothingIsNew(t *testing.T) {
	o := entities.Order{ID: "1", StatusA: null.StringFrom(constants.SubStatusReady), Items: []entities.LineItem{lineItem(constants.CommerceA)}}

	view := Kitchen(constants.CommerceA, []entities.Order{o})

	assert.Len(t, view.Visible, 1)
	assert.Zero(t, view.NewCount)
}

func TestDelivery(t *testing.T) {
	ready := entities.Order{ID: "R", Type: constants.OrderTypeDelivery, Status: constants.StatusReady}
	subReady := entities.Order{ID: "SR", Type: constants.OrderTypeDelivery, Status: constants.StatusInProgress, StatusB: null.StringFrom(constants.SubStatusReady)}
	takeaway := entities.Order{ID: "T", Type: constants.OrderTypeTakeaway, Status: constants.StatusReady}
	taken := entities.Order{ID: "O", Type: constants.OrderTypeDelivery, Status: constants.StatusReady, CourierID: null.StringFrom("other")}
	mine := entities.Order{ID: "M", Type: constants.OrderTypeDelivery, Status: constants.StatusOutForDelivery, CourierID: null.StringFrom("me")}
	othersRun := entities.Order{ID: "X", Type: constants.OrderTypeDelivery, Status: constants.StatusOutForDelivery, CourierID: null.StringFrom("other")}

	view, err := Project(constants.RoleDelivery, "me", []entities.Order{ready, subReady, takeaway, taken, mine, othersRun})
	require.NoError(t, err)

	assert.Equal(t, []string{"R", "SR"}, ids(view.Visible))
	assert.Equal(t, []string{"M"}, ids(view.Mine))
	assert.Equal(t, 2, view.NewCount)
}

func TestCashier(t *testing.T) {
	orders := []entities.Order{
		{ID: "1", Status: constants.StatusNew},
		{ID: "2", Status: constants.StatusReady},
		{ID: "3", Status: constants.StatusClosed},
		{ID: "4", Status: constants.StatusNew, StatusA: null.StringFrom(constants.SubStatusDone)},
	}

	view, err := Project(constants.RoleCashier, "", orders)
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "4"}, ids(view.Visible))
	assert.Equal(t, 2, view.NewCount)
	assert.Nil(t, view.Mine)
}

func TestConfigFor_Errors(t *testing.T) {
	_, err := ConfigFor(constants.RoleDelivery, "")
	assert.ErrorIs(t, err, apperrors.ErrCourierRequired)

	_, err = ConfigFor(constants.Role("manager"), "")
	assert.ErrorIs(t, err, apperrors.ErrUnknownRole)
}

func TestConfigFor_FiltersRender(t *testing.T) {
	for _, role := range constants.Roles {
		cfg, err := ConfigFor(role, "courier-1")
		require.NoError(t, err, role)

		query, _, err := sq.Select("o.id").From("orders o").Where(cfg.Filter).PlaceholderFormat(sq.Dollar).ToSql()
		require.NoError(t, err, role)
		assert.Contains(t, query, "WHERE", role)
	}

	cfg, _ := ConfigFor(constants.RoleKitchenB, "")
	query, args, err := sq.Select("o.id").From("orders o").Where(cfg.Filter).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "o.status_b IS NULL")
	assert.Contains(t, args, "B")
}
