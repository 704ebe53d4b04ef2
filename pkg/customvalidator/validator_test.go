package customvalidator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Role   string `validate:"dashboard_role"`
	Type   string `validate:"order_type"`
	Status string `validate:"order_status"`
	Price  string `validate:"money"`
}

func TestRegisterCustomValidations(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterCustomValidations(v))

	valid := sample{Role: "kitchen_b", Type: "delivery", Status: "done", Price: "12.50"}
	assert.NoError(t, v.Struct(valid))

	cases := map[string]sample{
		"role":   {Role: "manager", Type: "delivery", Status: "new", Price: "1"},
		"type":   {Role: "cashier", Type: "drive", Status: "new", Price: "1"},
		"status": {Role: "cashier", Type: "takeaway", Status: "cooking", Price: "1"},
		"price":  {Role: "cashier", Type: "takeaway", Status: "new", Price: "-3"},
		"cents":  {Role: "cashier", Type: "takeaway", Status: "new", Price: "1.005"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, v.Struct(c))
		})
	}
}
