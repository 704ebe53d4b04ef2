package seeders

import "order-dispatch/pkg/constants"

// productsData - стартовый каталог обеих станций.
var productsData = []struct {
	Name     string
	Category string
	Commerce constants.Commerce
	IsExtra  bool
	Price    string
}{
	// --- Станция A: пиццерия ---
	{Name: "Margherita", Category: "pizza", Commerce: constants.CommerceA, Price: "9.50"},
	{Name: "Regina", Category: "pizza", Commerce: constants.CommerceA, Price: "11.00"},
	{Name: "4 Fromages", Category: "pizza", Commerce: constants.CommerceA, Price: "12.50"},
	{Name: "Calzone", Category: "pizza", Commerce: constants.CommerceA, Price: "12.00"},
	{Name: "Supplément fromage", Category: "extra", Commerce: constants.CommerceA, IsExtra: true, Price: "1.50"},

	// --- Станция B: снэк ---
	{Name: "Jambon-beurre", Category: "sandwich", Commerce: constants.CommerceB, Price: "5.00"},
	{Name: "Club poulet", Category: "sandwich", Commerce: constants.CommerceB, Price: "6.50"},
	{Name: "Tacos", Category: "tacos", Commerce: constants.CommerceB, Price: "8.00"},
	{Name: "Frites", Category: "side", Commerce: constants.CommerceB, Price: "3.00"},
	{Name: "Sauce algérienne", Category: "extra", Commerce: constants.CommerceB, IsExtra: true, Price: "0.50"},
}
