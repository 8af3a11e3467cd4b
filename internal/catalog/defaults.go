package catalog

// builtinDishes is the canteen's standing menu.
var builtinDishes = []Dish{
	{
		ID: "masala-dosa", Name: "Masala Dosa", Kcal: 380,
		Macros: Macros{P: 9, C: 58, F: 12},
		Tags:   []string{TagVegetarian},
		Region: "South", State: "Karnataka",
		About:     "Fermented rice-lentil crepe with spiced potatoes; a South Indian staple.",
		Allergens: []string{"Gluten"},
	},
	{
		ID: "dal-makhani", Name: "Dal Makhani", Kcal: 410,
		Macros:    Macros{P: 19, C: 38, F: 18},
		Tags:      []string{TagVegetarian},
		Region:    "North",
		Allergens: []string{"Dairy"},
	},
	{
		ID: "grilled-paneer", Name: "Grilled Paneer", Kcal: 320,
		Macros: Macros{P: 26, C: 8, F: 14},
		Tags:   []string{TagVegetarian, TagGlutenFree},
	},
	{
		ID: "idli", Name: "Idli", Kcal: 220,
		Macros: Macros{P: 8, C: 44, F: 2},
		Tags:   []string{TagVegan},
		Region: "South",
	},
	{
		ID: "tandoori-chicken", Name: "Tandoori Chicken", Kcal: 320,
		Macros: Macros{P: 35, C: 6, F: 12},
		Tags:   []string{},
	},
	{
		ID: "rogan-josh", Name: "Rogan Josh", Kcal: 480,
		Macros: Macros{P: 35, C: 22, F: 28},
		Tags:   []string{},
		Region: "North", State: "Kashmir",
		About: "A Kashmiri aromatic curry with tender meat and warming spices.",
	},
	{
		ID: "puchka", Name: "Puchka (Pani Puri)", Kcal: 190,
		Macros: Macros{P: 5, C: 34, F: 4},
		Tags:   []string{TagVegan},
		Region: "East", State: "West Bengal",
		About:     "Crispy puris filled with tangy water and potato-chickpea mix.",
		Allergens: []string{"Gluten"},
	},
	{
		ID: "dhokla", Name: "Khaman Dhokla", Kcal: 260,
		Macros: Macros{P: 11, C: 42, F: 6},
		Tags:   []string{TagVegetarian},
		Region: "West", State: "Gujarat",
		About: "Steamed gram flour cakes tempered with mustard and curry leaves.",
	},
	{
		ID: "litti", Name: "Litti Chokha", Kcal: 420,
		Macros: Macros{P: 12, C: 60, F: 14},
		Tags:   []string{TagVegetarian},
		Region: "Central", State: "Bihar",
		About:     "Wheat balls stuffed with spiced sattu, served with mashed veg.",
		Allergens: []string{"Gluten"},
	},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(builtinDishes)
	if err != nil {
		panic("catalog: invalid built-in menu: " + err.Error())
	}
	return c
}
