package domain

// Collection names, one JSON document each.
const (
	TableProducts   = "products"
	TableCategories = "categories"
	TableSettings   = "settings"
)

var Tables = []string{
	TableProducts,
	TableCategories,
	TableSettings,
}
