package domain

const (
	// CategoryAll is the synthetic "show everything" category. It is never
	// stored and can be neither created nor deleted.
	CategoryAll = "all"
	// CategoryUncategorized is assigned to products whose category was deleted.
	CategoryUncategorized = "uncategorized"

	DefaultCategoryIcon = "📦"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}
