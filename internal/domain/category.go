package domain

// Category is a catalog grouping derived from the products assigned to it.
type Category struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Products int    `json:"products"`
	Variants int    `json:"variants"`
}
