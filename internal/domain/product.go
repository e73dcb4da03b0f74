package domain

import "time"

// ProductVariant is one purchasable configuration of a product.
// Price is the decimal string reported by the catalog backend.
type ProductVariant struct {
	ID         int64         `json:"id"`
	ProductID  int64         `json:"productId"`
	SKU        string        `json:"sku"`
	Name       string        `json:"name"`
	Size       string        `json:"size"`
	Color      string        `json:"color"`
	Price      string        `json:"price"`
	Weight     string        `json:"weight"`
	Dimensions *string       `json:"dimensions"`
	Images     []interface{} `json:"images"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type Product struct {
	ID          int64            `json:"id"`
	SKU         string           `json:"sku"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Brand       string           `json:"brand"`
	BasePrice   string           `json:"basePrice"`
	Status      string           `json:"status"`
	Handle      string           `json:"handle,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Variants    []ProductVariant `json:"variants"`
}

// Variant returns the variant with the given id.
func (p Product) Variant(id int64) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// ProductFilters narrows a catalog search. Zero values mean "no filter".
type ProductFilters struct {
	Limit          int      `json:"limit,omitempty"`
	Offset         int      `json:"offset,omitempty"`
	IncludeDeleted bool     `json:"includeDeleted,omitempty"`
	Search         string   `json:"search,omitempty"`
	Category       []string `json:"category,omitempty"`
	Brand          []string `json:"brand,omitempty"`
	Status         []string `json:"status,omitempty"`
	MinPrice       float64  `json:"minPrice,omitempty"`
	MaxPrice       float64  `json:"maxPrice,omitempty"`
	Color          []string `json:"color,omitempty"`
	Size           []string `json:"size,omitempty"`
	Style          []string `json:"style,omitempty"`
}

type Pagination struct {
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	Limit       int  `json:"limit"`
	Offset      int  `json:"offset"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

type ProductsResponse struct {
	Success    bool       `json:"success"`
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
