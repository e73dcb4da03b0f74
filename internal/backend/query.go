package backend

import (
	"net/url"
	"strconv"

	"storefront/internal/domain"
)

// ProductsQuery encodes filters the way the catalog expects: zero values are
// omitted and list filters repeat their key.
func ProductsQuery(f domain.ProductFilters) url.Values {
	q := url.Values{}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if f.IncludeDeleted {
		q.Set("includeDeleted", "true")
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	addAll(q, "category", f.Category)
	addAll(q, "brand", f.Brand)
	addAll(q, "status", f.Status)
	if f.MinPrice > 0 {
		q.Set("minPrice", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	addAll(q, "color", f.Color)
	addAll(q, "size", f.Size)
	addAll(q, "style", f.Style)
	return q
}

// ParseProductFilters is the inverse of ProductsQuery. Malformed numbers are
// treated as absent.
func ParseProductFilters(q url.Values) domain.ProductFilters {
	f := domain.ProductFilters{
		Search:   q.Get("search"),
		Category: nonEmpty(q["category"]),
		Brand:    nonEmpty(q["brand"]),
		Status:   nonEmpty(q["status"]),
		Color:    nonEmpty(q["color"]),
		Size:     nonEmpty(q["size"]),
		Style:    nonEmpty(q["style"]),
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	f.IncludeDeleted = q.Get("includeDeleted") == "true"
	f.MinPrice, _ = strconv.ParseFloat(q.Get("minPrice"), 64)
	f.MaxPrice, _ = strconv.ParseFloat(q.Get("maxPrice"), 64)
	return f
}

func addAll(q url.Values, key string, values []string) {
	for _, v := range values {
		if v != "" {
			q.Add(key, v)
		}
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
