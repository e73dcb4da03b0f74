package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gosimple/slug"

	"storefront/internal/domain"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// Options narrow an import. An empty or "all" CategoryID imports every
// category, otherwise it matches a category name or slug. Limit caps the
// number of products written.
type Options struct {
	CategoryID string
	Limit      int
}

// Normalize applies the default limit and rejects limits outside 1..MaxLimit.
func (o Options) Normalize() (Options, error) {
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit < 1 || o.Limit > MaxLimit {
		return o, fmt.Errorf("limit must be between 1 and %d, got %d", MaxLimit, o.Limit)
	}
	o.CategoryID = strings.TrimSpace(o.CategoryID)
	if strings.EqualFold(o.CategoryID, "all") {
		o.CategoryID = ""
	}
	return o, nil
}

type Result struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Products []domain.Product `json:"products"`
}

// CSVImporter reads catalog CSV exports and upserts products. A row with a
// product sku starts a product; following rows without one add variants, or
// images to the last variant.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	opts        Options
}

func NewCSVImporter(r io.Reader, repo ProductWriter, opts Options) (*CSVImporter, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		opts:        opts,
	}, nil
}

// Run parses CSV rows and upserts products grouped by product sku.
func (i *CSVImporter) Run(ctx context.Context) (*Result, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["sku"]; !ok {
		return nil, errors.New("missing sku column")
	}

	res := &Result{Products: []domain.Product{}}
	var current *domain.Product

	flush := func() error {
		if current == nil {
			return nil
		}
		p := current
		current = nil
		if !i.wanted(p) {
			res.Skipped++
			return nil
		}
		saved, err := i.save(ctx, p)
		if err != nil {
			return err
		}
		res.Imported++
		res.Products = append(res.Products, *saved)
		return nil
	}

	for res.Imported < i.opts.Limit {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}

		if row.product.SKU != "" {
			if err := flush(); err != nil {
				return res, err
			}
			p := row.product
			current = &p
		} else if current == nil {
			continue
		}

		switch {
		case row.variant.SKU != "":
			current.Variants = append(current.Variants, row.variant)
		case len(row.variant.Images) > 0 && len(current.Variants) > 0:
			last := &current.Variants[len(current.Variants)-1]
			last.Images = append(last.Images, row.variant.Images...)
		}
	}

	if res.Imported < i.opts.Limit {
		if err := flush(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// wanted matches the category filter against the category name or its slug.
func (i *CSVImporter) wanted(p *domain.Product) bool {
	if i.opts.CategoryID == "" {
		return true
	}
	return strings.EqualFold(p.Category, i.opts.CategoryID) || slug.Make(p.Category) == i.opts.CategoryID
}

func (i *CSVImporter) save(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("invalid product row (missing name) for sku %q", p.SKU)
	}
	if p.BasePrice != "" {
		if _, err := domain.MoneyFromString(p.BasePrice); err != nil {
			return nil, fmt.Errorf("invalid base price %q for sku %q", p.BasePrice, p.SKU)
		}
	}
	for _, v := range p.Variants {
		if _, err := domain.MoneyFromString(v.Price); err != nil {
			return nil, fmt.Errorf("invalid price %q for variant %q", v.Price, v.SKU)
		}
	}
	if p.Handle == "" {
		p.Handle = slug.Make(p.Name)
	}

	saved, err := i.productRepo.Upsert(ctx, *p)
	if err != nil {
		return nil, fmt.Errorf("upsert product %q: %w", p.SKU, err)
	}
	return saved, nil
}

type csvRow struct {
	product domain.Product
	variant domain.ProductVariant
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		product: domain.Product{
			SKU:         pick(record, index, "sku"),
			Handle:      pick(record, index, "handle"),
			Name:        pick(record, index, "name"),
			Description: pick(record, index, "description"),
			Category:    pick(record, index, "category"),
			Brand:       pick(record, index, "brand"),
			BasePrice:   pick(record, index, "base_price"),
			Status:      pick(record, index, "status"),
		},
		variant: domain.ProductVariant{
			SKU:    pick(record, index, "variant_sku"),
			Name:   pick(record, index, "variant_name"),
			Size:   pick(record, index, "size"),
			Color:  pick(record, index, "color"),
			Price:  pick(record, index, "price"),
			Weight: pick(record, index, "weight"),
		},
	}
	if img := pick(record, index, "image_url"); img != "" {
		row.variant.Images = []interface{}{img}
	}
	if row.product.SKU == "" && row.variant.SKU == "" && len(row.variant.Images) == 0 {
		return nil
	}
	if row.variant.SKU != "" && row.variant.Price == "" {
		row.variant.Price = row.product.BasePrice
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
