package cart

import (
	"context"
	"regexp"

	"storefront/internal/domain"
)

// Repository persists whole cart documents keyed by cart identifier. Save
// replaces any previous document; there is no merge and no version check.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Delete(ctx context.Context, id string) error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidID reports whether id can name a stored document.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
