package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrCartIDRequired is returned when a cart document carries no identifier.
	ErrCartIDRequired = errors.New("cart id is required")
	// ErrInvalidCartID is returned for identifiers that cannot name a stored document.
	ErrInvalidCartID = errors.New("invalid cart id")
	// ErrInvalidCart is returned when a cart document has a malformed items list.
	ErrInvalidCart = errors.New("invalid cart structure")
	// ErrInvalidQuantity is returned when adding fewer than one unit.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
