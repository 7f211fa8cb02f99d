package repositories

import "errors"

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned by the ledger when a reservation would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity is returned for non-positive ledger or cart quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStatusConflict is returned when an order's status changed under a compare-and-set update.
	ErrStatusConflict = errors.New("order status changed concurrently")
)
