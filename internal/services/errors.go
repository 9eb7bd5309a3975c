package services

import (
	"errors"

	"storefront/internal/repositories"
)

// Typed failures surfaced by order creation. Validation failures abort the
// whole creation and are never partially applied; handlers map them to
// client errors.
var (
	// ErrDiscountInvalid means the referenced discount code is unknown,
	// expired, or exhausted. The order is rejected rather than silently
	// created at full price.
	ErrDiscountInvalid = errors.New("invalid discount code")

	// ErrInsufficientStock propagates the stock ledger's refusal to
	// reserve or decrement.
	ErrInsufficientStock = repositories.ErrInsufficientStock

	// ErrPersistence means the order could not be stored. Stock and
	// discount effects are compensated before this is returned, so a
	// failed creation never leaves stock claimed.
	ErrPersistence = errors.New("order persistence failed")
)
