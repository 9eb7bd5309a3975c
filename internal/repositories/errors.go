package repositories

import "errors"

// Sentinel errors shared by all repository implementations. Services wrap
// them into their own typed failures; handlers check them with errors.Is.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock means a stock mutation would make availability
	// negative. The whole multi-item operation is rolled back when any
	// single item fails.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrCodeNotRedeemable means a discount code exists but is expired or
	// its usage budget is exhausted.
	ErrCodeNotRedeemable = errors.New("discount code not redeemable")
)
