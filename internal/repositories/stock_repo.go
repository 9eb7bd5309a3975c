package repositories

import (
	"storefront/internal/models"
)

// StockRepository is the persistence side of the stock ledger. Every
// operation spans all items of one order inside a single transaction:
// either the whole adjustment applies or none of it does. Individual row
// updates are conditional increments, never read-modify-write.
type StockRepository interface {
	// Reserve places a soft hold (reservedStock += quantity) per item,
	// guarded by available quantity, and records one reservation row per
	// item. Returns the created reservations.
	Reserve(orderID string, items []models.OrderLineItem) ([]models.StockReservation, error)

	// Decrement hard-commits stock (stock -= quantity) per item without a
	// prior reservation. Used when an order is already paid at creation.
	Decrement(orderID string, items []models.OrderLineItem) error

	// CommitReservations turns soft holds into a sale: for every
	// reservation still in the reserved state, stock -= quantity AND
	// reservedStock -= quantity, so availability stays truthful. Already
	// committed reservations are skipped, which makes replays idempotent.
	CommitReservations(ids []string) error

	// ReleaseReservations undoes soft holds (reservedStock -= quantity)
	// for reservations still in the reserved state.
	ReleaseReservations(ids []string) error

	// Restock returns sold quantities to stock (stock += quantity). Used
	// for post-paid cancellations (refund / chargeback).
	Restock(orderID string, items []models.OrderLineItem) error
}
