package services

import (
	"storefront/internal/models"
)

// Notifier is the fire-and-forget notification collaborator: customer
// confirmations, payment approvals, operator alerts. Implementations are
// injected at construction time (the AMQP client in production, fakes in
// tests); failures are logged and swallowed at the call sites, never rolled
// back into order creation or reconciliation.
type Notifier interface {
	OrderCreated(order *models.Order) error
	PaymentApproved(order *models.Order) error
	OperatorAlert(subject, body string) error
}
