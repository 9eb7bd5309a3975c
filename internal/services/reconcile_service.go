package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ErrReconcileConflict is returned when repeated compare-and-swap attempts
// keep losing to concurrent updates of the same order. It is transient: the
// gateway will redeliver and the replay converges.
var ErrReconcileConflict = errors.New("concurrent reconciliation conflict")

// Notification is a normalized gateway webhook delivery. Only the payment
// id is trusted; the canonical status is always re-fetched from the
// gateway.
type Notification struct {
	Topic     string
	PaymentID string
}

// TopicPayment is the only notification topic the reconciler acts on.
const TopicPayment = "payment"

// ReconcileService consumes asynchronous payment notifications and drives
// the order status state machine. Delivery is at-least-once, so every path
// through here must be idempotent: replaying a notification never
// decrements stock twice or dispatches the approval notification twice.
type ReconcileService struct {
	orderRepo repositories.OrderRepository
	auditRepo repositories.AuditRepository
	stock     *StockService
	gateway   gateway.PaymentGateway
	notifier  Notifier
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(
	orderRepo repositories.OrderRepository,
	auditRepo repositories.AuditRepository,
	stock *StockService,
	paymentGateway gateway.PaymentGateway,
	notifier Notifier,
) *ReconcileService {
	return &ReconcileService{
		orderRepo: orderRepo,
		auditRepo: auditRepo,
		stock:     stock,
		gateway:   paymentGateway,
		notifier:  notifier,
	}
}

// HandleNotification processes one webhook delivery. A nil return means the
// delivery is settled and must be acknowledged; an error means a transient
// failure the sender should retry.
func (s *ReconcileService) HandleNotification(ctx context.Context, n Notification) error {
	// Unrelated topics are acknowledged without action.
	if n.Topic != TopicPayment || n.PaymentID == "" {
		return nil
	}

	// Fetch the canonical payment status; the notification body's status
	// field is never trusted (spoofed or stale webhook bodies).
	payment, err := s.gateway.GetPayment(ctx, n.PaymentID)
	if err != nil {
		if errors.Is(err, gateway.ErrPaymentNotFound) {
			log.Printf("Ignoring notification for unknown payment %s", n.PaymentID)
			return nil
		}
		return fmt.Errorf("failed to fetch payment %s: %w", n.PaymentID, err)
	}

	order := s.locateOrder(payment)
	if order == nil {
		// Order creation is synchronous and precedes any gateway
		// callback; if the order is missing now, redelivery will not
		// change that.
		log.Printf("No order found for payment %s, acknowledging", payment.ID)
		return nil
	}

	// Read-modify-write guarded by a compare-and-swap on the previous
	// status. A lost race re-reads and recomputes; a replay that finds
	// nothing to change settles without side effects.
	for attempt := 0; attempt < 3; attempt++ {
		target, changed := targetStatus(order.Status, payment.Status)
		if !changed {
			if order.ExternalPaymentID == payment.ID && order.ExternalPaymentStatus == payment.Status {
				return nil
			}
			// Status stands, but the stored external payment fields are
			// stale; refresh them under the same status precondition.
			target = order.Status
		}

		swapped, err := s.orderRepo.UpdateStatusIf(order.ID, order.Status, target, payment.ID, payment.Status)
		if err != nil {
			return fmt.Errorf("failed to update order %s: %w", order.ID, err)
		}
		if !swapped {
			order, err = s.orderRepo.GetByID(order.ID)
			if err != nil {
				return fmt.Errorf("failed to reload order after lost race: %w", err)
			}
			continue
		}

		if changed {
			s.applyTransitionEffects(order, target)
			s.recordAudit(order.ID, "payment.reconciled",
				fmt.Sprintf("payment=%s gateway_status=%s %s->%s", payment.ID, payment.Status, order.Status, target))
		} else {
			s.recordAudit(order.ID, "payment.refreshed",
				fmt.Sprintf("payment=%s gateway_status=%s status=%s", payment.ID, payment.Status, order.Status))
		}
		return nil
	}
	return fmt.Errorf("order %s: %w", order.ID, ErrReconcileConflict)
}

// locateOrder resolves the order for a payment, in priority order: the
// stored external payment id, a structured match inside the payment
// details, then the gateway's external reference as the order id.
func (s *ReconcileService) locateOrder(payment *gateway.Payment) *models.Order {
	if order, err := s.orderRepo.FindByExternalPaymentID(payment.ID); err == nil {
		return order
	}
	if order, err := s.orderRepo.FindByPaymentDetailsID(payment.ID); err == nil {
		return order
	}
	if payment.ExternalReference != "" {
		if order, err := s.orderRepo.GetByID(payment.ExternalReference); err == nil {
			return order
		}
	}
	return nil
}

// applyTransitionEffects runs the side effects owed to a transition this
// call just won: stock commitment and approval notification on newly Paid,
// hold release or restock on cancellation. Only the CAS winner gets here,
// which is what makes duplicate deliveries converge to exactly one
// decrement and one notification.
func (s *ReconcileService) applyTransitionEffects(order *models.Order, target models.OrderStatus) {
	switch target {
	case models.OrderStatusPaid:
		if len(order.PaymentDetails.ReservationIDs) > 0 {
			if err := s.stock.CommitReservations(order.PaymentDetails.ReservationIDs); err != nil {
				log.Printf("Warning: failed to commit reservations for order %s: %v", order.ID, err)
			}
		} else if err := s.stock.Decrement(order.ID, order.Items); err != nil {
			log.Printf("Warning: failed to decrement stock for order %s: %v", order.ID, err)
		}
		if err := s.notifier.PaymentApproved(order); err != nil {
			log.Printf("Warning: failed to send payment approval for order %s: %v", order.ID, err)
		}

	case models.OrderStatusCanceled:
		if order.Status == models.OrderStatusPaid || order.Status == models.OrderStatusShipped {
			// Post-paid cancellation (refund / chargeback): the sale is
			// undone, so the sold quantities return to stock.
			if err := s.stock.Restock(order.ID, order.Items); err != nil {
				log.Printf("Warning: failed to restock canceled order %s: %v", order.ID, err)
			}
		} else if err := s.stock.ReleaseReservations(order.PaymentDetails.ReservationIDs); err != nil {
			log.Printf("Warning: failed to release reservations for canceled order %s: %v", order.ID, err)
		}
	}
}

// targetStatus maps a canonical gateway payment status onto the order state
// machine. It returns the target status and whether a transition should
// happen; the mapping never regresses a Paid order to Pending, and only a
// definitive refund or chargeback moves a Paid order toward Canceled.
func targetStatus(current models.OrderStatus, gatewayStatus string) (models.OrderStatus, bool) {
	switch gatewayStatus {
	case gateway.StatusApproved:
		if current != models.OrderStatusPaid && current.CanTransitionTo(models.OrderStatusPaid) {
			return models.OrderStatusPaid, true
		}

	case gateway.StatusPending, gateway.StatusInProcess, gateway.StatusInMediation:
		if current != models.OrderStatusPaid && current != models.OrderStatusCanceled &&
			current.CanTransitionTo(models.OrderStatusPending) {
			return models.OrderStatusPending, true
		}

	case gateway.StatusRejected, gateway.StatusCancelled:
		// A definitive rejection of an unpaid order. Paid orders are not
		// touched by these.
		if current != models.OrderStatusPaid && current.CanTransitionTo(models.OrderStatusCanceled) {
			return models.OrderStatusCanceled, true
		}

	case gateway.StatusRefunded, gateway.StatusChargedBack:
		// Refunds and chargebacks cancel even a Paid order; this is the
		// explicit post-paid cancellation path.
		if current.CanTransitionTo(models.OrderStatusCanceled) {
			return models.OrderStatusCanceled, true
		}
	}
	return current, false
}

func (s *ReconcileService) recordAudit(orderID, event, detail string) {
	entry := &models.AuditEntry{
		OrderID:   orderID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	if err := s.auditRepo.Create(entry); err != nil {
		log.Printf("Warning: failed to record audit entry %s for order %s: %v", event, orderID, err)
	}
}
