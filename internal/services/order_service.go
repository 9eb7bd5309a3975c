package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repositories"
)

// CreateOrderItem is one normalized cart line. Client-submitted prices are
// not part of it: every line is re-priced server-side.
type CreateOrderItem struct {
	ProductID       string
	Quantity        int
	SelectedOptions []string // option value ids, resolved against the product
}

// CreateOrderInput is the normalized checkout request handed to the
// orchestrator.
type CreateOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerAddress string
	CustomerCity    string
	Items           []CreateOrderItem
	PaymentMethod   string
	PaymentID       string // gateway payment id reported by the client, verified before trusted
	DiscountCode    string
}

// OrderService orchestrates order creation: discount validation, server-side
// pricing, status determination, persistence, stock effects, and best-effort
// side effects.
type OrderService struct {
	orderRepo    repositories.OrderRepository
	productRepo  repositories.ProductRepository
	discountRepo repositories.DiscountRepository
	auditRepo    repositories.AuditRepository
	stock        *StockService
	pricing      *pricing.Service
	gateway      gateway.PaymentGateway
	notifier     Notifier
}

// NewOrderService creates a new OrderService with all collaborators
// injected.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	discountRepo repositories.DiscountRepository,
	auditRepo repositories.AuditRepository,
	stock *StockService,
	pricingService *pricing.Service,
	paymentGateway gateway.PaymentGateway,
	notifier Notifier,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		discountRepo: discountRepo,
		auditRepo:    auditRepo,
		stock:        stock,
		pricing:      pricingService,
		gateway:      paymentGateway,
		notifier:     notifier,
	}
}

// GetAllOrders retrieves all orders.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// CreateOrder turns a normalized cart into a persisted order.
//
// The discount redemption, stock adjustment and persist are treated as one
// logical unit of work: if a later step fails, the earlier effects are
// compensated before the error is returned, so no rejected order leaves a
// consumed code or claimed stock behind.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, errors.New("order must contain at least one item")
	}
	now := time.Now()

	// Compensating actions for effects already applied, run in reverse on
	// failure.
	var compensations []func()
	fail := func(err error) (*models.Order, error) {
		for i := len(compensations) - 1; i >= 0; i-- {
			compensations[i]()
		}
		return nil, err
	}

	// 1. Discount validation. An expired or exhausted code rejects the
	// whole order; proceeding at full price without the customer's
	// knowledge is not an option.
	var discount *models.DiscountCode
	if in.DiscountCode != "" {
		if err := s.discountRepo.Redeem(in.DiscountCode, now); err != nil {
			if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrCodeNotRedeemable) {
				return nil, fmt.Errorf("%w: %s", ErrDiscountInvalid, in.DiscountCode)
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		compensations = append(compensations, func() {
			if err := s.discountRepo.Release(in.DiscountCode); err != nil {
				log.Printf("Warning: failed to release discount code %s: %v", in.DiscountCode, err)
			}
		})

		var err error
		discount, err = s.discountRepo.GetByCode(in.DiscountCode)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrPersistence, err))
		}
	}

	// 2. Server-side pricing. Every line is re-priced from the current
	// catalog snapshot; the client's prices and total are advisory only.
	items := make([]models.OrderLineItem, 0, len(in.Items))
	lineTotals := make([]models.Money, 0, len(in.Items))
	for _, reqItem := range in.Items {
		product, err := s.productRepo.GetByID(reqItem.ProductID)
		if err != nil {
			return fail(fmt.Errorf("product %s not found: %w", reqItem.ProductID, err))
		}

		pctx := pricing.Context{
			Product:       product,
			Quantity:      reqItem.Quantity,
			PaymentMethod: in.PaymentMethod,
			Now:           now,
		}
		unit, err := s.pricing.UnitPrice(pctx, reqItem.SelectedOptions)
		if err != nil {
			return fail(err)
		}
		lineTotal, err := s.pricing.LineTotal(pctx, reqItem.SelectedOptions)
		if err != nil {
			return fail(err)
		}

		items = append(items, models.OrderLineItem{
			ProductID:       product.ID,
			Name:            product.Name,
			UnitPrice:       unit,
			Quantity:        reqItem.Quantity,
			SelectedOptions: reqItem.SelectedOptions,
		})
		lineTotals = append(lineTotals, lineTotal)
	}

	total, err := s.pricing.OrderTotal(lineTotals, discount)
	if err != nil {
		return fail(err)
	}

	// 3. Initial status. A client-reported payment id is only trusted
	// after the canonical status is fetched from the gateway.
	status, extStatus := s.determineStatus(ctx, in)

	order := &models.Order{
		ID:              uuid.New().String(),
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerAddress: in.CustomerAddress,
		CustomerCity:    in.CustomerCity,
		Items:           items,
		Status:          status,
		PaymentMethod:   in.PaymentMethod,
		PaymentDetails:  models.PaymentDetails{PaymentID: in.PaymentID},
		DiscountCode:    in.DiscountCode,
	}
	order.SetTotal(total)
	if status == models.OrderStatusPaid {
		order.ExternalPaymentID = in.PaymentID
		order.ExternalPaymentStatus = extStatus
	}

	// 4. Stock effect: hard decrement for already-paid orders, soft hold
	// otherwise.
	if status == models.OrderStatusPaid {
		if err := s.stock.Decrement(order.ID, items); err != nil {
			return fail(err)
		}
		compensations = append(compensations, func() {
			if err := s.stock.Restock(order.ID, items); err != nil {
				log.Printf("Warning: failed to restock after aborted order %s: %v", order.ID, err)
			}
		})
	} else {
		reservationIDs, err := s.stock.Reserve(order.ID, items)
		if err != nil {
			return fail(err)
		}
		order.PaymentDetails.ReservationIDs = reservationIDs
		compensations = append(compensations, func() {
			if err := s.stock.ReleaseReservations(reservationIDs); err != nil {
				log.Printf("Warning: failed to release reservations after aborted order %s: %v", order.ID, err)
			}
		})
	}

	// 5. Persist. A failure here compensates the stock and discount
	// effects above.
	if err := s.orderRepo.Create(order); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrPersistence, err))
	}

	// 6. Side effects are best-effort: logged and swallowed, never rolled
	// back into a creation failure.
	s.recordAudit(order.ID, "order.created",
		fmt.Sprintf("status=%s method=%s total=%s", order.Status, order.PaymentMethod, order.Total().Format()))
	if err := s.notifier.OrderCreated(order); err != nil {
		log.Printf("Warning: failed to send order confirmation for order %s: %v", order.ID, err)
	}
	if err := s.notifier.OperatorAlert("New order", fmt.Sprintf("order %s, total %s", order.ID, order.Total().Format())); err != nil {
		log.Printf("Warning: failed to send operator alert for order %s: %v", order.ID, err)
	}

	return order, nil
}

// determineStatus maps the payment method and the verified payment state to
// the initial order status. Transfer orders await manual verification; a
// gateway-backed order is Paid only when the gateway itself reports the
// referenced payment approved.
func (s *OrderService) determineStatus(ctx context.Context, in CreateOrderInput) (models.OrderStatus, string) {
	if in.PaymentMethod == models.PaymentMethodTransfer {
		return models.OrderStatusPending, ""
	}
	if in.PaymentID == "" {
		return models.OrderStatusProcessing, ""
	}

	payment, err := s.gateway.GetPayment(ctx, in.PaymentID)
	if err != nil {
		log.Printf("Warning: could not verify payment %s at creation: %v", in.PaymentID, err)
		return models.OrderStatusProcessing, ""
	}
	if payment.Status == gateway.StatusApproved {
		return models.OrderStatusPaid, payment.Status
	}
	return models.OrderStatusProcessing, ""
}

func (s *OrderService) recordAudit(orderID, event, detail string) {
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
