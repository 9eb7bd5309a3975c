package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/gateway"
	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// fakeGateway is an in-memory PaymentGateway seeded with canonical payment
// records.
type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]gateway.Payment
	err      error
	calls    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]gateway.Payment)}
}

func (f *fakeGateway) set(p gateway.Payment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[p.ID] = p
}

func (f *fakeGateway) GetPayment(_ context.Context, id string) (*gateway.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, gateway.ErrPaymentNotFound
	}
	return &p, nil
}

// recordingNotifier counts dispatched notifications and can be told to fail.
type recordingNotifier struct {
	mu       sync.Mutex
	created  int
	approved int
	alerts   int
	fail     bool
}

func (n *recordingNotifier) OrderCreated(_ *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
	if n.fail {
		return errors.New("notifier down")
	}
	return nil
}

func (n *recordingNotifier) PaymentApproved(_ *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved++
	if n.fail {
		return errors.New("notifier down")
	}
	return nil
}

func (n *recordingNotifier) OperatorAlert(_, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts++
	if n.fail {
		return errors.New("notifier down")
	}
	return nil
}

func (n *recordingNotifier) approvedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.approved
}

// fixture bundles the orchestrator with its in-memory collaborators.
type fixture struct {
	orders    *repositories.MockOrderRepository
	products  *repositories.MockProductRepository
	discounts *repositories.MockDiscountRepository
	stock     *repositories.MockStockRepository
	audit     *repositories.MockAuditRepository
	gateway   *fakeGateway
	notifier  *recordingNotifier
	orderSvc  *services.OrderService
	stockSvc  *services.StockService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:    repositories.NewMockOrderRepository(),
		products:  repositories.NewMockProductRepository(),
		discounts: repositories.NewMockDiscountRepository(),
		audit:     repositories.NewMockAuditRepository(),
		gateway:   newFakeGateway(),
		notifier:  &recordingNotifier{},
	}
	f.stock = repositories.NewMockStockRepository(f.products)
	f.stockSvc = services.NewStockService(f.stock)

	pricingSvc := pricing.NewService(20, models.NewMoney(0, "USD"))
	f.orderSvc = services.NewOrderService(f.orders, f.products, f.discounts,
		f.audit, f.stockSvc, pricingSvc, f.gateway, f.notifier)
	return f
}

func (f *fixture) seedProduct(t *testing.T, id string, price float64, stock int) {
	t.Helper()
	require.NoError(t, f.products.Create(&models.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromFloat(price),
		Currency: "USD",
		Stock:    stock,
	}))
}

func (f *fixture) product(t *testing.T, id string) *models.Product {
	t.Helper()
	p, err := f.products.GetByID(id)
	require.NoError(t, err)
	return p
}

func cardCheckout(productID string, qty int) services.CreateOrderInput {
	return services.CreateOrderInput{
		CustomerName:    "Ada Lovelace",
		CustomerEmail:   "ada@example.com",
		CustomerAddress: "12 Analytical Way",
		CustomerCity:    "London",
		Items:           []services.CreateOrderItem{{ProductID: productID, Quantity: qty}},
		PaymentMethod:   models.PaymentMethodCard,
	}
}

func TestCreateOrderCardWithoutPaymentID(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)

	order, err := f.orderSvc.CreateOrder(context.Background(), cardCheckout("prod-7", 2))
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, "200.00 USD", order.Total().Format())
	assert.Len(t, order.PaymentDetails.ReservationIDs, 1)

	p := f.product(t, "prod-7")
	assert.Equal(t, 10, p.Stock, "stock is not touched before payment")
	assert.Equal(t, 2, p.ReservedStock)
}

func TestCreateOrderTransferAppliesDiscountAndReserves(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)

	in := cardCheckout("prod-7", 2)
	in.PaymentMethod = models.PaymentMethodTransfer

	order, err := f.orderSvc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "160.00 USD", order.Total().Format())

	p := f.product(t, "prod-7")
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 2, p.ReservedStock)
}

func TestCreateOrderVerifiedApprovedPaymentDecrements(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)
	f.gateway.set(gateway.Payment{ID: "pay-1", Status: gateway.StatusApproved})

	in := cardCheckout("prod-7", 2)
	in.PaymentID = "pay-1"

	order, err := f.orderSvc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Equal(t, "pay-1", order.ExternalPaymentID)
	assert.Equal(t, gateway.StatusApproved, order.ExternalPaymentStatus)

	p := f.product(t, "prod-7")
	assert.Equal(t, 8, p.Stock, "paid orders decrement immediately")
	assert.Equal(t, 0, p.ReservedStock)
}

func TestCreateOrderUnverifiablePaymentIDStaysProcessing(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)
	// No payment seeded: the client-reported id cannot be verified, so the
	// claimed "already paid" state is not trusted.

	in := cardCheckout("prod-7", 1)
	in.PaymentID = "pay-spoofed"

	order, err := f.orderSvc.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Empty(t, order.ExternalPaymentID)
}

func TestCreateOrderExhaustedDiscountRejected(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)
	require.NoError(t, f.discounts.Create(&models.DiscountCode{
		Code: "SAVE10", Percentage: 10, UsageLimit: 5, UsedCount: 5,
	}))

	in := cardCheckout("prod-7", 2)
	in.DiscountCode = "SAVE10"

	_, err := f.orderSvc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, services.ErrDiscountInvalid)

	// No order persisted, no stock touched.
	orders, _ := f.orders.GetAll()
	assert.Empty(t, orders)
	p := f.product(t, "prod-7")
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 0, p.ReservedStock)
}

func TestCreateOrderUnknownDiscountRejected(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)

	in := cardCheckout("prod-7", 1)
	in.DiscountCode = "NOPE"

	_, err := f.orderSvc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, services.ErrDiscountInvalid)
}

func TestCreateOrderDiscountApplied(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)
	require.NoError(t, f.discounts.Create(&models.DiscountCode{
		Code: "SAVE10", Percentage: 10, UsageLimit: 5,
	}))

	in := cardCheckout("prod-7", 2)
	in.DiscountCode = "SAVE10"

	order, err := f.orderSvc.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "180.00 USD", order.Total().Format())

	code, err := f.discounts.GetByCode("SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, code.UsedCount)
}

func TestCreateOrderInsufficientStockReleasesDiscount(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 1)
	require.NoError(t, f.discounts.Create(&models.DiscountCode{
		Code: "SAVE10", Percentage: 10, UsageLimit: 5,
	}))

	in := cardCheckout("prod-7", 2)
	in.DiscountCode = "SAVE10"

	_, err := f.orderSvc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, services.ErrInsufficientStock)

	// The consumed redemption is compensated.
	code, err := f.discounts.GetByCode("SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 0, code.UsedCount)

	orders, _ := f.orders.GetAll()
	assert.Empty(t, orders)
}

func TestCreateOrderNotifierFailureSwallowed(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)
	f.notifier.fail = true

	order, err := f.orderSvc.CreateOrder(context.Background(), cardCheckout("prod-7", 1))
	require.NoError(t, err, "side-effect failures never fail order creation")
	require.NotNil(t, order)

	persisted, err := f.orders.GetByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, persisted.Status)
}

func TestCreateOrderRecordsAuditEntry(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 10)

	order, err := f.orderSvc.CreateOrder(context.Background(), cardCheckout("prod-7", 1))
	require.NoError(t, err)

	entries, err := f.audit.ListByOrder(order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "order.created", entries[0].Event)
}

func TestConcurrentRedemptionsOfSingleUseCode(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 100)
	require.NoError(t, f.discounts.Create(&models.DiscountCode{
		Code: "ONCE", Percentage: 10, UsageLimit: 1,
	}))

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := cardCheckout("prod-7", 1)
			in.DiscountCode = "ONCE"
			_, err := f.orderSvc.CreateOrder(context.Background(), in)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, services.ErrDiscountInvalid):
			rejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes, "exactly one order wins the last redemption")
	assert.Equal(t, attempts-1, rejections)

	code, err := f.discounts.GetByCode("ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, code.UsedCount)
}

func TestConcurrentCheckoutsCannotOversellStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "prod-7", 100, 5)

	const attempts = 10
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orderSvc.CreateOrder(context.Background(), cardCheckout("prod-7", 1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, services.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 5, successes)

	p := f.product(t, "prod-7")
	assert.Equal(t, 5, p.ReservedStock)
	assert.Equal(t, 0, p.Available())
}
