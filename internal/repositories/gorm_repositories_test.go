package repositories_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// openTestDB opens a per-test in-memory SQLite database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.DiscountCode{},
		&models.StockReservation{},
		&models.AuditEntry{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, id string, stock int) {
	t.Helper()
	repo := repositories.NewGORMProductRepository(db)
	require.NoError(t, repo.Create(&models.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    decimal.NewFromInt(100),
		Currency: "USD",
		Stock:    stock,
	}))
}

func TestGORMDiscountRedeemHonorsUsageLimit(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMDiscountRepository(db)
	require.NoError(t, repo.Create(&models.DiscountCode{
		Code: "SAVE10", Percentage: 10, UsageLimit: 2,
	}))

	now := time.Now()
	require.NoError(t, repo.Redeem("SAVE10", now))
	require.NoError(t, repo.Redeem("SAVE10", now))

	err := repo.Redeem("SAVE10", now)
	assert.ErrorIs(t, err, repositories.ErrCodeNotRedeemable)

	code, err := repo.GetByCode("SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 2, code.UsedCount)
}

func TestGORMDiscountRedeemExpired(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMDiscountRepository(db)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(&models.DiscountCode{
		Code: "OLD", Percentage: 10, UsageLimit: 10, ExpiresAt: &past,
	}))

	err := repo.Redeem("OLD", time.Now())
	assert.ErrorIs(t, err, repositories.ErrCodeNotRedeemable)
}

func TestGORMDiscountRedeemUnknown(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMDiscountRepository(db)

	err := repo.Redeem("GHOST", time.Now())
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestGORMDiscountReleaseNeverGoesNegative(t *testing.T) {
	db := openTestDB(t)
	repo := repositories.NewGORMDiscountRepository(db)
	require.NoError(t, repo.Create(&models.DiscountCode{
		Code: "SAVE10", Percentage: 10, UsageLimit: 2,
	}))

	require.NoError(t, repo.Release("SAVE10"))
	code, err := repo.GetByCode("SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 0, code.UsedCount)
}

func TestGORMStockReserveAndCommit(t *testing.T) {
	db := openTestDB(t)
	seedProduct(t, db, "prod-1", 10)
	products := repositories.NewGORMProductRepository(db)
	stock := repositories.NewGORMStockRepository(db)

	items := []models.OrderLineItem{{ProductID: "prod-1", Quantity: 3}}
	reservations, err := stock.Reserve("order-1", items)
	require.NoError(t, err)
	require.Len(t, reservations, 1)

	p, err := products.GetByID("prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 3, p.ReservedStock)

	require.NoError(t, stock.CommitReservations([]string{reservations[0].ID}))

	p, err = products.GetByID("prod-1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, 0, p.ReservedStock, "commit releases the matching hold")

	// Committing again is a no-op.
	require.NoError(t, stock.CommitReservations([]string{reservations[0].ID}))
	p, err = products.GetByID("prod-1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, 0, p.ReservedStock)
}

func TestGORMStockReserveRollsBackOnPartialFailure(t *testing.T) {
	db := openTestDB(t)
	seedProduct(t, db, "prod-1", 10)
	seedProduct(t, db, "prod-2", 1)
	products := repositories.NewGORMProductRepository(db)
	stock := repositories.NewGORMStockRepository(db)

	items := []models.OrderLineItem{
		{ProductID: "prod-1", Quantity: 3},
		{ProductID: "prod-2", Quantity: 5}, // over stock
	}
	_, err := stock.Reserve("order-1", items)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)

	// The first item's hold must have been rolled back with the failure.
	p, err := products.GetByID("prod-1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.ReservedStock)
}

func TestGORMStockReserveRespectsExistingHolds(t *testing.T) {
	db := openTestDB(t)
	seedProduct(t, db, "prod-1", 5)
	stock := repositories.NewGORMStockRepository(db)

	_, err := stock.Reserve("order-1", []models.OrderLineItem{{ProductID: "prod-1", Quantity: 4}})
	require.NoError(t, err)

	// 4 of 5 are held; a second order for 2 must fail.
	_, err = stock.Reserve("order-2", []models.OrderLineItem{{ProductID: "prod-1", Quantity: 2}})
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
}

func TestGORMStockReleaseReservations(t *testing.T) {
	db := openTestDB(t)
	seedProduct(t, db, "prod-1", 10)
	products := repositories.NewGORMProductRepository(db)
	stock := repositories.NewGORMStockRepository(db)

	reservations, err := stock.Reserve("order-1", []models.OrderLineItem{{ProductID: "prod-1", Quantity: 3}})
	require.NoError(t, err)

	require.NoError(t, stock.ReleaseReservations([]string{reservations[0].ID}))
	p, err := products.GetByID("prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 0, p.ReservedStock)
}

func TestGORMOrderUpdateStatusIf(t *testing.T) {
	db := openTestDB(t)
	orders := repositories.NewGORMOrderRepository(db)

	order := &models.Order{
		ID:            "order-1",
		Status:        models.OrderStatusProcessing,
		PaymentMethod: models.PaymentMethodCard,
		Items: []models.OrderLineItem{
			{ProductID: "prod-1", Name: "Widget", UnitPrice: models.NewMoney(100, "USD"), Quantity: 2},
		},
	}
	order.SetTotal(models.NewMoney(200, "USD"))
	require.NoError(t, orders.Create(order))

	// CAS with the right previous status wins.
	swapped, err := orders.UpdateStatusIf("order-1", models.OrderStatusProcessing, models.OrderStatusPaid, "pay-1", "approved")
	require.NoError(t, err)
	assert.True(t, swapped)

	// CAS with a stale previous status loses.
	swapped, err = orders.UpdateStatusIf("order-1", models.OrderStatusProcessing, models.OrderStatusPending, "pay-1", "pending")
	require.NoError(t, err)
	assert.False(t, swapped)

	reloaded, err := orders.GetByID("order-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaid, reloaded.Status)
	assert.Equal(t, "pay-1", reloaded.ExternalPaymentID)
	assert.Equal(t, "approved", reloaded.ExternalPaymentStatus)
}

func TestGORMOrderLineItemsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	orders := repositories.NewGORMOrderRepository(db)

	order := &models.Order{
		ID:     "order-1",
		Status: models.OrderStatusPending,
		Items: []models.OrderLineItem{
			{ProductID: "prod-1", Name: "Widget", UnitPrice: models.NewMoney(19.99, "USD"), Quantity: 3, SelectedOptions: []string{"size-xl"}},
		},
		PaymentDetails: models.PaymentDetails{PaymentID: "pay-7", ReservationIDs: []string{"res-1"}},
	}
	order.SetTotal(models.NewMoney(59.97, "USD"))
	require.NoError(t, orders.Create(order))

	reloaded, err := orders.GetByID("order-1")
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.True(t, reloaded.Items[0].UnitPrice.Equals(models.NewMoney(19.99, "USD")))
	assert.Equal(t, []string{"size-xl"}, reloaded.Items[0].SelectedOptions)
	assert.Equal(t, "59.97 USD", reloaded.Total().Format())
}

func TestGORMOrderFindByPaymentDetailsID(t *testing.T) {
	db := openTestDB(t)
	orders := repositories.NewGORMOrderRepository(db)

	order := &models.Order{
		ID:             "order-1",
		Status:         models.OrderStatusProcessing,
		PaymentDetails: models.PaymentDetails{PaymentID: "pay-42"},
	}
	require.NoError(t, orders.Create(order))

	found, err := orders.FindByPaymentDetailsID("pay-42")
	require.NoError(t, err)
	assert.Equal(t, "order-1", found.ID)

	_, err = orders.FindByPaymentDetailsID("pay-0")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
