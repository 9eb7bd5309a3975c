package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// stockRepoMock is a testify mock of StockRepository for delegation tests;
// the behavioral stock tests use the in-memory repository instead.
type stockRepoMock struct {
	mock.Mock
}

func (m *stockRepoMock) Reserve(orderID string, items []models.OrderLineItem) ([]models.StockReservation, error) {
	args := m.Called(orderID, items)
	if res := args.Get(0); res != nil {
		return res.([]models.StockReservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stockRepoMock) Decrement(orderID string, items []models.OrderLineItem) error {
	return m.Called(orderID, items).Error(0)
}

func (m *stockRepoMock) CommitReservations(ids []string) error {
	return m.Called(ids).Error(0)
}

func (m *stockRepoMock) ReleaseReservations(ids []string) error {
	return m.Called(ids).Error(0)
}

func (m *stockRepoMock) Restock(orderID string, items []models.OrderLineItem) error {
	return m.Called(orderID, items).Error(0)
}

func TestStockServiceReserveReturnsReservationIDs(t *testing.T) {
	repo := new(stockRepoMock)
	items := []models.OrderLineItem{{ProductID: "prod-1", Quantity: 2}}
	repo.On("Reserve", "order-1", items).Return([]models.StockReservation{
		{ID: "res-1", OrderID: "order-1", ProductID: "prod-1", Quantity: 2},
	}, nil)

	svc := services.NewStockService(repo)
	ids, err := svc.Reserve("order-1", items)
	require.NoError(t, err)
	assert.Equal(t, []string{"res-1"}, ids)
	repo.AssertExpectations(t)
}

func TestStockServiceReserveWrapsRepositoryError(t *testing.T) {
	repo := new(stockRepoMock)
	items := []models.OrderLineItem{{ProductID: "prod-1", Quantity: 9}}
	repo.On("Reserve", "order-1", items).Return(nil, repositories.ErrInsufficientStock)

	svc := services.NewStockService(repo)
	_, err := svc.Reserve("order-1", items)
	assert.ErrorIs(t, err, repositories.ErrInsufficientStock)
}

func TestStockServiceCommitAndReleaseSkipEmptyIDLists(t *testing.T) {
	repo := new(stockRepoMock)
	svc := services.NewStockService(repo)

	require.NoError(t, svc.CommitReservations(nil))
	require.NoError(t, svc.ReleaseReservations(nil))

	repo.AssertNotCalled(t, "CommitReservations", mock.Anything)
	repo.AssertNotCalled(t, "ReleaseReservations", mock.Anything)
}
