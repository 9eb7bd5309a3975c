package models_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestProductAvailableClampsAtZero(t *testing.T) {
	p := models.Product{Stock: 5, ReservedStock: 2}
	assert.Equal(t, 3, p.Available())

	// Over-reserved rows must never report negative availability.
	p = models.Product{Stock: 2, ReservedStock: 5}
	assert.Equal(t, 0, p.Available())
}

func TestProductPromotionActive(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name    string
		product models.Product
		want    bool
	}{
		{
			name:    "no promotion",
			product: models.Product{Price: decimal.NewFromInt(100)},
			want:    false,
		},
		{
			name: "promotional price without window",
			product: models.Product{
				Price:            decimal.NewFromInt(100),
				PromotionalPrice: decPtr(80),
			},
			want: true,
		},
		{
			name: "active windowed promotion",
			product: models.Product{
				Price:            decimal.NewFromInt(100),
				PromotionalPrice: decPtr(80),
				Promotion:        &models.Promotion{Active: true, StartDate: &past, EndDate: &future},
			},
			want: true,
		},
		{
			name: "expired window",
			product: models.Product{
				Price:            decimal.NewFromInt(100),
				PromotionalPrice: decPtr(80),
				Promotion:        &models.Promotion{Active: true, EndDate: &past},
			},
			want: false,
		},
		{
			name: "window not started",
			product: models.Product{
				Price:            decimal.NewFromInt(100),
				PromotionalPrice: decPtr(80),
				Promotion:        &models.Promotion{Active: true, StartDate: &future},
			},
			want: false,
		},
		{
			name: "inactive promotion flag",
			product: models.Product{
				Price:            decimal.NewFromInt(100),
				PromotionalPrice: decPtr(80),
				Promotion:        &models.Promotion{Active: false},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.PromotionActive(now))
		})
	}
}

func TestProductDiscountPercentage(t *testing.T) {
	p := models.Product{
		Price:            decimal.NewFromInt(100),
		PromotionalPrice: decPtr(75),
		Currency:         "USD",
	}
	assert.Equal(t, 25, p.DiscountPercentage(time.Now()))

	// Rounded, not truncated: (100-66.67)/100 = 33.33% -> 33.
	p.PromotionalPrice = decPtr(66.67)
	assert.Equal(t, 33, p.DiscountPercentage(time.Now()))

	// No promotion means no discount.
	p.PromotionalPrice = nil
	assert.Equal(t, 0, p.DiscountPercentage(time.Now()))
}

func TestProductPercentagePromotionOverridesPromoPrice(t *testing.T) {
	p := models.Product{
		Price:            decimal.NewFromInt(200),
		PromotionalPrice: decPtr(150),
		Currency:         "USD",
		Promotion:        &models.Promotion{Active: true, DiscountPercentage: 10},
	}
	// 200 - 10% = 180, overriding the stored 150.
	assert.Equal(t, "180.00 USD", p.PromoPrice().Format())
}

func TestProductFindOptionValue(t *testing.T) {
	p := models.Product{
		Options: []models.ProductOption{
			{Name: "Size", Values: []models.OptionValue{
				{ID: "size-m", Label: "M"},
				{ID: "size-xl", Label: "XL", PriceModifier: 5},
			}},
		},
	}

	v, ok := p.FindOptionValue("size-xl")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v.PriceModifier)

	_, ok = p.FindOptionValue("size-xxl")
	assert.False(t, ok)
}
