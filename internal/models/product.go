package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OptionValue is one selectable value of a product option, e.g. size "XL".
// The price modifier is applied per unit on top of the base price.
type OptionValue struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	PriceModifier   float64 `json:"price_modifier"`
	LinkedProductID string  `json:"linked_product_id,omitempty"`
}

// ProductOption groups option values under a name, e.g. "Size".
type ProductOption struct {
	Name   string        `json:"name"`
	Values []OptionValue `json:"values"`
}

// Promotion is a time-bounded percentage discount attached to a product.
type Promotion struct {
	Active             bool       `json:"active"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	DiscountPercentage float64    `json:"discount_percentage"`
}

// Product represents a catalog product. The catalog is authoritative for
// price and stock; order and pricing code only read snapshots of it at
// computation time and never cache prices beyond a single request.
type Product struct {
	ID               string           `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name             string           `json:"name" validate:"required,min=1,max=200"`
	Description      string           `json:"description" validate:"omitempty,max=1000"`
	Price            decimal.Decimal  `json:"price" gorm:"type:decimal(12,2)" validate:"required"`
	PromotionalPrice *decimal.Decimal `json:"promotional_price,omitempty" gorm:"type:decimal(12,2)"`
	Currency         string           `json:"currency" gorm:"type:varchar(3)"`
	Promotion        *Promotion       `json:"promotion,omitempty" gorm:"serializer:json"`
	Stock            int              `json:"stock" validate:"gte=0"`
	ReservedStock    int              `json:"reserved_stock" validate:"gte=0"`
	Options          []ProductOption  `json:"options,omitempty" gorm:"serializer:json"`
	gorm.Model       `json:"-"`
}

// ListPrice returns the regular listed price.
func (p *Product) ListPrice() Money {
	return NewMoneyFromDecimal(p.Price, p.Currency)
}

// Available returns the quantity that can still be sold: stock minus
// reserved, clamped at zero so callers never see a negative availability.
func (p *Product) Available() int {
	available := p.Stock - p.ReservedStock
	if available < 0 {
		return 0
	}
	return available
}

// PromotionActive reports whether the product should be priced
// promotionally right now: a promotional price or percentage promotion must
// exist, and when a time-bounded promotion is attached it must be active
// and inside its window.
func (p *Product) PromotionActive(now time.Time) bool {
	if p.PromotionalPrice == nil && (p.Promotion == nil || !p.Promotion.Active) {
		return false
	}
	if p.Promotion != nil {
		if !p.Promotion.Active {
			return false
		}
		if p.Promotion.StartDate != nil && now.Before(*p.Promotion.StartDate) {
			return false
		}
		if p.Promotion.EndDate != nil && now.After(*p.Promotion.EndDate) {
			return false
		}
	}
	return true
}

// PromoPrice returns the effective promotional unit price. An explicit
// percentage promotion overrides the stored promotional price.
func (p *Product) PromoPrice() Money {
	if p.Promotion != nil && p.Promotion.Active && p.Promotion.DiscountPercentage > 0 {
		list := p.ListPrice()
		promo, _ := list.Subtract(list.Percentage(p.Promotion.DiscountPercentage))
		return promo
	}
	if p.PromotionalPrice != nil {
		return NewMoneyFromDecimal(*p.PromotionalPrice, p.Currency)
	}
	return p.ListPrice()
}

// DiscountPercentage returns the rounded percentage saved by the current
// promotional price relative to the listed price, or 0 when there is no
// effective discount.
func (p *Product) DiscountPercentage(now time.Time) int {
	if !p.PromotionActive(now) {
		return 0
	}
	regular := p.Price
	promo := p.PromoPrice().Amount()
	if regular.IsZero() || promo.GreaterThanOrEqual(regular) {
		return 0
	}
	ratio, _ := regular.Sub(promo).Div(regular).Float64()
	return int(math.Round(ratio * 100))
}

// FindOptionValue resolves a client-supplied option value id against the
// product definition. Client-supplied price modifiers are never trusted;
// only values resolved here contribute to the price.
func (p *Product) FindOptionValue(valueID string) (OptionValue, bool) {
	for _, opt := range p.Options {
		for _, v := range opt.Values {
			if v.ID == valueID {
				return v, true
			}
		}
	}
	return OptionValue{}, false
}
