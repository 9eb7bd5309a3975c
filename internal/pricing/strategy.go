package pricing

import (
	"time"

	"storefront/internal/models"
)

// Strategy identifies one of the closed set of pricing algorithms. There is
// no runtime registration; SelectStrategy is the only place a strategy is
// chosen.
type Strategy int

const (
	// StrategyRegular prices at the listed price.
	StrategyRegular Strategy = iota
	// StrategyPromotional prices at the promotional price (or the listed
	// price reduced by an explicit percentage promotion).
	StrategyPromotional
	// StrategyTransfer applies the payment-method incentive on top of the
	// regular or promotional base.
	StrategyTransfer
)

func (s Strategy) String() string {
	switch s {
	case StrategyPromotional:
		return "promotional"
	case StrategyTransfer:
		return "transfer"
	default:
		return "regular"
	}
}

// Context is the input to a pricing computation: the product snapshot, the
// requested quantity and the chosen payment method.
type Context struct {
	Product       *models.Product
	Quantity      int
	PaymentMethod string
	Now           time.Time
}

// SelectStrategy decides which strategy prices the given context. The
// transfer incentive wraps whichever base strategy applies, so it wins the
// selection; the base is re-derived inside the computation.
func SelectStrategy(ctx Context) Strategy {
	if ctx.PaymentMethod == models.PaymentMethodTransfer {
		return StrategyTransfer
	}
	return baseStrategy(ctx)
}

func baseStrategy(ctx Context) Strategy {
	if ctx.Product.PromotionActive(ctx.Now) {
		return StrategyPromotional
	}
	return StrategyRegular
}

// baseUnitPrice returns the per-unit price before option modifiers and
// payment-method incentives.
func baseUnitPrice(ctx Context) models.Money {
	if baseStrategy(ctx) == StrategyPromotional {
		return ctx.Product.PromoPrice()
	}
	return ctx.Product.ListPrice()
}
