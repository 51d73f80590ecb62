// Package pricing derives the money fields of an order from its lines,
// the member's grade and the destination. It is a pure calculation:
// no I/O, integer arithmetic only, so totals are bit-reproducible.
package pricing

import (
	"strings"

	"github.com/mealkitshop/order-core/internal/domain"
)

// Config carries every pricing constant. Values live here instead of in
// the calculation so tests and future policy changes stay in one place.
type Config struct {
	// DiscountPercent maps a member grade to its whole-number discount
	// percentage on the products total.
	DiscountPercent map[domain.Grade]int64

	// SmallOrderThreshold: orders whose discounted products total is
	// positive and below this get SmallOrderFee added to shipping.
	SmallOrderThreshold int64
	SmallOrderFee       int64

	// RemotePostalPrefixes: destinations whose postal code starts with
	// one of these get RemoteAreaFee added to shipping.
	RemotePostalPrefixes []string
	RemoteAreaFee        int64

	// FreeShippingGrade pays no shipping fee at all.
	FreeShippingGrade domain.Grade
}

func DefaultConfig() Config {
	return Config{
		DiscountPercent: map[domain.Grade]int64{
			domain.GradeVIP:    10,
			domain.GradeGold:   7,
			domain.GradeSilver: 5,
			domain.GradeBronze: 0,
		},
		SmallOrderThreshold:  50_000,
		SmallOrderFee:        3_000,
		RemotePostalPrefixes: []string{"63"},
		RemoteAreaFee:        5_000,
		FreeShippingGrade:    domain.GradeVIP,
	}
}

// Quote is the calculator's output. The order aggregate persists these
// four fields verbatim; recomputing them from the persisted lines must
// reproduce the same values.
type Quote struct {
	ProductsTotal int64 `json:"products_total"`
	DiscountTotal int64 `json:"discount_total"`
	ShippingFee   int64 `json:"shipping_fee"`
	PayableAmount int64 `json:"payable_amount"`
}

// Calculate prices the given order lines for a member of the given
// grade shipping to postalCode.
func Calculate(cfg Config, lines []domain.OrderLine, grade domain.Grade, postalCode string) Quote {
	var products int64
	for _, l := range lines {
		products += l.Subtotal
	}

	discount := roundHalfUpPercent(products, cfg.DiscountPercent[grade])
	if discount < 0 {
		discount = 0
	}
	if discount > products {
		discount = products
	}

	afterDiscount := products - discount

	var shipping int64
	if afterDiscount > 0 && afterDiscount < cfg.SmallOrderThreshold {
		shipping += cfg.SmallOrderFee
	}
	for _, prefix := range cfg.RemotePostalPrefixes {
		if prefix != "" && strings.HasPrefix(postalCode, prefix) {
			shipping += cfg.RemoteAreaFee
			break
		}
	}
	if grade == cfg.FreeShippingGrade {
		shipping = 0
	}

	return Quote{
		ProductsTotal: products,
		DiscountTotal: discount,
		ShippingFee:   shipping,
		PayableAmount: afterDiscount + shipping,
	}
}

// roundHalfUpPercent computes total*percent/100 rounded half-up, the
// same result Math.round gives for non-negative inputs, without going
// through floating point.
func roundHalfUpPercent(total, percent int64) int64 {
	return (total*percent + 50) / 100
}
