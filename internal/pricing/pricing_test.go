package pricing

import (
	"testing"

	"github.com/mealkitshop/order-core/internal/domain"
)

func lines(subtotals ...int64) []domain.OrderLine {
	var ls []domain.OrderLine
	for _, s := range subtotals {
		ls = append(ls, domain.OrderLine{Quantity: 1, UnitPrice: s, Subtotal: s})
	}
	return ls
}

func TestCalculate(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name       string
		subtotals  []int64
		grade      domain.Grade
		postalCode string
		want       Quote
	}{
		{
			name:      "vip ten percent free shipping",
			subtotals: []int64{60_000, 40_000},
			grade:     domain.GradeVIP,
			want:      Quote{ProductsTotal: 100_000, DiscountTotal: 10_000, ShippingFee: 0, PayableAmount: 90_000},
		},
		{
			name:      "gold seven percent",
			subtotals: []int64{100_000},
			grade:     domain.GradeGold,
			want:      Quote{ProductsTotal: 100_000, DiscountTotal: 7_000, ShippingFee: 0, PayableAmount: 93_000},
		},
		{
			name:      "bronze small order surcharge",
			subtotals: []int64{20_000},
			grade:     domain.GradeBronze,
			want:      Quote{ProductsTotal: 20_000, DiscountTotal: 0, ShippingFee: 3_000, PayableAmount: 23_000},
		},
		{
			name:       "remote destination surcharge",
			subtotals:  []int64{60_000},
			grade:      domain.GradeBronze,
			postalCode: "63025",
			want:       Quote{ProductsTotal: 60_000, DiscountTotal: 0, ShippingFee: 5_000, PayableAmount: 65_000},
		},
		{
			name:       "small order to remote destination stacks both fees",
			subtotals:  []int64{20_000},
			grade:      domain.GradeBronze,
			postalCode: "63900",
			want:       Quote{ProductsTotal: 20_000, DiscountTotal: 0, ShippingFee: 8_000, PayableAmount: 28_000},
		},
		{
			name:       "vip overrides every surcharge",
			subtotals:  []int64{10_000},
			grade:      domain.GradeVIP,
			postalCode: "63001",
			want:       Quote{ProductsTotal: 10_000, DiscountTotal: 1_000, ShippingFee: 0, PayableAmount: 9_000},
		},
		{
			name:      "silver discount lands exactly on the threshold",
			subtotals: []int64{52_632},
			grade:     domain.GradeSilver,
			// 5% of 52,632 is 2,631.6, rounded half-up to 2,632;
			// 50,000 after discount is not below the threshold.
			want: Quote{ProductsTotal: 52_632, DiscountTotal: 2_632, ShippingFee: 0, PayableAmount: 50_000},
		},
		{
			name:      "just under the threshold after discount",
			subtotals: []int64{52_631},
			grade:     domain.GradeSilver,
			// 5% of 52,631 is 2,631.55, rounded half-up to 2,632.
			want: Quote{ProductsTotal: 52_631, DiscountTotal: 2_632, ShippingFee: 3_000, PayableAmount: 52_999},
		},
		{
			name:      "empty order",
			subtotals: nil,
			grade:     domain.GradeBronze,
			want:      Quote{},
		},
		{
			name:      "unknown grade gets no discount",
			subtotals: []int64{30_000},
			grade:     domain.Grade("PLATINUM"),
			want:      Quote{ProductsTotal: 30_000, DiscountTotal: 0, ShippingFee: 3_000, PayableAmount: 33_000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(cfg, lines(tt.subtotals...), tt.grade, tt.postalCode)
			if got != tt.want {
				t.Errorf("Calculate() = %+v, want %+v", got, tt.want)
			}
			if got.PayableAmount != got.ProductsTotal-got.DiscountTotal+got.ShippingFee {
				t.Errorf("payable amount identity violated: %+v", got)
			}
			if got.DiscountTotal < 0 || got.DiscountTotal > got.ProductsTotal {
				t.Errorf("discount outside [0, productsTotal]: %+v", got)
			}
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		total, percent, want int64
	}{
		{100, 10, 10},
		{105, 10, 11},   // 10.5 rounds up
		{104, 10, 10},   // 10.4 rounds down
		{1, 5, 0},       // 0.05 rounds down
		{10, 5, 1},      // 0.5 rounds up
		{99_999, 7, 7000}, // 6999.93
		{0, 10, 0},
	}
	for _, tt := range tests {
		if got := roundHalfUpPercent(tt.total, tt.percent); got != tt.want {
			t.Errorf("roundHalfUpPercent(%d, %d) = %d, want %d", tt.total, tt.percent, got, tt.want)
		}
	}
}

func TestDiscountClamp(t *testing.T) {
	cfg := Config{
		DiscountPercent: map[domain.Grade]int64{domain.GradeVIP: 200},
	}
	got := Calculate(cfg, lines(1_000), domain.GradeVIP, "")
	if got.DiscountTotal != 1_000 {
		t.Errorf("discount not clamped to products total: %+v", got)
	}
	if got.PayableAmount != 0 {
		t.Errorf("expected zero payable after full discount: %+v", got)
	}
}
