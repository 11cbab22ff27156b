package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quanan-pos/api/internal/enum"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pricedLine(price, qty, discount, discountKind string) Line {
	id := uuid.New()
	return Line{
		ProductID:    &id,
		Quantity:     dec(qty),
		UnitPrice:    dec(price),
		Discount:     dec(discount),
		DiscountKind: discountKind,
	}
}

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name         string
		lines        []Line
		discount     string
		discountKind string
		want         string
	}{
		{
			name:  "no discounts",
			lines: []Line{pricedLine("10", "2", "0", enum.DiscountKindPercent)},
			want:  "20",
		},
		{
			name:  "line percent discount",
			lines: []Line{pricedLine("10", "2", "10", enum.DiscountKindPercent)},
			want:  "18",
		},
		{
			name:  "line amount discount",
			lines: []Line{pricedLine("10", "2", "2", enum.DiscountKindAmount)},
			want:  "18",
		},
		{
			name: "toppings are not discounted",
			lines: func() []Line {
				line := pricedLine("10", "2", "50", enum.DiscountKindPercent)
				line.Toppings = []Topping{{ProductID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("3")}}
				return []Line{line}
			}(),
			want: "13",
		},
		{
			name: "order discount applies after line discounts",
			lines: []Line{
				pricedLine("10", "2", "10", enum.DiscountKindPercent),
				pricedLine("5", "1", "0", enum.DiscountKindPercent),
			},
			discount:     "50",
			discountKind: enum.DiscountKindPercent,
			want:         "11.5",
		},
		{
			name:         "order amount discount",
			lines:        []Line{pricedLine("10", "2", "0", enum.DiscountKindPercent)},
			discount:     "3",
			discountKind: enum.DiscountKindAmount,
			want:         "17",
		},
		{
			name:  "rounds only at the end",
			lines: []Line{pricedLine("3.333", "3", "0", enum.DiscountKindPercent)},
			want:  "10",
		},
		{
			name:         "fractional percent keeps full precision until the end",
			lines:        []Line{pricedLine("9.99", "3", "0", enum.DiscountKindPercent)},
			discount:     "33.33",
			discountKind: enum.DiscountKindPercent,
			want:         "19.98",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount := decimal.Zero
			if tt.discount != "" {
				discount = dec(tt.discount)
			}
			kind := tt.discountKind
			if kind == "" {
				kind = enum.DiscountKindPercent
			}
			got := ComputeTotal(tt.lines, discount, kind)
			if !got.Equal(dec(tt.want)) {
				t.Fatalf("ComputeTotal = %s, want %s", got, tt.want)
			}
		})
	}
}
