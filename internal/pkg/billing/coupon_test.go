package billing

import (
	"context"
	"testing"

	"github.com/stripe/stripe-go/v82"
)

func TestNormalizeCouponCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  save20 ", want: "SAVE20"},
		{in: "Save20", want: "SAVE20"},
		{in: "   ", want: ""},
	}
	for _, tt := range tests {
		if got := NormalizeCouponCode(tt.in); got != tt.want {
			t.Fatalf("NormalizeCouponCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComputeFinalPrice(t *testing.T) {
	tests := []struct {
		name         string
		price        int64
		coupon       *Coupon
		wantFinal    int64
		wantDiscount int64
	}{
		{name: "twenty percent off 2999", price: 2999, coupon: &Coupon{PercentOff: 20}, wantFinal: 2399, wantDiscount: 600},
		{name: "twenty percent off 1000", price: 1000, coupon: &Coupon{PercentOff: 20}, wantFinal: 800, wantDiscount: 200},
		{name: "fixed 500 off 2999", price: 2999, coupon: &Coupon{AmountOff: 500}, wantFinal: 2499, wantDiscount: 500},
		{name: "amount off exceeds price clamps at zero", price: 2999, coupon: &Coupon{AmountOff: 5000}, wantFinal: 0, wantDiscount: 2999},
		{name: "hundred percent off", price: 1234, coupon: &Coupon{PercentOff: 100}, wantFinal: 0, wantDiscount: 1234},
		{name: "nil coupon", price: 2999, coupon: nil, wantFinal: 2999, wantDiscount: 0},
		{name: "zero price", price: 0, coupon: &Coupon{PercentOff: 50}, wantFinal: 0, wantDiscount: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, discount := ComputeFinalPrice(tt.price, tt.coupon)
			if final != tt.wantFinal || discount != tt.wantDiscount {
				t.Fatalf("ComputeFinalPrice(%d) = (%d, %d), want (%d, %d)",
					tt.price, final, discount, tt.wantFinal, tt.wantDiscount)
			}
		})
	}
}

func TestValidateCoupon_Valid(t *testing.T) {
	gw := &fakeGateway{
		coupon: &stripe.Coupon{
			ID:         "SAVE20",
			Valid:      true,
			PercentOff: 20,
			Name:       "Launch discount",
			Duration:   stripe.CouponDurationOnce,
		},
	}

	result := ValidateCoupon(context.Background(), gw, " save20 ", "price_basic", 1)
	if !result.Valid {
		t.Fatalf("expected valid coupon, got error %q", result.Err)
	}
	if result.Coupon.ID != "SAVE20" || result.Coupon.PercentOff != 20 {
		t.Fatalf("unexpected coupon mapping %+v", result.Coupon)
	}
}

func TestValidateCoupon_Rejected(t *testing.T) {
	gw := &fakeGateway{couponErr: errProviderDown}
	result := ValidateCoupon(context.Background(), gw, "NOPE", "price_basic", 1)
	if result.Valid {
		t.Fatalf("expected rejection when lookup fails")
	}
	if result.Err == "" {
		t.Fatalf("expected a reason on rejection")
	}
}

func TestValidateCoupon_ExpiredCoupon(t *testing.T) {
	gw := &fakeGateway{coupon: &stripe.Coupon{ID: "OLD", Valid: false}}
	result := ValidateCoupon(context.Background(), gw, "OLD", "price_basic", 1)
	if result.Valid {
		t.Fatalf("expected invalid result for expired coupon")
	}
}

func TestValidateCoupon_MissingArguments(t *testing.T) {
	gw := &fakeGateway{}
	if result := ValidateCoupon(context.Background(), gw, "", "price_basic", 1); result.Valid {
		t.Fatalf("expected rejection for empty code")
	}
	if result := ValidateCoupon(context.Background(), gw, "SAVE20", "", 1); result.Valid {
		t.Fatalf("expected rejection for empty plan")
	}
	if result := ValidateCoupon(context.Background(), gw, "SAVE20", "price_basic", 0); result.Valid {
		t.Fatalf("expected rejection for missing user")
	}
}
