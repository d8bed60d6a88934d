package billing

import (
	"context"
	"math"
	"strings"
)

// NormalizeCouponCode trims and case-normalizes a user-entered code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCoupon resolves a user-entered code against the billing provider.
// A rejected or unknown code yields Valid=false with a reason, never an
// error return; only transport-level context cancellation is impossible to
// distinguish from rejection here, which matches the try-once semantics.
func ValidateCoupon(ctx context.Context, gateway Gateway, code, planID string, userID uint) CouponResult {
	normalized := NormalizeCouponCode(code)
	if normalized == "" || planID == "" || userID == 0 {
		return CouponResult{Valid: false, Err: "couponCode, planId and userId are required"}
	}

	c, err := gateway.GetCoupon(ctx, normalized)
	if err != nil {
		return CouponResult{Valid: false, Err: err.Error()}
	}
	if c == nil || !c.Valid {
		return CouponResult{Valid: false, Err: "coupon is no longer valid"}
	}

	coupon := &Coupon{
		ID:         c.ID,
		PercentOff: c.PercentOff,
		AmountOff:  c.AmountOff,
		Currency:   string(c.Currency),
		Name:       c.Name,
		Duration:   string(c.Duration),
	}
	return CouponResult{Valid: true, Coupon: coupon}
}

// ComputeFinalPrice applies a coupon to a price in cents. Percentage
// discounts are rounded to the nearest cent; the result is clamped at zero.
// Returns the final price and the discount actually applied.
func ComputeFinalPrice(originalPrice int64, coupon *Coupon) (finalPrice, discount int64) {
	if coupon == nil || originalPrice <= 0 {
		if originalPrice < 0 {
			originalPrice = 0
		}
		return originalPrice, 0
	}

	if coupon.PercentOff > 0 {
		discount = int64(math.Round(float64(originalPrice) * coupon.PercentOff / 100))
	} else {
		discount = coupon.AmountOff
	}

	finalPrice = originalPrice - discount
	if finalPrice < 0 {
		finalPrice = 0
	}
	return finalPrice, originalPrice - finalPrice
}
