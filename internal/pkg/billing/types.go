package billing

import (
	"errors"
	"fmt"

	"github.com/boxbinhq/boxbin/app/models"
)

// ErrInvalidArgument marks a request rejected before any provider call.
var ErrInvalidArgument = errors.New("invalid argument")

// Coupon is the discount descriptor returned by coupon validation. Exactly
// one of PercentOff / AmountOff is set.
type Coupon struct {
	ID         string  `json:"id"`
	PercentOff float64 `json:"percent_off,omitempty"`
	AmountOff  int64   `json:"amount_off,omitempty"`
	Currency   string  `json:"currency,omitempty"`
	Name       string  `json:"name,omitempty"`
	Duration   string  `json:"duration"`
}

// CouponResult is the outcome of a server-side coupon validation. Never
// persisted; it lives for the duration of one checkout session.
type CouponResult struct {
	Valid  bool    `json:"valid"`
	Coupon *Coupon `json:"coupon,omitempty"`
	Err    string  `json:"error,omitempty"`
}

// CheckoutInput carries everything one checkout attempt needs. The payment
// method id was produced client-side with the publishable key; the secret key
// never leaves this package.
type CheckoutInput struct {
	UserID          uint
	UserEmail       string
	PlanID          string
	OriginalPrice   int64
	PaymentMethodID string
	CouponCode      string
	Billing         models.BillingDetails
}

// CheckoutResult is returned on full success: the local mirror row plus the
// coupon actually applied, if any.
type CheckoutResult struct {
	Subscription  *models.Subscription
	CouponApplied *Coupon
}

// CouponError is a recoverable checkout error: the code was rejected, the
// user may retry with another code or proceed without one.
type CouponError struct {
	Reason string
}

func (e *CouponError) Error() string {
	return "invalid coupon: " + e.Reason
}

// LocalMirrorError reports that the remote subscription was created but the
// local record write failed. The remote ids are preserved so the state can be
// reconciled manually; nothing is rolled back.
type LocalMirrorError struct {
	SubscriptionID string
	CustomerID     string
	Err            error
}

func (e *LocalMirrorError) Error() string {
	return fmt.Sprintf("subscription %s created but local record failed: %v", e.SubscriptionID, e.Err)
}

func (e *LocalMirrorError) Unwrap() error {
	return e.Err
}

// PlanDetails describes a purchasable price with its product, as exposed by
// the privileged plan lookup.
type PlanDetails struct {
	PriceID    string         `json:"priceId"`
	UnitAmount int64          `json:"unit_amount"`
	Currency   string         `json:"currency"`
	Recurring  *PlanRecurring `json:"recurring,omitempty"`
	Product    PlanProduct    `json:"product"`
}

// PlanRecurring mirrors the price recurrence.
type PlanRecurring struct {
	Interval      string `json:"interval"`
	IntervalCount int64  `json:"interval_count"`
}

// PlanProduct mirrors the product behind a price.
type PlanProduct struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}
