package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
)

// Checkout turns a plan selection plus billing details into a confirmed
// remote payment method, a remote subscription, and exactly one local
// subscription record. Steps run strictly in order; each one is a hard
// dependency on the previous succeeding.
type Checkout struct {
	gateway Gateway
	subs    repository.SubscriptionRepository
}

// NewCheckout creates a checkout orchestrator.
func NewCheckout(gateway Gateway, subs repository.SubscriptionRepository) *Checkout {
	return &Checkout{gateway: gateway, subs: subs}
}

// Run executes one checkout attempt.
//
// Error semantics: a supplied-but-invalid coupon aborts with *CouponError
// (recoverable; the caller may retry with a different code or resubmit
// without one). Payment-method or subscription-creation failures abort with
// the provider message and nothing local is written. A local write failure
// after the remote subscription exists returns *LocalMirrorError carrying
// the remote ids; nothing remote is rolled back.
func (c *Checkout) Run(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.UserID == 0 || strings.TrimSpace(in.PlanID) == "" || strings.TrimSpace(in.PaymentMethodID) == "" {
		return nil, fmt.Errorf("%w: userId, planId and paymentMethodId are required", ErrInvalidArgument)
	}

	// Step 1: optional coupon validation.
	var coupon *Coupon
	finalPrice := in.OriginalPrice
	var discount int64
	if NormalizeCouponCode(in.CouponCode) != "" {
		result := ValidateCoupon(ctx, c.gateway, in.CouponCode, in.PlanID, in.UserID)
		if !result.Valid {
			return nil, &CouponError{Reason: result.Err}
		}
		coupon = result.Coupon
		finalPrice, discount = ComputeFinalPrice(in.OriginalPrice, coupon)
	}

	// Step 2: confirm the payment method against a provider customer. A prior
	// local record pins the customer, so the method is attached to it instead
	// of minting a duplicate customer per checkout attempt; first-time buyers
	// get a fresh customer with the method attached as default. The card was
	// tokenized client-side; a decline surfaces here with the provider's
	// message, verbatim.
	var customerID string
	if prior, err := c.subs.GetByUserID(in.UserID); err == nil && prior.StripeCustomerID != "" {
		if _, err := c.gateway.AttachPaymentMethod(ctx, in.PaymentMethodID, prior.StripeCustomerID); err != nil {
			return nil, err
		}
		customerID = prior.StripeCustomerID
	} else {
		customerName := strings.TrimSpace(in.Billing.FirstName + " " + in.Billing.LastName)
		if customerName == "" {
			customerName = in.Billing.NameOnCard
		}
		customer, err := c.gateway.CreateCustomer(ctx, customerName, in.UserEmail, in.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		customerID = customer.ID
	}

	// Step 3: create the remote subscription. No rollback of the customer or
	// payment method on failure; they are harmless orphans on the provider.
	couponID := ""
	if coupon != nil {
		couponID = coupon.ID
	}
	remoteSub, err := c.gateway.CreateSubscription(ctx, customerID, in.PlanID, couponID, in.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	// Step 4: replace any prior local records with exactly one new row.
	record := &models.Subscription{
		UserID:               in.UserID,
		PlanID:               in.PlanID,
		Status:               models.SubscriptionStatusActive,
		PaymentMethod:        in.PaymentMethodID,
		StripeSubscriptionID: remoteSub.ID,
		StripeCustomerID:     customerID,
		CouponUsed:           couponID,
		OriginalPrice:        in.OriginalPrice,
		FinalPrice:           finalPrice,
		DiscountAmount:       discount,
		BillingDetails:       in.Billing,
	}
	if err := c.subs.ReplaceForUser(in.UserID, record); err != nil {
		log.Errorf("[Billing] checkout for user %d: remote subscription %s created but local mirror write failed: %v",
			in.UserID, remoteSub.ID, err)
		return nil, &LocalMirrorError{SubscriptionID: remoteSub.ID, CustomerID: customerID, Err: err}
	}

	// Step 5: completion is signalled by the caller (redirect or structured
	// host-shell message); the result carries everything it needs.
	return &CheckoutResult{Subscription: record, CouponApplied: coupon}, nil
}

// IsRecoverable reports whether a checkout error allows the user to fix
// input and retry within the same session.
func IsRecoverable(err error) bool {
	var ce *CouponError
	return errors.As(err, &ce)
}
