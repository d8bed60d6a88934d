package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v82"

	"github.com/boxbinhq/boxbin/app/models"
)

func validCheckoutInput() CheckoutInput {
	return CheckoutInput{
		UserID:          1,
		UserEmail:       "u1@example.com",
		PlanID:          "price_basic",
		OriginalPrice:   1000,
		PaymentMethodID: "pm_card_visa",
		Billing: models.BillingDetails{
			FirstName:  "Ada",
			LastName:   "Lovelace",
			Address:    "12 Example St",
			City:       "Springfield",
			State:      "IL",
			ZipCode:    "62704",
			NameOnCard: "Ada Lovelace",
		},
	}
}

func TestCheckout_FullFlowWithCoupon(t *testing.T) {
	gw := &fakeGateway{
		coupon: &stripe.Coupon{ID: "SAVE20", Valid: true, PercentOff: 20, Duration: stripe.CouponDurationOnce},
	}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	in := validCheckoutInput()
	in.CouponCode = "save20"

	result, err := co.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if result.Subscription.FinalPrice != 800 || result.Subscription.DiscountAmount != 200 {
		t.Fatalf("expected 1000 - 20%% = 800 with 200 discount, got final=%d discount=%d",
			result.Subscription.FinalPrice, result.Subscription.DiscountAmount)
	}
	if result.CouponApplied == nil || result.CouponApplied.ID != "SAVE20" {
		t.Fatalf("expected SAVE20 applied, got %+v", result.CouponApplied)
	}
	if gw.lastCouponID != "SAVE20" {
		t.Fatalf("expected coupon forwarded to provider, got %q", gw.lastCouponID)
	}
	if gw.lastCustomerID != "cus_test" || gw.lastPaymentID != "pm_card_visa" {
		t.Fatalf("unexpected provider wiring: customer=%q pm=%q", gw.lastCustomerID, gw.lastPaymentID)
	}

	count, _ := repo.CountForUser(1)
	if count != 1 {
		t.Fatalf("expected exactly one local record, got %d", count)
	}
	stored, _ := repo.GetByUserID(1)
	if stored.StripeSubscriptionID != "sub_test" || stored.StripeCustomerID != "cus_test" {
		t.Fatalf("local mirror missing remote ids: %+v", stored)
	}
	if stored.Status != models.SubscriptionStatusActive {
		t.Fatalf("expected active local record, got %q", stored.Status)
	}
}

func TestCheckout_NoCoupon(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	result, err := co.Run(context.Background(), validCheckoutInput())
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if result.Subscription.FinalPrice != 1000 || result.Subscription.DiscountAmount != 0 {
		t.Fatalf("expected full price without coupon, got %+v", result.Subscription)
	}
	if result.CouponApplied != nil {
		t.Fatalf("expected no coupon applied")
	}
	if gw.lastCouponID != "" {
		t.Fatalf("no coupon id should reach the provider, got %q", gw.lastCouponID)
	}
}

func TestCheckout_MissingArguments(t *testing.T) {
	gw := &fakeGateway{}
	co := NewCheckout(gw, newFakeSubsRepo())

	for _, mutate := range []func(*CheckoutInput){
		func(in *CheckoutInput) { in.UserID = 0 },
		func(in *CheckoutInput) { in.PlanID = " " },
		func(in *CheckoutInput) { in.PaymentMethodID = "" },
	} {
		in := validCheckoutInput()
		mutate(&in)
		_, err := co.Run(context.Background(), in)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	}
	if gw.customerCalls != 0 || gw.createCalls != 0 {
		t.Fatalf("validation failures must not reach the provider")
	}
}

func TestCheckout_InvalidCouponAbortsBeforeProvider(t *testing.T) {
	gw := &fakeGateway{couponErr: errors.New("no such coupon: NOPE")}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	in := validCheckoutInput()
	in.CouponCode = "NOPE"

	_, err := co.Run(context.Background(), in)

	var ce *CouponError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CouponError, got %v", err)
	}
	if !IsRecoverable(err) {
		t.Fatalf("coupon rejection must be recoverable")
	}
	if gw.customerCalls != 0 || gw.createCalls != 0 {
		t.Fatalf("invalid coupon must abort before any customer or subscription call")
	}
	if count, _ := repo.CountForUser(1); count != 0 {
		t.Fatalf("nothing local may be written on coupon rejection")
	}
}

func TestCheckout_CardDeclineSurfacesVerbatim(t *testing.T) {
	declined := errors.New("Your card was declined.")
	gw := &fakeGateway{createCustomerErr: declined}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	_, err := co.Run(context.Background(), validCheckoutInput())
	if !errors.Is(err, declined) {
		t.Fatalf("expected provider decline passed through, got %v", err)
	}
	if IsRecoverable(err) {
		t.Fatalf("a decline is not a coupon error")
	}
	if gw.createCalls != 0 {
		t.Fatalf("no subscription may be created after a decline")
	}
	if count, _ := repo.CountForUser(1); count != 0 {
		t.Fatalf("nothing local may be written after a decline")
	}
}

func TestCheckout_SubscriptionCreateFailureWritesNothing(t *testing.T) {
	gw := &fakeGateway{createSubErr: errProviderDown}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	_, err := co.Run(context.Background(), validCheckoutInput())
	if !errors.Is(err, errProviderDown) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if count, _ := repo.CountForUser(1); count != 0 {
		t.Fatalf("local mirror must stay empty when the remote create fails")
	}
}

func TestCheckout_LocalMirrorFailureKeepsRemoteIDs(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	repo.replaceErr = errors.New("disk full")
	co := NewCheckout(gw, repo)

	_, err := co.Run(context.Background(), validCheckoutInput())

	var me *LocalMirrorError
	if !errors.As(err, &me) {
		t.Fatalf("expected *LocalMirrorError, got %v", err)
	}
	if me.SubscriptionID != "sub_test" || me.CustomerID != "cus_test" {
		t.Fatalf("mirror error must carry the remote ids, got %+v", me)
	}
	if IsRecoverable(err) {
		t.Fatalf("a mirror failure is not recoverable by the user")
	}
	// The remote subscription stays created; nothing rolls it back.
	if gw.cancelCalls != 0 {
		t.Fatalf("a mirror failure must never cancel the remote subscription")
	}
}

func TestCheckout_ReusesExistingCustomer(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	if _, err := co.Run(context.Background(), validCheckoutInput()); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}

	in := validCheckoutInput()
	in.PaymentMethodID = "pm_card_mastercard"
	if _, err := co.Run(context.Background(), in); err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}

	if gw.customerCalls != 1 {
		t.Fatalf("a repeat checkout must not create a second customer, got %d creates", gw.customerCalls)
	}
	if gw.attachCalls != 1 {
		t.Fatalf("expected the new payment method attached to the existing customer, got %d attaches", gw.attachCalls)
	}
	if gw.lastPaymentID != "pm_card_mastercard" {
		t.Fatalf("expected the fresh payment method forwarded, got %q", gw.lastPaymentID)
	}

	stored, _ := repo.GetByUserID(1)
	if stored.StripeCustomerID != "cus_test" {
		t.Fatalf("expected the pinned customer on the new record, got %q", stored.StripeCustomerID)
	}
}

func TestCheckout_AttachDeclineWritesNothing(t *testing.T) {
	declined := errors.New("Your card was declined.")
	gw := &fakeGateway{attachErr: declined}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	if _, err := co.Run(context.Background(), validCheckoutInput()); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	prior, _ := repo.GetByUserID(1)

	_, err := co.Run(context.Background(), validCheckoutInput())
	if !errors.Is(err, declined) {
		t.Fatalf("expected attach decline passed through, got %v", err)
	}
	if gw.createCalls != 1 {
		t.Fatalf("no new subscription may be created after an attach decline")
	}

	stored, _ := repo.GetByUserID(1)
	if stored.ID != prior.ID {
		t.Fatalf("the prior local record must survive a failed repeat checkout")
	}
}

func TestCheckout_ReplacesPriorRecord(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	co := NewCheckout(gw, repo)

	if _, err := co.Run(context.Background(), validCheckoutInput()); err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}

	in := validCheckoutInput()
	in.PlanID = "price_premium"
	if _, err := co.Run(context.Background(), in); err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}

	count, _ := repo.CountForUser(1)
	if count != 1 {
		t.Fatalf("expected at most one local record after repeat checkout, got %d", count)
	}
	stored, _ := repo.GetByUserID(1)
	if stored.PlanID != "price_premium" {
		t.Fatalf("expected latest checkout to win, got %q", stored.PlanID)
	}
}
