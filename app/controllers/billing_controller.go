package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/billing"
	"github.com/boxbinhq/boxbin/internal/pkg/constants"
	"github.com/boxbinhq/boxbin/internal/pkg/entitlements"
	"github.com/boxbinhq/boxbin/internal/pkg/usercontext"
)

var (
	billingGateway  billing.Gateway
	billingCheckout *billing.Checkout
	snapshotCache   *entitlements.Cache
)

// SetupBilling wires the payment gateway into the web controllers. Called
// once from main after configuration is loaded.
func SetupBilling(gateway billing.Gateway, subs repository.SubscriptionRepository, snapshots *entitlements.Cache) {
	billingGateway = gateway
	billingCheckout = billing.NewCheckout(gateway, subs)
	snapshotCache = snapshots
}

// HandleBillingPage returns the reconciled subscription view for the
// billing detail page.
func HandleBillingPage(c *fiber.Ctx) error {
	userID := currentUserID(c)
	subs := repository.GetGlobalFactory().GetSubscriptionRepository()
	view := billing.ResolveSubscriptionView(c.Context(), billingGateway, subs, snapshotCache, userID)
	return c.JSON(view)
}

// HandlePlans reports the current plan catalog plus whether the plan
// prompt is forced for this session.
func HandlePlans(c *fiber.Ctx) error {
	userID := currentUserID(c)

	resp := fiber.Map{
		"prompt_open": false,
	}
	if mgr := entitlements.GetManager(); mgr != nil {
		if s, ok := mgr.Get(userID); ok {
			resp["prompt_open"] = s.Gate.PromptOpen()
			resp["is_subscribed"] = s.Poller.IsSubscribed()
			if offering := s.Poller.CurrentOffering(); offering != nil {
				resp["offering"] = offering
			}
		}
	}
	return c.JSON(resp)
}

// HandleValidateCoupon checks a user-entered coupon code. Rejections are a
// normal response, never an HTTP error.
func HandleValidateCoupon(c *fiber.Ctx) error {
	var req struct {
		CouponCode string `json:"couponCode" form:"coupon_code"`
		PlanID     string `json:"planId" form:"plan_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	result := billing.ValidateCoupon(c.Context(), billingGateway, req.CouponCode, req.PlanID, currentUserID(c))
	return c.JSON(result)
}

// HandleCheckout executes one checkout attempt for the signed-in user.
func HandleCheckout(c *fiber.Ctx) error {
	userID := currentUserID(c)
	userCtx := usercontext.GetUserContext(c)

	originalPrice, _ := strconv.ParseInt(c.FormValue("original_price"), 10, 64)
	in := billing.CheckoutInput{
		UserID:          userID,
		UserEmail:       c.FormValue("email"),
		PlanID:          c.FormValue("plan_id"),
		OriginalPrice:   originalPrice,
		PaymentMethodID: c.FormValue("payment_method_id"),
		CouponCode:      c.FormValue("coupon_code"),
		Billing: models.BillingDetails{
			FirstName:  c.FormValue("first_name"),
			LastName:   c.FormValue("last_name"),
			Address:    c.FormValue("address"),
			City:       c.FormValue("city"),
			State:      c.FormValue("state"),
			ZipCode:    c.FormValue("zip_code"),
			NameOnCard: c.FormValue("name_on_card"),
		},
	}

	var gate *entitlements.Gate
	if mgr := entitlements.GetManager(); mgr != nil {
		if s, ok := mgr.Get(userID); ok {
			gate = s.Gate
			gate.CheckoutStarted()
		}
	}

	result, err := billingCheckout.Run(c.Context(), in)
	if err != nil {
		if gate != nil {
			gate.CheckoutFinished(false)
		}
		if billing.IsRecoverable(err) {
			fm := fiber.Map{"type": "error", "message": err.Error()}
			return flash.WithError(c, fm).Redirect(constants.PlansRoute)
		}
		log.Errorf("[Billing] checkout for user %d (%s) failed: %v", userID, userCtx.Username, err)
		fm := fiber.Map{"type": "error", "message": err.Error()}
		return flash.WithError(c, fm).Redirect(constants.BillingRoute)
	}

	if gate != nil {
		gate.CheckoutFinished(true)
	}

	// Embedded host shells want a structured completion signal instead of a
	// navigation.
	if c.Get("X-BoxBin-Shell") != "" || c.Accepts("text/html", "application/json") == "application/json" {
		return c.JSON(fiber.Map{
			"status":       "success",
			"subscription": result.Subscription,
			"coupon":       result.CouponApplied,
		})
	}

	fm := fiber.Map{"type": "success", "message": "Subscription active. Welcome aboard!"}
	return flash.WithSuccess(c, fm).Redirect(constants.PublicRoute)
}

// HandleBillingResync pulls the remote status for the user's subscription
// and refreshes the local mirror.
func HandleBillingResync(c *fiber.Ctx) error {
	userID := currentUserID(c)
	subs := repository.GetGlobalFactory().GetSubscriptionRepository()

	record, err := subs.GetByUserID(userID)
	if err != nil || record == nil {
		return jsonError(c, fiber.StatusNotFound, "not_found", "no subscription record")
	}

	remote, err := billingGateway.GetSubscription(c.Context(), record.StripeSubscriptionID)
	if err != nil {
		return jsonError(c, fiber.StatusBadGateway, "provider_unavailable", err.Error())
	}

	mutator := billing.NewMutator(billingGateway, subs)
	if err := mutator.SyncStatus(remote.ID, remote.Status); err != nil {
		log.Warnf("[Billing] resync for user %d: %v", userID, err)
	}

	view := billing.ResolveSubscriptionView(c.Context(), billingGateway, subs, snapshotCache, userID)
	return c.JSON(view)
}
