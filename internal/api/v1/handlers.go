package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/authtoken"
	"github.com/boxbinhq/boxbin/internal/pkg/billing"
	"github.com/boxbinhq/boxbin/internal/pkg/middleware"
)

// APIServer carries the privileged billing surface. Every route except ping
// sits behind the service key middleware; these endpoints are for trusted
// backend callers, never the browser.
type APIServer struct {
	mutator *billing.Mutator
	gateway billing.Gateway
	minter  *authtoken.Minter
}

// NewAPIServer creates a new API server instance.
func NewAPIServer(gateway billing.Gateway, subs repository.SubscriptionRepository, minter *authtoken.Minter) *APIServer {
	return &APIServer{
		mutator: billing.NewMutator(gateway, subs),
		gateway: gateway,
		minter:  minter,
	}
}

// RegisterHandlers attaches the v1 routes to the given router group.
func RegisterHandlers(v1 fiber.Router, s *APIServer) {
	v1.Get("/ping", s.GetPing)

	b := v1.Group("/billing", middleware.ServiceKeyAuthMiddleware())
	b.Post("/cancel-subscription", s.PostCancelSubscription)
	b.Post("/upgrade-subscription", s.PostUpgradeSubscription)
	b.Get("/plans/:priceId", s.GetPlanByID)
	b.Post("/mint-custom-token", s.PostMintCustomToken)
	b.Post("/validate-coupon", s.PostValidateCoupon)
}

// GetPing handles the ping endpoint.
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// PostCancelSubscription cancels a subscription at the provider and clears
// the local record.
func (s *APIServer) PostCancelSubscription(c *fiber.Ctx) error {
	var req struct {
		SubscriptionID string `json:"subscriptionId"`
		UserID         uint   `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid-argument", "invalid request body")
	}

	sub, err := s.mutator.Cancel(c.Context(), req.SubscriptionID, req.UserID)
	if errors.Is(err, billing.ErrInvalidArgument) {
		return apiError(c, fiber.StatusBadRequest, "invalid-argument", err.Error())
	}
	if err != nil {
		log.Errorf("[API] cancel subscription %s failed: %v", req.SubscriptionID, err)
		return apiError(c, fiber.StatusInternalServerError, "internal", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "subscription": sub})
}

// PostUpgradeSubscription swaps a subscription onto a new price.
func (s *APIServer) PostUpgradeSubscription(c *fiber.Ctx) error {
	var req struct {
		SubscriptionID string `json:"subscriptionId"`
		NewPriceID     string `json:"newPriceId"`
		UserID         uint   `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid-argument", "invalid request body")
	}

	sub, err := s.mutator.Upgrade(c.Context(), req.SubscriptionID, req.NewPriceID, req.UserID)
	if errors.Is(err, billing.ErrInvalidArgument) {
		return apiError(c, fiber.StatusBadRequest, "invalid-argument", err.Error())
	}
	if err != nil {
		log.Errorf("[API] upgrade subscription %s failed: %v", req.SubscriptionID, err)
		return apiError(c, fiber.StatusInternalServerError, "internal", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "subscription": sub})
}

// GetPlanByID returns price and product details for a plan.
func (s *APIServer) GetPlanByID(c *fiber.Ctx) error {
	plan, err := s.mutator.PlanInfo(c.Context(), c.Params("priceId"))
	if errors.Is(err, billing.ErrInvalidArgument) {
		return apiError(c, fiber.StatusBadRequest, "invalid-argument", err.Error())
	}
	if err != nil {
		log.Errorf("[API] plan lookup %s failed: %v", c.Params("priceId"), err)
		return apiError(c, fiber.StatusInternalServerError, "internal", err.Error())
	}
	return c.JSON(plan)
}

// PostMintCustomToken verifies the presented token and issues a fresh one
// with a full lifetime for the same subject. The account behind the subject
// is not re-checked here; the caller already holds a verified token and
// revocation is handled at expiry.
func (s *APIServer) PostMintCustomToken(c *fiber.Ctx) error {
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return apiError(c, fiber.StatusBadRequest, "invalid-argument", "idToken is required")
	}
	if s.minter == nil {
		return apiError(c, fiber.StatusServiceUnavailable, "unavailable", "token minting is not configured")
	}

	claims, err := s.minter.Verify(req.IDToken)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthenticated", "token verification failed")
	}

	token, err := s.minter.Mint(claims.Subject, claims.Provider)
	if err != nil {
		log.Errorf("[API] minting replacement token for subject %s failed: %v", claims.Subject, err)
		return apiError(c, fiber.StatusInternalServerError, "internal", "token minting failed")
	}
	return c.JSON(fiber.Map{"customToken": token})
}

// PostValidateCoupon checks a coupon code against the billing provider.
// Lookup failures come back as a negative result, not an HTTP error.
func (s *APIServer) PostValidateCoupon(c *fiber.Ctx) error {
	var req struct {
		CouponCode string `json:"couponCode"`
		PlanID     string `json:"planId"`
		UserID     uint   `json:"userId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid-argument", "invalid request body")
	}

	result := billing.ValidateCoupon(c.Context(), s.gateway, req.CouponCode, req.PlanID, req.UserID)
	return c.JSON(result)
}

func apiError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}
