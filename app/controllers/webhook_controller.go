package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/billing"
	"github.com/boxbinhq/boxbin/internal/pkg/env"
)

// HandleStripeWebhook ingests provider events. Events are persisted before
// processing, so a replayed delivery is acknowledged without side effects.
func HandleStripeWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	event, err := billing.VerifyStripeSignature(payload, c.Get("Stripe-Signature"), secret)
	if err != nil {
		log.Warnf("[Webhook] signature verification failed: %v", err)
		return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "signature verification failed")
	}

	factory := repository.GetGlobalFactory()
	processor := billing.NewWebhookProcessor(
		factory.GetWebhookEventRepository(),
		billing.NewMutator(billingGateway, factory.GetSubscriptionRepository()),
	)

	created, stored, err := processor.Record(event.ID, string(event.Type), payload, true)
	if err != nil {
		log.Errorf("[Webhook] failed to persist event %s: %v", event.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "event persistence failed")
	}
	if !created {
		// Seen before; acknowledge the retry.
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processErr := processor.Process(event)
	if processErr != nil {
		log.Warnf("[Webhook] processing event %s failed: %v", event.ID, processErr)
	}
	if err := processor.MarkProcessed(stored.ID, processErr); err != nil {
		log.Warnf("[Webhook] failed to finalize event %s: %v", event.ID, err)
	}

	// Try once, report, stop: a failed apply is recorded on the event row
	// rather than bounced back for provider retries.
	return c.JSON(fiber.Map{"received": true})
}
