package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
)

// VerifyStripeSignature checks the Stripe-Signature header against the
// endpoint secret and returns the parsed event.
func VerifyStripeSignature(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, secret)
}

// WebhookProcessor persists incoming Stripe events idempotently and applies
// subscription lifecycle changes to the local mirror.
type WebhookProcessor struct {
	events  repository.WebhookEventRepository
	mutator *Mutator
}

// NewWebhookProcessor creates a webhook processor.
func NewWebhookProcessor(events repository.WebhookEventRepository, mutator *Mutator) *WebhookProcessor {
	return &WebhookProcessor{events: events, mutator: mutator}
}

// Record stores the raw event unless it was seen before. Returns whether the
// event is new plus the stored row.
func (p *WebhookProcessor) Record(eventID, eventType string, payload []byte, signatureValid bool) (bool, *models.BillingWebhookEvent, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return false, nil, fmt.Errorf("%w: event id is required", ErrInvalidArgument)
	}
	return p.events.CreateIfNotExists(&models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: id,
		EventType:       strings.TrimSpace(eventType),
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	})
}

// Process applies one verified event. Only subscription lifecycle events
// touch local state; everything else is acknowledged and ignored.
func (p *WebhookProcessor) Process(event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to decode subscription payload: %w", err)
		}
		return p.mutator.SyncStatus(sub.ID, sub.Status)
	default:
		return nil
	}
}

// MarkProcessed finalizes a stored event with an optional processing error.
func (p *WebhookProcessor) MarkProcessed(id uint, processingErr error) error {
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	return p.events.MarkProcessed(id, msg)
}
