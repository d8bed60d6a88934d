package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
)

// Mutator executes privileged subscription-lifecycle mutations and then
// reconciles the local mirror. The remote provider is the system of record:
// once the remote mutation commits, local reconciliation failures are logged
// and swallowed, never rolled back.
type Mutator struct {
	gateway Gateway
	subs    repository.SubscriptionRepository
}

// NewMutator creates a subscription mutator.
func NewMutator(gateway Gateway, subs repository.SubscriptionRepository) *Mutator {
	return &Mutator{gateway: gateway, subs: subs}
}

// Cancel cancels the remote subscription and deletes every local record for
// the user as one batch. A missing local record is a warning, not an error.
func (m *Mutator) Cancel(ctx context.Context, subscriptionID string, userID uint) (*stripe.Subscription, error) {
	if strings.TrimSpace(subscriptionID) == "" || userID == 0 {
		return nil, fmt.Errorf("%w: subscriptionId and userId are required", ErrInvalidArgument)
	}

	cancelled, err := m.gateway.CancelSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	deleted, err := m.subs.DeleteAllForUser(userID)
	switch {
	case err != nil:
		log.Warnf("[Billing] cancel %s: remote cancellation succeeded but local cleanup failed: %v", subscriptionID, err)
	case deleted == 0:
		log.Warnf("[Billing] cancel %s: no local subscription record found for user %d", subscriptionID, userID)
	}

	return cancelled, nil
}

// Upgrade swaps the subscription's sole line item to the new price with
// immediate proration, then updates the matching active local record.
func (m *Mutator) Upgrade(ctx context.Context, subscriptionID, newPriceID string, userID uint) (*stripe.Subscription, error) {
	if strings.TrimSpace(subscriptionID) == "" || strings.TrimSpace(newPriceID) == "" || userID == 0 {
		return nil, fmt.Errorf("%w: subscriptionId, newPriceId and userId are required", ErrInvalidArgument)
	}

	current, err := m.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no line items", subscriptionID)
	}

	updated, err := m.gateway.UpdateSubscriptionPrice(ctx, subscriptionID, current.Items.Data[0].ID, newPriceID)
	if err != nil {
		return nil, err
	}

	// Remote mutation is committed; everything below is best-effort.
	local, err := m.subs.GetActiveByUserID(userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Warnf("[Billing] upgrade %s: no active local subscription record for user %d", subscriptionID, userID)
	case err != nil:
		log.Warnf("[Billing] upgrade %s: local record lookup failed: %v", subscriptionID, err)
	default:
		if err := m.subs.UpdatePlan(local.ID, newPriceID); err != nil {
			log.Warnf("[Billing] upgrade %s: local plan update failed: %v", subscriptionID, err)
		}
	}

	return updated, nil
}

// PlanInfo resolves a price id to its price and product details.
func (m *Mutator) PlanInfo(ctx context.Context, priceID string) (*PlanDetails, error) {
	if strings.TrimSpace(priceID) == "" {
		return nil, fmt.Errorf("%w: priceId is required", ErrInvalidArgument)
	}

	price, err := m.gateway.GetPrice(ctx, priceID)
	if err != nil {
		return nil, err
	}
	if price.Product == nil {
		return nil, fmt.Errorf("price %s has no resolvable product", priceID)
	}

	details := &PlanDetails{
		PriceID:    price.ID,
		UnitAmount: price.UnitAmount,
		Currency:   string(price.Currency),
		Product: PlanProduct{
			ID:          price.Product.ID,
			Name:        price.Product.Name,
			Description: price.Product.Description,
			Metadata:    price.Product.Metadata,
		},
	}
	if price.Recurring != nil {
		details.Recurring = &PlanRecurring{
			Interval:      string(price.Recurring.Interval),
			IntervalCount: price.Recurring.IntervalCount,
		}
	}
	return details, nil
}

// SyncStatus mirrors a remote lifecycle status change into the local record
// (webhook path). Unknown subscriptions are ignored with a warning.
func (m *Mutator) SyncStatus(stripeSubscriptionID string, status stripe.SubscriptionStatus) error {
	local := models.SubscriptionStatusActive
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		local = models.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		local = models.SubscriptionStatusPastDue
	default:
		local = models.SubscriptionStatusCanceled
	}

	affected, err := m.subs.UpdateStatusByStripeID(stripeSubscriptionID, local)
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Warnf("[Billing] status sync: no local record for remote subscription %s", stripeSubscriptionID)
	}
	return nil
}
