package billing

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/boxbinhq/boxbin/app/models"
	"github.com/boxbinhq/boxbin/app/repository"
	"github.com/boxbinhq/boxbin/internal/pkg/entitlements"
)

// SubscriptionView is the reconciled picture shown on the billing detail
// page. Three independently refreshed sources feed it, resolved in order:
// remote provider > local mirror > cached entitlement poll.
type SubscriptionView struct {
	Source       string               `json:"source"`
	IsSubscribed bool                 `json:"is_subscribed"`
	Status       string               `json:"status,omitempty"`
	PlanID       string               `json:"plan_id,omitempty"`
	Record       *models.Subscription `json:"record,omitempty"`
}

// ResolveSubscriptionView builds the view for one user. A reachable remote
// provider wins; a local mirror row is next; the cached poll result is the
// weakest source and only consulted when the first two are unavailable.
func ResolveSubscriptionView(ctx context.Context, gateway Gateway, subs repository.SubscriptionRepository, snapshots *entitlements.Cache, userID uint) SubscriptionView {
	record, err := subs.GetByUserID(userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warnf("[Billing] view: local record lookup failed for user %d: %v", userID, err)
	}

	if record != nil {
		if remote, err := gateway.GetSubscription(ctx, record.StripeSubscriptionID); err == nil {
			return SubscriptionView{
				Source:       "remote",
				IsSubscribed: remote.Status == "active" || remote.Status == "trialing",
				Status:       string(remote.Status),
				PlanID:       record.PlanID,
				Record:       record,
			}
		} else {
			log.Warnf("[Billing] view: remote lookup for %s failed, falling back to mirror: %v", record.StripeSubscriptionID, err)
		}

		return SubscriptionView{
			Source:       "mirror",
			IsSubscribed: record.IsActive(),
			Status:       record.Status,
			PlanID:       record.PlanID,
			Record:       record,
		}
	}

	if snapshots != nil {
		if snap, ok := snapshots.Get(ctx, userID); ok {
			return SubscriptionView{
				Source:       "poll",
				IsSubscribed: snap.IsSubscribed(),
			}
		}
	}

	return SubscriptionView{Source: "none", IsSubscribed: false}
}
