package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v82"

	"github.com/boxbinhq/boxbin/app/models"
)

func seedLocalSubscription(repo *fakeSubsRepo, userID uint, planID, stripeID string) *models.Subscription {
	sub := &models.Subscription{
		UserID:               userID,
		PlanID:               planID,
		Status:               models.SubscriptionStatusActive,
		StripeSubscriptionID: stripeID,
		StripeCustomerID:     "cus_seed",
	}
	_ = repo.ReplaceForUser(userID, sub)
	return sub
}

func TestCancel_RemoteAndLocal(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	seedLocalSubscription(repo, 1, "price_basic", "sub_1")
	m := NewMutator(gw, repo)

	cancelled, err := m.Cancel(context.Background(), "sub_1", 1)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != stripe.SubscriptionStatusCanceled {
		t.Fatalf("expected cancelled remote subscription, got %q", cancelled.Status)
	}
	if count, _ := repo.CountForUser(1); count != 0 {
		t.Fatalf("expected local records deleted, got %d", count)
	}
}

func TestCancel_MissingArguments(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMutator(gw, newFakeSubsRepo())

	if _, err := m.Cancel(context.Background(), "", 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty id, got %v", err)
	}
	if _, err := m.Cancel(context.Background(), "sub_1", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for missing user, got %v", err)
	}
	if gw.cancelCalls != 0 {
		t.Fatalf("validation failures must not reach the provider")
	}
}

func TestCancel_NoLocalRecordStillSucceeds(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	m := NewMutator(gw, repo)

	cancelled, err := m.Cancel(context.Background(), "sub_unknown", 7)
	if err != nil {
		t.Fatalf("cancel must succeed without a local record, got %v", err)
	}
	if cancelled == nil || cancelled.ID != "sub_unknown" {
		t.Fatalf("expected remote cancellation result, got %+v", cancelled)
	}
}

func TestCancel_LocalCleanupFailureIsSwallowed(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	seedLocalSubscription(repo, 1, "price_basic", "sub_1")
	repo.deleteErr = errors.New("db locked")
	m := NewMutator(gw, repo)

	if _, err := m.Cancel(context.Background(), "sub_1", 1); err != nil {
		t.Fatalf("remote cancellation committed; local failure must be swallowed, got %v", err)
	}
}

func TestCancel_RemoteFailurePropagates(t *testing.T) {
	gw := &fakeGateway{cancelErr: errProviderDown}
	repo := newFakeSubsRepo()
	seedLocalSubscription(repo, 1, "price_basic", "sub_1")
	m := NewMutator(gw, repo)

	if _, err := m.Cancel(context.Background(), "sub_1", 1); !errors.Is(err, errProviderDown) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if count, _ := repo.CountForUser(1); count != 1 {
		t.Fatalf("local record must survive a failed remote cancellation")
	}
}

func TestUpgrade_SwapsPriceAndUpdatesLocal(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	local := seedLocalSubscription(repo, 1, "price_basic", "sub_1")
	m := NewMutator(gw, repo)

	updated, err := m.Upgrade(context.Background(), "sub_1", "price_premium", 1)
	if err != nil {
		t.Fatalf("upgrade failed: %v", err)
	}
	if updated.ID != "sub_1" {
		t.Fatalf("unexpected subscription returned: %+v", updated)
	}
	if gw.lastItemID != "si_test" || gw.lastPriceID != "price_premium" {
		t.Fatalf("expected sole item swapped to new price, got item=%q price=%q", gw.lastItemID, gw.lastPriceID)
	}

	stored, _ := repo.GetByUserID(1)
	if stored.ID != local.ID || stored.PlanID != "price_premium" {
		t.Fatalf("expected local plan updated, got %+v", stored)
	}
}

func TestUpgrade_MissingArguments(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMutator(gw, newFakeSubsRepo())

	cases := []struct {
		subID, priceID string
		userID         uint
	}{
		{"", "price_premium", 1},
		{"sub_1", " ", 1},
		{"sub_1", "price_premium", 0},
	}
	for _, c := range cases {
		if _, err := m.Upgrade(context.Background(), c.subID, c.priceID, c.userID); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument for %+v, got %v", c, err)
		}
	}
	if gw.updateCalls != 0 {
		t.Fatalf("validation failures must not reach the provider")
	}
}

func TestUpgrade_NoLineItems(t *testing.T) {
	gw := &fakeGateway{sub: &stripe.Subscription{ID: "sub_1", Items: &stripe.SubscriptionItemList{}}}
	m := NewMutator(gw, newFakeSubsRepo())

	if _, err := m.Upgrade(context.Background(), "sub_1", "price_premium", 1); err == nil {
		t.Fatalf("expected error for subscription without line items")
	}
	if gw.updateCalls != 0 {
		t.Fatalf("no update may run without an item to swap")
	}
}

func TestUpgrade_MissingLocalRecordStillSucceeds(t *testing.T) {
	gw := &fakeGateway{}
	m := NewMutator(gw, newFakeSubsRepo())

	if _, err := m.Upgrade(context.Background(), "sub_1", "price_premium", 99); err != nil {
		t.Fatalf("remote upgrade committed; missing local record must be swallowed, got %v", err)
	}
}

func TestUpgrade_LocalUpdateFailureIsSwallowed(t *testing.T) {
	gw := &fakeGateway{}
	repo := newFakeSubsRepo()
	seedLocalSubscription(repo, 1, "price_basic", "sub_1")
	repo.updateErr = errors.New("db locked")
	m := NewMutator(gw, repo)

	if _, err := m.Upgrade(context.Background(), "sub_1", "price_premium", 1); err != nil {
		t.Fatalf("local plan update failure must be swallowed, got %v", err)
	}
}

func TestPlanInfo(t *testing.T) {
	gw := &fakeGateway{
		price: &stripe.Price{
			ID:         "price_basic",
			UnitAmount: 999,
			Currency:   stripe.CurrencyUSD,
			Recurring:  &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth, IntervalCount: 1},
			Product: &stripe.Product{
				ID:          "prod_basic",
				Name:        "BoxBin Basic",
				Description: "Up to 5 bins",
				Metadata:    map[string]string{"tier": "basic"},
			},
		},
	}
	m := NewMutator(gw, newFakeSubsRepo())

	details, err := m.PlanInfo(context.Background(), "price_basic")
	if err != nil {
		t.Fatalf("plan lookup failed: %v", err)
	}
	if details.UnitAmount != 999 || details.Currency != "usd" {
		t.Fatalf("unexpected price details %+v", details)
	}
	if details.Product.Name != "BoxBin Basic" || details.Product.Metadata["tier"] != "basic" {
		t.Fatalf("unexpected product details %+v", details.Product)
	}
	if details.Recurring == nil || details.Recurring.Interval != "month" {
		t.Fatalf("unexpected recurrence %+v", details.Recurring)
	}
}

func TestPlanInfo_MissingPriceID(t *testing.T) {
	m := NewMutator(&fakeGateway{}, newFakeSubsRepo())
	if _, err := m.PlanInfo(context.Background(), " "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestPlanInfo_NoProduct(t *testing.T) {
	gw := &fakeGateway{price: &stripe.Price{ID: "price_orphan", UnitAmount: 100}}
	m := NewMutator(gw, newFakeSubsRepo())
	if _, err := m.PlanInfo(context.Background(), "price_orphan"); err == nil {
		t.Fatalf("expected error for price without product")
	}
}

func TestSyncStatus_Mapping(t *testing.T) {
	tests := []struct {
		remote stripe.SubscriptionStatus
		want   string
	}{
		{stripe.SubscriptionStatusActive, models.SubscriptionStatusActive},
		{stripe.SubscriptionStatusTrialing, models.SubscriptionStatusActive},
		{stripe.SubscriptionStatusPastDue, models.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusUnpaid, models.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusCanceled, models.SubscriptionStatusCanceled},
		{stripe.SubscriptionStatusIncompleteExpired, models.SubscriptionStatusCanceled},
	}

	for _, tt := range tests {
		repo := newFakeSubsRepo()
		seedLocalSubscription(repo, 1, "price_basic", "sub_1")
		m := NewMutator(&fakeGateway{}, repo)

		if err := m.SyncStatus("sub_1", tt.remote); err != nil {
			t.Fatalf("sync for %q failed: %v", tt.remote, err)
		}
		stored, _ := repo.GetByUserID(1)
		if stored.Status != tt.want {
			t.Fatalf("sync %q: got local status %q, want %q", tt.remote, stored.Status, tt.want)
		}
	}
}

func TestSyncStatus_UnknownSubscriptionIsIgnored(t *testing.T) {
	m := NewMutator(&fakeGateway{}, newFakeSubsRepo())
	if err := m.SyncStatus("sub_ghost", stripe.SubscriptionStatusCanceled); err != nil {
		t.Fatalf("unknown subscription must only warn, got %v", err)
	}
}
