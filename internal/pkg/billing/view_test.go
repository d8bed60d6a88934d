package billing

import (
	"context"
	"testing"

	"github.com/stripe/stripe-go/v82"

	"github.com/boxbinhq/boxbin/internal/pkg/entitlements"
)

func TestResolveSubscriptionView_RemoteWins(t *testing.T) {
	gw := &fakeGateway{sub: &stripe.Subscription{ID: "sub_1", Status: stripe.SubscriptionStatusActive}}
	repo := newFakeSubsRepo()
	seedLocalSubscription(repo, 1, "price_basic", "sub_1")

	view := ResolveSubscriptionView(context.Background(), gw, repo, entitlements.NewCache(nil), 1)
	if view.Source != "remote" {
		t.Fatalf("expected remote source, got %q", view.Source)
	}
	if !view.IsSubscribed || view.Status != "active" {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.PlanID != "price_basic" || view.Record == nil {
		t.Fatalf("view must carry the mirror record, got %+v", view)
	}
}

func TestResolveSubscriptionView_RemoteCanceledOverridesMirror(t *testing.T) {
	gw := &fakeGateway{sub: &stripe.Subscription{ID: "sub_1", Status: stripe.SubscriptionStatusCanceled}}
	repo := newFakeSubsRepo()
	seedLocalSubscription(repo, 1, "price_basic", "sub_1")

	view := ResolveSubscriptionView(context.Background(), gw, repo, entitlements.NewCache(nil), 1)
	if view.Source != "remote" || view.IsSubscribed {
		t.Fatalf("remote canceled state must win over an active mirror, got %+v", view)
	}
}

func TestResolveSubscriptionView_MirrorFallback(t *testing.T) {
	gw := &fakeGateway{getSubErr: errProviderDown}
	repo := newFakeSubsRepo()
	seedLocalSubscription(repo, 1, "price_basic", "sub_1")

	view := ResolveSubscriptionView(context.Background(), gw, repo, entitlements.NewCache(nil), 1)
	if view.Source != "mirror" {
		t.Fatalf("expected mirror fallback when remote is unreachable, got %q", view.Source)
	}
	if !view.IsSubscribed {
		t.Fatalf("active mirror record must report subscribed")
	}
}

func TestResolveSubscriptionView_NoData(t *testing.T) {
	gw := &fakeGateway{}
	view := ResolveSubscriptionView(context.Background(), gw, newFakeSubsRepo(), entitlements.NewCache(nil), 1)
	if view.Source != "none" || view.IsSubscribed {
		t.Fatalf("expected empty view for unknown user, got %+v", view)
	}
}
