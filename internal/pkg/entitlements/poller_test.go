package entitlements

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeSubscriberAPI returns scripted snapshots and can be told to fail.
type fakeSubscriberAPI struct {
	mu       sync.Mutex
	snapshot Snapshot
	err      error
	offering *Offering
	calls    int
}

func (f *fakeSubscriberAPI) set(snap Snapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = snap
	f.err = err
}

func (f *fakeSubscriberAPI) GetSubscriber(ctx context.Context, appUserID string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Snapshot{}, f.err
	}
	snap := f.snapshot
	snap.AppUserID = appUserID
	snap.FetchedAt = time.Now()
	return snap, nil
}

func (f *fakeSubscriberAPI) GetCurrentOffering(ctx context.Context, appUserID string) (*Offering, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offering, nil
}

func TestPoller_InitialFetchAndObservers(t *testing.T) {
	api := &fakeSubscriberAPI{
		offering: &Offering{Identifier: "default"},
	}
	api.set(Snapshot{Active: []string{"premium"}}, nil)

	p := NewPoller(api, NewCache(nil), 7, time.Hour)

	var mu sync.Mutex
	var seen []Snapshot
	p.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	p.Start()
	defer p.Stop()

	if !p.IsSubscribed() {
		t.Fatalf("expected initial fetch to mark user subscribed")
	}
	if got := p.CurrentOffering(); got == nil || got.Identifier != "default" {
		t.Fatalf("expected offering fetched at start, got %+v", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("expected 1 observer notification, got %d", len(seen))
	}
	if seen[0].AppUserID != "7" {
		t.Fatalf("expected app user id 7, got %q", seen[0].AppUserID)
	}
}

func TestPoller_FailedFetchKeepsPreviousState(t *testing.T) {
	api := &fakeSubscriberAPI{}
	api.set(Snapshot{Active: []string{"premium"}}, nil)

	p := NewPoller(api, NewCache(nil), 7, 10*time.Millisecond)
	p.Start()
	defer p.Stop()

	if !p.IsSubscribed() {
		t.Fatalf("expected subscribed after initial fetch")
	}

	api.set(Snapshot{}, errors.New("provider down"))
	time.Sleep(50 * time.Millisecond)

	if !p.IsSubscribed() {
		t.Fatalf("failed refresh must leave previous state intact")
	}
}

func TestPoller_RefreshObservesEntitlementLoss(t *testing.T) {
	api := &fakeSubscriberAPI{}
	api.set(Snapshot{Active: []string{"premium"}}, nil)

	p := NewPoller(api, NewCache(nil), 7, 10*time.Millisecond)
	p.Start()
	defer p.Stop()

	api.set(Snapshot{}, nil)

	deadline := time.Now().Add(time.Second)
	for p.IsSubscribed() {
		if time.Now().After(deadline) {
			t.Fatalf("expected poller to pick up entitlement loss")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPoller_StopIsIdempotent(t *testing.T) {
	api := &fakeSubscriberAPI{}
	p := NewPoller(api, NewCache(nil), 7, time.Hour)
	p.Start()
	p.Stop()
	p.Stop()

	api.mu.Lock()
	calls := api.calls
	api.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly the initial fetch before stop, got %d calls", calls)
	}
}

func TestPoller_StartTwiceRunsOneLoop(t *testing.T) {
	api := &fakeSubscriberAPI{}
	p := NewPoller(api, NewCache(nil), 7, time.Hour)
	p.Start()
	p.Start()
	p.Stop()
}
