package entitlements

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// DefaultPollInterval is how often an active session re-fetches its
// entitlement snapshot.
const DefaultPollInterval = 30 * time.Second

// SubscriberAPI is the slice of the provider client the poller needs.
type SubscriberAPI interface {
	GetSubscriber(ctx context.Context, appUserID string) (Snapshot, error)
	GetCurrentOffering(ctx context.Context, appUserID string) (*Offering, error)
}

// Poller owns the background refresh of one user's entitlement snapshot.
// It is started on session-begin and stopped on session-end; the stop
// channel is the only cancellation point. A failed fetch is logged and
// leaves the previous state unchanged — the next tick retries naturally,
// without backoff.
type Poller struct {
	client    SubscriberAPI
	cache     *Cache
	userID    uint
	appUserID string
	interval  time.Duration

	mu        sync.Mutex
	snapshot  Snapshot
	hasSnap   bool
	offering  *Offering
	observers []func(Snapshot)
	running   bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewPoller creates a poller for one user session.
func NewPoller(client SubscriberAPI, cache *Cache, userID uint, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		client:    client,
		cache:     cache,
		userID:    userID,
		appUserID: strconv.FormatUint(uint64(userID), 10),
		interval:  interval,
	}
}

// Subscribe registers an observer invoked after every successful refresh.
// Observers are called outside the poller lock.
func (p *Poller) Subscribe(fn func(Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Start performs the initial catalog and entitlement fetch, then begins the
// polling loop. Safe to call once per poller.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	// Initial fetch on session-begin. Failures leave state empty; the first
	// tick retries.
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	if offering, err := p.client.GetCurrentOffering(ctx, p.appUserID); err != nil {
		log.Warnf("[Entitlements] user %d: offering fetch failed: %v", p.userID, err)
	} else {
		p.mu.Lock()
		p.offering = offering
		p.mu.Unlock()
	}
	p.refresh(ctx)
	cancel()

	p.wg.Add(1)
	go p.loop()
}

// Stop cancels the polling loop and waits for it to exit. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

// Snapshot returns the latest snapshot, if one was ever fetched.
func (p *Poller) Snapshot() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot, p.hasSnap
}

// IsSubscribed reports the latest known entitlement state. With no snapshot
// yet it reports false.
func (p *Poller) IsSubscribed() bool {
	snap, ok := p.Snapshot()
	return ok && snap.IsSubscribed()
}

// CurrentOffering returns the catalog fetched at session-begin.
func (p *Poller) CurrentOffering() *Offering {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offering
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			p.refresh(ctx)
			cancel()
		}
	}
}

func (p *Poller) refresh(ctx context.Context) {
	snap, err := p.client.GetSubscriber(ctx, p.appUserID)
	if err != nil {
		log.Warnf("[Entitlements] user %d: snapshot fetch failed, keeping previous state: %v", p.userID, err)
		return
	}

	p.mu.Lock()
	p.snapshot = snap
	p.hasSnap = true
	observers := make([]func(Snapshot), len(p.observers))
	copy(observers, p.observers)
	p.mu.Unlock()

	if err := p.cache.Put(ctx, p.userID, snap); err != nil {
		log.Warnf("[Entitlements] user %d: snapshot cache write failed: %v", p.userID, err)
	}

	for _, fn := range observers {
		fn(snap)
	}
}
