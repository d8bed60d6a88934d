package entitlements

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Session bundles the per-user poller and gate for one signed-in user.
type Session struct {
	Poller *Poller
	Gate   *Gate
}

// Manager tracks one entitlement Session per signed-in user. Sessions are
// started at login (or restored for cookies that survived a restart) and
// stopped at logout.
type Manager struct {
	client   SubscriberAPI
	cache    *Cache
	interval time.Duration

	mu       sync.Mutex
	sessions map[uint]*Session
}

var (
	managerInstance *Manager
	managerOnce     sync.Once
)

// InitializeManager wires the global manager. Call once from main.
func InitializeManager(client SubscriberAPI, cache *Cache, interval time.Duration) *Manager {
	managerOnce.Do(func() {
		managerInstance = NewManager(client, cache, interval)
	})
	return managerInstance
}

// GetManager returns the global manager, or nil before initialization.
func GetManager() *Manager {
	return managerInstance
}

// NewManager creates an unstarted manager.
func NewManager(client SubscriberAPI, cache *Cache, interval time.Duration) *Manager {
	return &Manager{
		client:   client,
		cache:    cache,
		interval: interval,
		sessions: make(map[uint]*Session),
	}
}

// StartSession begins polling for a user who just logged in. The gate sees
// the absent-to-present transition, so the plan prompt fires if no
// entitlement is cached.
func (m *Manager) StartSession(ctx context.Context, userID uint) *Session {
	return m.start(ctx, userID, false)
}

// RestoreSession begins polling for a user whose session cookie predates
// this process. The gate treats the user as already present, so the prompt
// is never forced for them.
func (m *Manager) RestoreSession(ctx context.Context, userID uint) *Session {
	return m.start(ctx, userID, true)
}

func (m *Manager) start(ctx context.Context, userID uint, restored bool) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	gate := NewGate()
	if !restored {
		gate.ObserveSession(false, false)
	}
	cachedEntitled := false
	if snap, ok := m.cache.Get(ctx, userID); ok {
		cachedEntitled = snap.IsSubscribed()
	}
	gate.ObserveSession(true, cachedEntitled)

	poller := NewPoller(m.client, m.cache, userID, m.interval)
	poller.Subscribe(gate.ObserveSnapshot)

	s := &Session{Poller: poller, Gate: gate}

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		// Lost the race with a concurrent login for the same user.
		m.mu.Unlock()
		return existing
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	poller.Start()
	log.Debugf("[Entitlements] session started for user %d (restored=%v)", userID, restored)
	return s
}

// Get returns the running session for a user, if any.
func (m *Manager) Get(userID uint) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// StopSession ends polling for a user at logout and drops the cached
// snapshot.
func (m *Manager) StopSession(ctx context.Context, userID uint) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Poller.Stop()
	m.cache.Drop(ctx, userID)
	log.Debugf("[Entitlements] session stopped for user %d", userID)
}

// Shutdown stops every session. Used during graceful shutdown.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Poller.Stop()
	}
	log.Info("[Entitlements] manager shut down")
}
