package entitlements

import "sync"

// GateState is the access phase of one user session as the gate sees it.
type GateState string

const (
	// GateAnonymous means no authenticated user has been observed.
	GateAnonymous GateState = "anonymous"
	// GateLocked means a user is present without any active entitlement.
	GateLocked GateState = "locked"
	// GateOpen means a user is present with at least one active entitlement.
	GateOpen GateState = "open"
)

// Gate decides when a session is interrupted with the plan-selection
// prompt. It watches two signals: session presence (login/logout) and
// entitlement snapshots from the poller.
//
// The prompt is forced only when the gate itself observes the session go
// from absent to present while no entitlement is cached. A user who was
// already signed in when the gate was created never gets the forced prompt,
// even if every later snapshot reports no entitlements. That asymmetry is
// intentional and pinned by tests.
type Gate struct {
	mu sync.Mutex

	initialized bool
	userPresent bool
	entitled    bool
	promptOpen  bool
	checkingOut bool
}

// NewGate returns a gate with no observations yet.
func NewGate() *Gate {
	return &Gate{}
}

// State reports the coarse session phase.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case !g.userPresent:
		return GateAnonymous
	case g.entitled:
		return GateOpen
	default:
		return GateLocked
	}
}

// PromptOpen reports whether the plan-selection prompt is currently forced.
func (g *Gate) PromptOpen() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.promptOpen
}

// ObserveSession feeds the current authentication state plus whatever
// entitlement knowledge is cached at that moment. The first call
// establishes the baseline: a user already present then never triggers
// the prompt.
func (g *Gate) ObserveSession(userPresent, entitledCached bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	wasPresent := g.userPresent
	first := !g.initialized
	g.initialized = true
	g.userPresent = userPresent

	if !userPresent {
		g.entitled = false
		g.promptOpen = false
		g.checkingOut = false
		return
	}

	g.entitled = entitledCached
	if entitledCached {
		g.promptOpen = false
		return
	}
	if !wasPresent && !first {
		g.promptOpen = true
	}
}

// ObserveSnapshot feeds a poller result. Intended as a Poller Subscribe
// callback. A snapshot with an active entitlement closes the prompt; a
// snapshot without one never re-forces it, and while a checkout is in
// flight a stale empty snapshot does not flip the entitled flag back.
func (g *Gate) ObserveSnapshot(snap Snapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.userPresent {
		return
	}
	if snap.IsSubscribed() {
		g.entitled = true
		g.promptOpen = false
		return
	}
	if g.checkingOut {
		// Poll data can lag a just-completed purchase; wait for the
		// checkout signal instead.
		return
	}
	g.entitled = false
}

// CheckoutStarted suppresses stale poll flicker until the checkout
// reports back.
func (g *Gate) CheckoutStarted() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkingOut = true
}

// CheckoutFinished records the checkout outcome. Success closes the
// prompt immediately rather than waiting for the next poll tick.
func (g *Gate) CheckoutFinished(success bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkingOut = false
	if success && g.userPresent {
		g.entitled = true
		g.promptOpen = false
	}
}
