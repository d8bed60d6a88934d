package entitlements

import (
	"encoding/json"
	"time"
)

// Snapshot is the set of active purchased entitlements for one user at a
// point in time. It is never persisted; it lives in process memory (and a
// short-lived Redis key) with a freshness window of one poll interval.
type Snapshot struct {
	AppUserID string          `json:"app_user_id"`
	Active    []string        `json:"active"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// IsSubscribed reports whether the user holds at least one active
// entitlement. This is the single definition of "is subscribed".
func (s Snapshot) IsSubscribed() bool {
	return len(s.Active) > 0
}

// HasEntitlement reports whether a specific entitlement is active.
func (s Snapshot) HasEntitlement(id string) bool {
	for _, e := range s.Active {
		if e == id {
			return true
		}
	}
	return false
}

// Package is one purchasable option inside an offering.
type Package struct {
	Identifier        string `json:"identifier"`
	ProductIdentifier string `json:"platform_product_identifier"`
}

// Offering is an immutable catalog snapshot of purchasable packages for the
// current user. Not persisted.
type Offering struct {
	Identifier  string    `json:"identifier"`
	Description string    `json:"description"`
	Packages    []Package `json:"packages"`
}
