package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const (
	ShareRoleViewer = "viewer"
	ShareRoleEditor = "editor"
)

// InventoryShare grants another user read or write access to the owner's
// whole inventory. Until the invite is accepted GranteeUserID stays nil and
// the invite token is the only handle.
type InventoryShare struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	OwnerID       uint       `gorm:"not null;index:ux_inventory_shares_owner_email,unique,priority:1" json:"owner_id"`
	GranteeEmail  string     `gorm:"type:varchar(200);not null;index:ux_inventory_shares_owner_email,unique,priority:2" json:"grantee_email"`
	GranteeUserID *uint      `gorm:"index" json:"grantee_user_id,omitempty"`
	Role          string     `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	InviteToken   string     `gorm:"type:varchar(100);uniqueIndex" json:"-"`
	AcceptedAt    *time.Time `gorm:"type:timestamp;default:null" json:"accepted_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// GenerateInviteToken creates a random token for the invite link.
func (s *InventoryShare) GenerateInviteToken() error {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	s.InviteToken = hex.EncodeToString(b)
	return nil
}

// IsAccepted reports whether the grantee has claimed the share.
func (s *InventoryShare) IsAccepted() bool {
	return s.AcceptedAt != nil && s.GranteeUserID != nil
}

// CanEdit reports whether the share role allows mutations.
func (s *InventoryShare) CanEdit() bool {
	return s.Role == ShareRoleEditor
}
