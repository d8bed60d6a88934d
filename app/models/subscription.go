package models

import "time"

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusPastDue  = "past_due"
)

// BillingDetails is the billing contact snapshot taken at checkout time.
// It is embedded into the local subscription record.
type BillingDetails struct {
	FirstName  string `gorm:"type:varchar(100)" json:"firstName"`
	LastName   string `gorm:"type:varchar(100)" json:"lastName"`
	Address    string `gorm:"type:varchar(255)" json:"address"`
	City       string `gorm:"type:varchar(100)" json:"city"`
	State      string `gorm:"type:varchar(100)" json:"state"`
	ZipCode    string `gorm:"type:varchar(20)" json:"zipCode"`
	NameOnCard string `gorm:"type:varchar(150)" json:"nameOnCard"`
}

// Subscription is the durable local mirror of a user's Stripe subscription.
// At most one row per user should exist; checkout enforces this by deleting
// all prior rows before inserting the new one.
type Subscription struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	UserID               uint           `gorm:"not null;index" json:"user_id"`
	PlanID               string         `gorm:"type:varchar(191);not null" json:"plan_id"`
	Status               string         `gorm:"type:varchar(32);not null;default:'active';index" json:"status"`
	PaymentMethod        string         `gorm:"type:varchar(191)" json:"payment_method"`
	StripeSubscriptionID string         `gorm:"type:varchar(191);not null;index" json:"stripe_subscription_id"`
	StripeCustomerID     string         `gorm:"type:varchar(191);not null" json:"stripe_customer_id"`
	CouponUsed           string         `gorm:"type:varchar(100);default:''" json:"coupon_used"`
	OriginalPrice        int64          `gorm:"not null;default:0" json:"original_price"`
	FinalPrice           int64          `gorm:"not null;default:0" json:"final_price"`
	DiscountAmount       int64          `gorm:"not null;default:0" json:"discount_amount"`
	BillingDetails       BillingDetails `gorm:"embedded;embeddedPrefix:billing_" json:"billing_details"`
	CreatedAt            time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsActive reports whether the mirrored subscription entitles the user.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
