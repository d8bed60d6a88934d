package repository

import (
	"github.com/boxbinhq/boxbin/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// ReplaceForUser deletes every existing subscription row for the user and
// inserts the new one. Both statements run inside one transaction so a single
// checkout never leaves zero or two rows behind; concurrent checkouts for the
// same user still race last-writer-wins.
func (r *subscriptionRepository) ReplaceForUser(userID uint, sub *models.Subscription) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Subscription{}).Error; err != nil {
			return err
		}
		sub.UserID = userID
		return tx.Create(sub).Error
	})
}

// GetByUserID returns the newest subscription row for the user.
func (r *subscriptionRepository) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveByUserID returns the single active row for the user.
func (r *subscriptionRepository) GetActiveByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUserID returns all rows for the user. More than one row means the
// at-most-one invariant is currently violated (see checkout cleanup).
func (r *subscriptionRepository) ListByUserID(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("user_id = ?", userID).Find(&subs).Error
	return subs, err
}

// DeleteAllForUser removes every subscription row for the user as one batch
// and reports how many rows were removed. Zero rows is not an error.
func (r *subscriptionRepository) DeleteAllForUser(userID uint) (int64, error) {
	tx := r.db.Where("user_id = ?", userID).Delete(&models.Subscription{})
	return tx.RowsAffected, tx.Error
}

// UpdatePlan swaps the plan id on an existing row (upgrade path).
func (r *subscriptionRepository) UpdatePlan(id uint, planID string) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).Update("plan_id", planID).Error
}

// UpdateStatusByStripeID syncs the mirrored lifecycle status for the row
// matching a remote subscription id (webhook path). Returns affected rows.
func (r *subscriptionRepository) UpdateStatusByStripeID(stripeSubscriptionID, status string) (int64, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Update("status", status)
	return tx.RowsAffected, tx.Error
}

// CountForUser returns the number of rows for the user.
func (r *subscriptionRepository) CountForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
