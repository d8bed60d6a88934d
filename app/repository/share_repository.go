package repository

import (
	"time"

	"github.com/boxbinhq/boxbin/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// shareRepository implements the ShareRepository interface
type shareRepository struct {
	db *gorm.DB
}

// NewShareRepository creates a new share repository instance
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) Create(share *models.InventoryShare) error {
	return r.db.Create(share).Error
}

func (r *shareRepository) GetByID(id uint) (*models.InventoryShare, error) {
	var share models.InventoryShare
	err := r.db.First(&share, id).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *shareRepository) GetByInviteToken(token string) (*models.InventoryShare, error) {
	var share models.InventoryShare
	err := r.db.Where("invite_token = ?", token).First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *shareRepository) GetByOwnerID(ownerID uint) ([]models.InventoryShare, error) {
	var shares []models.InventoryShare
	err := r.db.Where("owner_id = ?", ownerID).Find(&shares).Error
	return shares, err
}

func (r *shareRepository) GetByGranteeUserID(granteeUserID uint) ([]models.InventoryShare, error) {
	var shares []models.InventoryShare
	err := r.db.Where("grantee_user_id = ?", granteeUserID).Find(&shares).Error
	return shares, err
}

func (r *shareRepository) GetForOwnerAndGrantee(ownerID, granteeUserID uint) (*models.InventoryShare, error) {
	var share models.InventoryShare
	err := r.db.Where("owner_id = ? AND grantee_user_id = ?", ownerID, granteeUserID).First(&share).Error
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *shareRepository) Update(share *models.InventoryShare) error {
	return r.db.Save(share).Error
}

func (r *shareRepository) Delete(id uint) error {
	return r.db.Delete(&models.InventoryShare{}, id).Error
}

// webhookEventRepository implements the WebhookEventRepository interface
type webhookEventRepository struct {
	db *gorm.DB
}

// NewWebhookEventRepository creates a new webhook event repository instance
func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

// CreateIfNotExists inserts the event unless one with the same
// (provider, provider_event_id) already exists. Returns whether the row was
// newly created plus the stored row.
func (r *webhookEventRepository) CreateIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// MarkProcessed marks an event as processed and stores an optional error.
func (r *webhookEventRepository) MarkProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
