package repository

import (
	"github.com/boxbinhq/boxbin/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	GetOrCreateByProviderAccount(provider, providerUserID, email, name string) (*models.User, error)
}

// SubscriptionRepository defines database operations on the local
// subscription mirror. ReplaceForUser implements the
// delete-all-then-insert-one step of checkout inside one transaction.
type SubscriptionRepository interface {
	ReplaceForUser(userID uint, sub *models.Subscription) error
	GetByUserID(userID uint) (*models.Subscription, error)
	GetActiveByUserID(userID uint) (*models.Subscription, error)
	ListByUserID(userID uint) ([]models.Subscription, error)
	DeleteAllForUser(userID uint) (int64, error)
	UpdatePlan(id uint, planID string) error
	UpdateStatusByStripeID(stripeSubscriptionID, status string) (int64, error)
	CountForUser(userID uint) (int64, error)
}

// LocationRepository defines location CRUD.
type LocationRepository interface {
	Create(location *models.Location) error
	GetByID(id uint) (*models.Location, error)
	GetByUserID(userID uint) ([]models.Location, error)
	Update(location *models.Location) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
}

// BinRepository defines bin CRUD plus QR slug resolution.
type BinRepository interface {
	Create(bin *models.Bin) error
	GetByID(id uint) (*models.Bin, error)
	GetByQRSlug(slug string) (*models.Bin, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Bin, error)
	GetByLocationID(locationID uint) ([]models.Bin, error)
	Update(bin *models.Bin) error
	Delete(id uint) error
	CountByUserID(userID uint) (int64, error)
	Search(userID uint, query string) ([]models.Bin, error)
}

// ItemRepository defines item CRUD.
type ItemRepository interface {
	Create(item *models.Item) error
	GetByID(id uint) (*models.Item, error)
	GetByBinID(binID uint, offset, limit int) ([]models.Item, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Item, error)
	Update(item *models.Item) error
	Delete(id uint) error
	CountByBinID(binID uint) (int64, error)
	CountByUserID(userID uint) (int64, error)
	Search(userID uint, query string) ([]models.Item, error)
}

// ShareRepository defines inventory share operations.
type ShareRepository interface {
	Create(share *models.InventoryShare) error
	GetByID(id uint) (*models.InventoryShare, error)
	GetByInviteToken(token string) (*models.InventoryShare, error)
	GetByOwnerID(ownerID uint) ([]models.InventoryShare, error)
	GetByGranteeUserID(granteeUserID uint) ([]models.InventoryShare, error)
	GetForOwnerAndGrantee(ownerID, granteeUserID uint) (*models.InventoryShare, error)
	Update(share *models.InventoryShare) error
	Delete(id uint) error
}

// WebhookEventRepository persists billing webhook events idempotently.
type WebhookEventRepository interface {
	CreateIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkProcessed(id uint, processingError string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Subscription SubscriptionRepository
	Location     LocationRepository
	Bin          BinRepository
	Item         ItemRepository
	Share        ShareRepository
	WebhookEvent WebhookEventRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Location:     NewLocationRepository(db),
		Bin:          NewBinRepository(db),
		Item:         NewItemRepository(db),
		Share:        NewShareRepository(db),
		WebhookEvent: NewWebhookEventRepository(db),
	}
}
