package repository

import (
	"errors"
	"strings"

	"github.com/boxbinhq/boxbin/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByActivationToken retrieves a user by their activation token. Activated
// accounts carry an empty token, so a blank lookup never matches.
func (r *userRepository) GetByActivationToken(token string) (*models.User, error) {
	if token == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var user models.User
	err := r.db.Where("activation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves a paginated list of users
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// GetOrCreateByProviderAccount resolves an OAuth identity to a local user,
// creating both the user and the provider link on first login. If a user with
// the same email already exists the provider account is attached to it.
func (r *userRepository) GetOrCreateByProviderAccount(provider, providerUserID, email, name string) (*models.User, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	providerUserID = strings.TrimSpace(providerUserID)
	if provider == "" || providerUserID == "" {
		return nil, errors.New("provider and provider_user_id are required")
	}

	var account models.ProviderAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&account).Error
	if err == nil {
		return r.GetByID(account.UserID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user *models.User
	txErr := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("email = ?", email).First(&existing).Error
		switch {
		case err == nil:
			user = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			created, err := models.CreateOAuthUser(name, email)
			if err != nil {
				return err
			}
			if err := tx.Create(created).Error; err != nil {
				return err
			}
			user = created
		default:
			return err
		}

		return tx.Create(&models.ProviderAccount{
			UserID:         user.ID,
			Provider:       provider,
			ProviderUserID: providerUserID,
			Email:          email,
		}).Error
	})
	if txErr != nil {
		return nil, txErr
	}
	return user, nil
}
