package repository

import (
	"github.com/boxbinhq/boxbin/app/models"
	"gorm.io/gorm"
)

// locationRepository implements the LocationRepository interface
type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository creates a new location repository instance
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) Create(location *models.Location) error {
	return r.db.Create(location).Error
}

func (r *locationRepository) GetByID(id uint) (*models.Location, error) {
	var location models.Location
	err := r.db.First(&location, id).Error
	if err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *locationRepository) GetByUserID(userID uint) ([]models.Location, error) {
	var locations []models.Location
	err := r.db.Where("user_id = ?", userID).Order("name ASC").Find(&locations).Error
	return locations, err
}

func (r *locationRepository) Update(location *models.Location) error {
	return r.db.Save(location).Error
}

// Delete removes a location and detaches its bins (bins survive without a
// location; their items are untouched).
func (r *locationRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Bin{}).Where("location_id = ?", id).Update("location_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Location{}, id).Error
	})
}

func (r *locationRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Location{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// binRepository implements the BinRepository interface
type binRepository struct {
	db *gorm.DB
}

// NewBinRepository creates a new bin repository instance
func NewBinRepository(db *gorm.DB) BinRepository {
	return &binRepository{db: db}
}

func (r *binRepository) Create(bin *models.Bin) error {
	return r.db.Create(bin).Error
}

func (r *binRepository) GetByID(id uint) (*models.Bin, error) {
	var bin models.Bin
	err := r.db.Preload("Location").First(&bin, id).Error
	if err != nil {
		return nil, err
	}
	return &bin, nil
}

func (r *binRepository) GetByQRSlug(slug string) (*models.Bin, error) {
	var bin models.Bin
	err := r.db.Preload("Location").Where("qr_slug = ?", slug).First(&bin).Error
	if err != nil {
		return nil, err
	}
	return &bin, nil
}

func (r *binRepository) GetByUserID(userID uint, offset, limit int) ([]models.Bin, error) {
	var bins []models.Bin
	err := r.db.Preload("Location").
		Where("user_id = ?", userID).
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&bins).Error
	return bins, err
}

func (r *binRepository) GetByLocationID(locationID uint) ([]models.Bin, error) {
	var bins []models.Bin
	err := r.db.Where("location_id = ?", locationID).Order("name ASC").Find(&bins).Error
	return bins, err
}

func (r *binRepository) Update(bin *models.Bin) error {
	return r.db.Save(bin).Error
}

// Delete removes a bin together with its items.
func (r *binRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bin_id = ?", id).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Bin{}, id).Error
	})
}

func (r *binRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Bin{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *binRepository) Search(userID uint, query string) ([]models.Bin, error) {
	var bins []models.Bin
	like := "%" + query + "%"
	err := r.db.Preload("Location").
		Where("user_id = ? AND (name LIKE ? OR description LIKE ?)", userID, like, like).
		Order("name ASC").
		Find(&bins).Error
	return bins, err
}

// itemRepository implements the ItemRepository interface
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository instance
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(item *models.Item) error {
	return r.db.Create(item).Error
}

func (r *itemRepository) GetByID(id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) GetByBinID(binID uint, offset, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.Where("bin_id = ?", binID).Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error
	return items, err
}

func (r *itemRepository) GetByUserID(userID uint, offset, limit int) ([]models.Item, error) {
	var items []models.Item
	err := r.db.Where("user_id = ?", userID).Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error
	return items, err
}

func (r *itemRepository) Update(item *models.Item) error {
	return r.db.Save(item).Error
}

func (r *itemRepository) Delete(id uint) error {
	return r.db.Delete(&models.Item{}, id).Error
}

func (r *itemRepository) CountByBinID(binID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Item{}).Where("bin_id = ?", binID).Count(&count).Error
	return count, err
}

func (r *itemRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Item{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *itemRepository) Search(userID uint, query string) ([]models.Item, error) {
	var items []models.Item
	like := "%" + query + "%"
	err := r.db.Where("user_id = ? AND (name LIKE ? OR description LIKE ?)", userID, like, like).
		Order("name ASC").
		Find(&items).Error
	return items, err
}
