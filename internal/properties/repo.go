package properties

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
)

// Repository handles property persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to property operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new property row.
func (r *Repository) Create(ctx context.Context, property *models.Property) error {
	if property == nil {
		return fmt.Errorf("property is required")
	}
	return r.db.WithContext(ctx).Create(property).Error
}

// FindByID loads a property by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// FindByOwner returns all properties owned by the provided user.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error) {
	var properties []models.Property
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

// FindByIDs loads the properties matching the provided ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Property, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var properties []models.Property
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

// Update saves the provided property.
func (r *Repository) Update(ctx context.Context, property *models.Property) error {
	if property == nil {
		return fmt.Errorf("property is required")
	}
	return r.db.WithContext(ctx).Save(property).Error
}

// Delete removes the property row and its shares.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("property_id = ?", id).
		Delete(&models.PropertyShare{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Property{}, "id = ?", id).Error
}

// ListShares returns the share entries for a property.
func (r *Repository) ListShares(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyShare, error) {
	var shares []models.PropertyShare
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at").
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// ListSharesForUser returns every share entry granted to the user.
func (r *Repository) ListSharesForUser(ctx context.Context, userID uuid.UUID) ([]models.PropertyShare, error) {
	var shares []models.PropertyShare
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&shares).Error
	if err != nil {
		return nil, err
	}
	return shares, nil
}

// UpsertShare inserts a share entry or replaces the role of an existing one.
// The (property_id, user_id) unique index guarantees a single row per sharee.
func (r *Repository) UpsertShare(ctx context.Context, propertyID, userID uuid.UUID, role enums.ShareRole) (*models.PropertyShare, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid share role %q", role)
	}

	share := &models.PropertyShare{
		PropertyID: propertyID,
		UserID:     userID,
		Role:       role,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "property_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(share).Error
	if err != nil {
		return nil, err
	}
	return share, nil
}

// DeleteShare removes a single share entry.
func (r *Repository) DeleteShare(ctx context.Context, propertyID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("property_id = ? AND user_id = ?", propertyID, userID).
		Delete(&models.PropertyShare{}).Error
}
