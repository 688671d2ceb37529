package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	dbtypes "github.com/jordanmarch/upkeep-backend/pkg/db/types"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByProviderID retrieves the user matching the identity provider subject.
func (r *Repository) FindByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("provider_id = ?", providerID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves the provided user record.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdatePropertyIDs overwrites the user's property_ids array. The slice is
// wrapped in the array column type so its Valuer produces the literal form
// under both drivers.
func (r *Repository) UpdatePropertyIDs(ctx context.Context, id uuid.UUID, propertyIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("property_ids", dbtypes.UUIDArray(propertyIDs)).Error
}

// UpsertRelationship inserts or replaces the user's label for a property.
func (r *Repository) UpsertRelationship(ctx context.Context, userID, propertyID uuid.UUID, label string) (*models.PropertyRelationship, error) {
	var relationship models.PropertyRelationship
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		First(&relationship).Error
	switch {
	case err == nil:
		relationship.Label = label
		if err := r.db.WithContext(ctx).Save(&relationship).Error; err != nil {
			return nil, err
		}
		return &relationship, nil
	case err == gorm.ErrRecordNotFound:
		relationship = models.PropertyRelationship{
			UserID:     userID,
			PropertyID: propertyID,
			Label:      label,
		}
		if err := r.db.WithContext(ctx).Create(&relationship).Error; err != nil {
			return nil, err
		}
		return &relationship, nil
	default:
		return nil, err
	}
}

// DeleteRelationship removes the user's label for a property, if any.
func (r *Repository) DeleteRelationship(ctx context.Context, userID, propertyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&models.PropertyRelationship{}).Error
}

// ListRelationships returns all of the user's property labels.
func (r *Repository) ListRelationships(ctx context.Context, userID uuid.UUID) ([]models.PropertyRelationship, error) {
	var relationships []models.PropertyRelationship
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&relationships).Error
	if err != nil {
		return nil, err
	}
	return relationships, nil
}
