package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/oauth"
)

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePropertyIDs(ctx context.Context, id uuid.UUID, propertyIDs []uuid.UUID) error
	UpsertRelationship(ctx context.Context, userID, propertyID uuid.UUID, label string) (*models.PropertyRelationship, error)
	DeleteRelationship(ctx context.Context, userID, propertyID uuid.UUID) error
	ListRelationships(ctx context.Context, userID uuid.UUID) ([]models.PropertyRelationship, error)
}

type permissionResolver interface {
	ResolvePermissions(ctx context.Context, userID, propertyID uuid.UUID) (properties.Permissions, error)
}

// Service exposes the user directory operations.
type Service interface {
	EnsureUser(ctx context.Context, principal oauth.Principal) (*UserDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	SetRelationship(ctx context.Context, userID, propertyID uuid.UUID, label string) (*RelationshipDTO, error)
	RemoveRelationship(ctx context.Context, userID, propertyID uuid.UUID) error
	ListRelationships(ctx context.Context, userID uuid.UUID) ([]RelationshipDTO, error)
}

type service struct {
	repo  userRepository
	perms permissionResolver
	now   func() time.Time
	logg  *logger.Logger
}

// NewService builds the users service. The permission resolver guards
// relationship labels so a user cannot label a property they cannot view.
func NewService(repo userRepository, perms permissionResolver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if perms == nil {
		return nil, fmt.Errorf("permission resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, perms: perms, now: time.Now, logg: logg}, nil
}

// EnsureUser finds or lazily creates the user for a verified identity. An
// existing record gets its profile refreshed from the provider; a new one is
// created with defaults. Both paths bump last_login_at.
func (s *service) EnsureUser(ctx context.Context, principal oauth.Principal) (*UserDTO, error) {
	subject := strings.TrimSpace(principal.Subject)
	if subject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity subject missing")
	}
	email := strings.TrimSpace(principal.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity email missing")
	}

	user, err := s.repo.FindByProviderID(ctx, subject)
	switch {
	case err == nil:
		changed := false
		if user.Email != email {
			user.Email = email
			changed = true
		}
		if displayName := strings.TrimSpace(principal.DisplayName); displayName != "" && user.DisplayName != displayName {
			user.DisplayName = displayName
			changed = true
		}
		if avatar := strings.TrimSpace(principal.AvatarURL); avatar != "" {
			if user.AvatarURL == nil || *user.AvatarURL != avatar {
				user.AvatarURL = &avatar
				changed = true
			}
		}
		if changed {
			if err := s.repo.Update(ctx, user); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh user profile")
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		displayName := strings.TrimSpace(principal.DisplayName)
		if displayName == "" {
			displayName = email
		}
		create := CreateUserDTO{
			ProviderID:  subject,
			Email:       email,
			DisplayName: displayName,
		}
		if avatar := strings.TrimSpace(principal.AvatarURL); avatar != "" {
			create.AvatarURL = &avatar
		}
		user, err = s.repo.Create(ctx, create)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user created on first sign-in")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}

	at := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, at); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &at

	return FromModel(user), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

// SetRelationship stores the user's personal label for a property. Setting a
// label on an already-labeled property replaces it.
func (s *service) SetRelationship(ctx context.Context, userID, propertyID uuid.UUID, label string) (*RelationshipDTO, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "label is required")
	}

	perms, err := s.perms.ResolvePermissions(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}
	if !perms.CanView {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}

	relationship, err := s.repo.UpsertRelationship(ctx, userID, propertyID, label)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert relationship")
	}
	return RelationshipFromModel(relationship), nil
}

func (s *service) RemoveRelationship(ctx context.Context, userID, propertyID uuid.UUID) error {
	if err := s.repo.DeleteRelationship(ctx, userID, propertyID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete relationship")
	}
	return nil
}

func (s *service) ListRelationships(ctx context.Context, userID uuid.UUID) ([]RelationshipDTO, error) {
	relationships, err := s.repo.ListRelationships(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list relationships")
	}
	out := make([]RelationshipDTO, 0, len(relationships))
	for i := range relationships {
		out = append(out, *RelationshipFromModel(&relationships[i]))
	}
	return out, nil
}

// LinkedRepository adapts the users repo to the property registry's need to
// keep the owner's property_ids array in sync.
type LinkedRepository struct {
	*Repository
}

// LinkProperty appends the property to the user's property_ids array.
func (r *LinkedRepository) LinkProperty(ctx context.Context, userID, propertyID uuid.UUID) error {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PropertyIDs.Contains(propertyID) {
		return nil
	}
	return r.UpdatePropertyIDs(ctx, userID, append([]uuid.UUID(user.PropertyIDs), propertyID))
}

// UnlinkProperty removes the property from the user's property_ids array.
func (r *LinkedRepository) UnlinkProperty(ctx context.Context, userID, propertyID uuid.UUID) error {
	user, err := r.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.PropertyIDs.Contains(propertyID) {
		return nil
	}
	return r.UpdatePropertyIDs(ctx, userID, []uuid.UUID(user.PropertyIDs.Without(propertyID)))
}
