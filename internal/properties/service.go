package properties

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
)

type propertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Property, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Property, error)
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListShares(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyShare, error)
	ListSharesForUser(ctx context.Context, userID uuid.UUID) ([]models.PropertyShare, error)
	UpsertShare(ctx context.Context, propertyID, userID uuid.UUID, role enums.ShareRole) (*models.PropertyShare, error)
	DeleteShare(ctx context.Context, propertyID, userID uuid.UUID) error
}

type userLinker interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	LinkProperty(ctx context.Context, userID, propertyID uuid.UUID) error
	UnlinkProperty(ctx context.Context, userID, propertyID uuid.UUID) error
}

// Service exposes property registry operations.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreatePropertyInput) (*PropertyDTO, error)
	GetByID(ctx context.Context, userID, propertyID uuid.UUID) (*PropertyDTO, error)
	Update(ctx context.Context, userID, propertyID uuid.UUID, input UpdatePropertyInput) (*PropertyDTO, error)
	Delete(ctx context.Context, userID, propertyID uuid.UUID) error
	Share(ctx context.Context, actorID, propertyID, targetUserID uuid.UUID, role enums.ShareRole) (*PropertyDTO, error)
	Unshare(ctx context.Context, actorID, propertyID, targetUserID uuid.UUID) (*PropertyDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]PropertyDTO, error)
	ResolvePermissions(ctx context.Context, userID, propertyID uuid.UUID) (Permissions, error)
	ViewableIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type service struct {
	repo  propertyRepository
	users userLinker
	cache *RecordCache
	logg  *logger.Logger
}

// NewService builds a property service with the provided repositories. The
// cache may be nil, in which case every read hits the store.
func NewService(repo propertyRepository, users userLinker, cache *RecordCache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("property repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, users: users, cache: cache, logg: logg}, nil
}

// load fetches the record, preferring the cache. Returns nil (no error) when
// the record does not exist.
func (s *service) load(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	if cached := s.cache.Get(ctx, propertyID); cached != nil {
		return cached, nil
	}

	property, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	s.cache.Put(ctx, property)
	return property, nil
}

func (s *service) invalidate(ctx context.Context, propertyID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, propertyID); err != nil {
		s.logg.Warn(s.logg.WithPropertyID(ctx, propertyID.String()), "property cache invalidation failed")
	}
}

func (s *service) ResolvePermissions(ctx context.Context, userID, propertyID uuid.UUID) (Permissions, error) {
	property, err := s.load(ctx, propertyID)
	if err != nil {
		return NoPermissions(), err
	}
	if property == nil {
		return NoPermissions(), nil
	}

	shares, err := s.repo.ListShares(ctx, propertyID)
	if err != nil {
		return NoPermissions(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list property shares")
	}
	return resolvePermissions(property, shares, userID), nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreatePropertyInput) (*PropertyDTO, error) {
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid property type %q", input.Type))
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}

	historyVisible := true
	if input.HistoryVisible != nil {
		historyVisible = *input.HistoryVisible
	}

	property := &models.Property{
		OwnerID:        ownerID,
		Address:        address,
		Type:           input.Type,
		Notes:          input.Notes,
		PhotoURL:       input.PhotoURL,
		Status:         enums.PropertyStatusActive,
		HistoryVisible: historyVisible,
	}
	if err := s.repo.Create(ctx, property); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create property")
	}

	if err := s.users.LinkProperty(ctx, ownerID, property.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link property to owner")
	}

	ctx = s.logg.WithPropertyID(ctx, property.ID.String())
	s.logg.Info(ctx, "property registered")
	return FromModel(property, nil), nil
}

func (s *service) GetByID(ctx context.Context, userID, propertyID uuid.UUID) (*PropertyDTO, error) {
	property, err := s.load(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}

	shares, err := s.repo.ListShares(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list property shares")
	}
	perms := resolvePermissions(property, shares, userID)
	if !perms.CanView {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}
	return FromModel(property, shares), nil
}

// Update applies the mutable fields. OwnerID in the input is dropped without
// error; ownership is fixed at creation.
func (s *service) Update(ctx context.Context, userID, propertyID uuid.UUID, input UpdatePropertyInput) (*PropertyDTO, error) {
	property, err := s.load(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}

	shares, err := s.repo.ListShares(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list property shares")
	}
	perms := resolvePermissions(property, shares, userID)
	if !perms.CanEdit {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not editable")
	}

	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "address cannot be empty")
		}
		property.Address = address
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid property type %q", *input.Type))
		}
		property.Type = *input.Type
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid property status %q", *input.Status))
		}
		property.Status = *input.Status
	}
	if input.Notes != nil {
		property.Notes = input.Notes
	}
	if input.PhotoURL != nil {
		property.PhotoURL = input.PhotoURL
	}
	if input.HistoryVisible != nil {
		property.HistoryVisible = *input.HistoryVisible
	}
	property.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, property); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update property")
	}
	s.invalidate(ctx, propertyID)

	return FromModel(property, shares), nil
}

func (s *service) Delete(ctx context.Context, userID, propertyID uuid.UUID) error {
	property, err := s.load(ctx, propertyID)
	if err != nil {
		return err
	}
	if property == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}
	if property.OwnerID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can delete a property")
	}

	if err := s.repo.Delete(ctx, propertyID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete property")
	}
	s.invalidate(ctx, propertyID)

	if err := s.users.UnlinkProperty(ctx, userID, propertyID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unlink property from owner")
	}

	ctx = s.logg.WithPropertyID(ctx, propertyID.String())
	s.logg.Info(ctx, "property deleted")
	return nil
}

// Share grants or updates a user's role on a property. Re-sharing the same
// target replaces the existing role instead of adding a duplicate entry.
func (s *service) Share(ctx context.Context, actorID, propertyID, targetUserID uuid.UUID, role enums.ShareRole) (*PropertyDTO, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid share role %q", role))
	}

	property, err := s.load(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}
	if property.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can share a property")
	}
	if targetUserID == property.OwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot share a property with its owner")
	}

	if _, err := s.users.FindByID(ctx, targetUserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "target user does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target user")
	}

	if _, err := s.repo.UpsertShare(ctx, propertyID, targetUserID, role); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert property share")
	}
	s.invalidate(ctx, propertyID)

	shares, err := s.repo.ListShares(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list property shares")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"property_id": propertyID.String(),
		"target_user": targetUserID.String(),
		"role":        role.String(),
	})
	s.logg.Info(ctx, "property shared")
	return FromModel(property, shares), nil
}

// Unshare revokes a user's access. Revoking a user who holds no share is a
// no-op that still succeeds.
func (s *service) Unshare(ctx context.Context, actorID, propertyID, targetUserID uuid.UUID) (*PropertyDTO, error) {
	property, err := s.load(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property not accessible")
	}
	if property.OwnerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can revoke access")
	}

	if err := s.repo.DeleteShare(ctx, propertyID, targetUserID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete property share")
	}
	s.invalidate(ctx, propertyID)

	shares, err := s.repo.ListShares(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list property shares")
	}
	return FromModel(property, shares), nil
}

// ListForUser returns every property the user can view: owned first, then
// shared, each with its share list attached.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]PropertyDTO, error) {
	owned, err := s.repo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owned properties")
	}

	grants, err := s.repo.ListSharesForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list share grants")
	}

	sharedIDs := make([]uuid.UUID, 0, len(grants))
	for _, grant := range grants {
		sharedIDs = append(sharedIDs, grant.PropertyID)
	}
	shared, err := s.repo.FindByIDs(ctx, sharedIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shared properties")
	}

	out := make([]PropertyDTO, 0, len(owned)+len(shared))
	for _, property := range append(owned, shared...) {
		shares, err := s.repo.ListShares(ctx, property.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list property shares")
		}
		out = append(out, *FromModel(&property, shares))
	}
	return out, nil
}

// ViewableIDs returns the ids of every property the user owns or has been
// granted access to. Used by task readers to scope bulk queries.
func (s *service) ViewableIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	owned, err := s.repo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owned properties")
	}
	grants, err := s.repo.ListSharesForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list share grants")
	}

	seen := make(map[uuid.UUID]struct{}, len(owned)+len(grants))
	ids := make([]uuid.UUID, 0, len(owned)+len(grants))
	for _, property := range owned {
		if _, ok := seen[property.ID]; ok {
			continue
		}
		seen[property.ID] = struct{}{}
		ids = append(ids, property.ID)
	}
	for _, grant := range grants {
		if _, ok := seen[grant.PropertyID]; ok {
			continue
		}
		seen[grant.PropertyID] = struct{}{}
		ids = append(ids, grant.PropertyID)
	}
	return ids, nil
}
