package users

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/pkg/db/models"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/oauth"
)

type stubUserRepo struct {
	byProvider    map[string]*models.User
	byID          map[uuid.UUID]*models.User
	relationships []models.PropertyRelationship
	err           error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byProvider: map[string]*models.User{},
		byID:       map[uuid.UUID]*models.User{},
	}
}

func (r *stubUserRepo) Create(_ context.Context, dto CreateUserDTO) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	r.byProvider[user.ProviderID] = user
	r.byID[user.ID] = user
	return user, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubUserRepo) FindByProviderID(_ context.Context, providerID string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	user, ok := r.byProvider[providerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *models.User) error {
	if r.err != nil {
		return r.err
	}
	r.byProvider[user.ProviderID] = user
	r.byID[user.ID] = user
	return nil
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if r.err != nil {
		return r.err
	}
	if user, ok := r.byID[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

func (r *stubUserRepo) UpdatePropertyIDs(_ context.Context, id uuid.UUID, propertyIDs []uuid.UUID) error {
	return nil
}

func (r *stubUserRepo) UpsertRelationship(_ context.Context, userID, propertyID uuid.UUID, label string) (*models.PropertyRelationship, error) {
	for i := range r.relationships {
		if r.relationships[i].UserID == userID && r.relationships[i].PropertyID == propertyID {
			r.relationships[i].Label = label
			return &r.relationships[i], nil
		}
	}
	relationship := models.PropertyRelationship{
		ID: uuid.New(), UserID: userID, PropertyID: propertyID, Label: label,
	}
	r.relationships = append(r.relationships, relationship)
	return &relationship, nil
}

func (r *stubUserRepo) DeleteRelationship(_ context.Context, userID, propertyID uuid.UUID) error {
	kept := r.relationships[:0]
	for _, relationship := range r.relationships {
		if relationship.UserID != userID || relationship.PropertyID != propertyID {
			kept = append(kept, relationship)
		}
	}
	r.relationships = kept
	return nil
}

func (r *stubUserRepo) ListRelationships(_ context.Context, userID uuid.UUID) ([]models.PropertyRelationship, error) {
	var out []models.PropertyRelationship
	for _, relationship := range r.relationships {
		if relationship.UserID == userID {
			out = append(out, relationship)
		}
	}
	return out, nil
}

type stubPermissionResolver struct {
	perms properties.Permissions
	err   error
}

func (s stubPermissionResolver) ResolvePermissions(context.Context, uuid.UUID, uuid.UUID) (properties.Permissions, error) {
	return s.perms, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func viewerPerms() properties.Permissions {
	return properties.Permissions{CanView: true}
}

func newTestService(t *testing.T, repo *stubUserRepo, perms stubPermissionResolver) Service {
	t.Helper()
	svc, err := NewService(repo, perms, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestEnsureUserCreatesOnFirstSignIn(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, stubPermissionResolver{})

	dto, err := svc.EnsureUser(context.Background(), oauth.Principal{
		Subject:     "provider|123",
		Email:       "ana@example.com",
		DisplayName: "Ana",
	})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if dto.Email != "ana@example.com" || dto.DisplayName != "Ana" {
		t.Fatalf("unexpected profile: %+v", dto)
	}
	if dto.Timezone != "UTC" {
		t.Fatalf("expected default timezone UTC, got %q", dto.Timezone)
	}
	if dto.LastLoginAt == nil {
		t.Fatal("expected last_login_at to be set")
	}
	if len(repo.byProvider) != 1 {
		t.Fatalf("expected one stored user, got %d", len(repo.byProvider))
	}
}

func TestEnsureUserSecondSignInReusesRecord(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, stubPermissionResolver{})

	first, err := svc.EnsureUser(context.Background(), oauth.Principal{
		Subject: "provider|123",
		Email:   "ana@example.com",
	})
	if err != nil {
		t.Fatalf("first sign-in: %v", err)
	}

	second, err := svc.EnsureUser(context.Background(), oauth.Principal{
		Subject:     "provider|123",
		Email:       "ana@example.com",
		DisplayName: "Ana Updated",
	})
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same user id, got %s and %s", first.ID, second.ID)
	}
	if second.DisplayName != "Ana Updated" {
		t.Fatalf("expected refreshed display name, got %q", second.DisplayName)
	}
	if len(repo.byProvider) != 1 {
		t.Fatalf("expected single user row, got %d", len(repo.byProvider))
	}
}

func TestEnsureUserFallsBackToEmailDisplayName(t *testing.T) {
	svc := newTestService(t, newStubUserRepo(), stubPermissionResolver{})

	dto, err := svc.EnsureUser(context.Background(), oauth.Principal{
		Subject: "provider|456",
		Email:   "no-name@example.com",
	})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if dto.DisplayName != "no-name@example.com" {
		t.Fatalf("expected email fallback display name, got %q", dto.DisplayName)
	}
}

func TestEnsureUserRejectsMissingSubject(t *testing.T) {
	svc := newTestService(t, newStubUserRepo(), stubPermissionResolver{})

	_, err := svc.EnsureUser(context.Background(), oauth.Principal{Email: "ana@example.com"})
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestSetRelationshipReplacesLabel(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, stubPermissionResolver{perms: viewerPerms()})
	userID := uuid.New()
	propertyID := uuid.New()

	if _, err := svc.SetRelationship(context.Background(), userID, propertyID, "Mom's House"); err != nil {
		t.Fatalf("first label: %v", err)
	}
	dto, err := svc.SetRelationship(context.Background(), userID, propertyID, "Rental #2")
	if err != nil {
		t.Fatalf("second label: %v", err)
	}
	if dto.Label != "Rental #2" {
		t.Fatalf("expected replaced label, got %q", dto.Label)
	}
	if len(repo.relationships) != 1 {
		t.Fatalf("expected single relationship row, got %d", len(repo.relationships))
	}
}

func TestSetRelationshipForbiddenWithoutView(t *testing.T) {
	svc := newTestService(t, newStubUserRepo(), stubPermissionResolver{})

	_, err := svc.SetRelationship(context.Background(), uuid.New(), uuid.New(), "Cabin")
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestRemoveRelationshipMissingRowSucceeds(t *testing.T) {
	svc := newTestService(t, newStubUserRepo(), stubPermissionResolver{perms: viewerPerms()})

	if err := svc.RemoveRelationship(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("remove missing relationship: %v", err)
	}
}
