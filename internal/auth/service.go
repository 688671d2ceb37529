package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jordanmarch/upkeep-backend/internal/users"
	pkgAuth "github.com/jordanmarch/upkeep-backend/pkg/auth"
	"github.com/jordanmarch/upkeep-backend/pkg/auth/session"
	"github.com/jordanmarch/upkeep-backend/pkg/config"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/oauth"
)

const invalidSessionMessage = "invalid session"

// Service defines the behavior needed by the auth controller.
type Service interface {
	SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, accessID string) error
}

type userDirectory interface {
	EnsureUser(ctx context.Context, principal oauth.Principal) (*users.UserDTO, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	verifier oauth.Verifier
	users    userDirectory
	session  sessionManager
	jwtCfg   config.JWTConfig
	now      func() time.Time
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Verifier       oauth.Verifier
	Users          userDirectory
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Logger         *logger.Logger
}

// NewService constructs the sign-in service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Verifier == nil {
		return nil, fmt.Errorf("oauth verifier is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		verifier: params.Verifier,
		users:    params.Users,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		now:      time.Now,
		logg:     params.Logger,
	}, nil
}

// SignIn verifies the provider token, finds or lazily creates the user, and
// issues an access/refresh token pair.
func (s *service) SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	principal, err := s.verifier.Verify(ctx, req.ProviderToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.EnsureUser(ctx, *principal)
	if err != nil {
		return nil, err
	}

	accessID := session.NewAccessID()
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user signed in")
	return &SignInResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh rotates the refresh session tied to the (possibly expired) access
// token and mints a fresh pair.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidSessionMessage)
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidSessionMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout revokes the refresh session tied to the caller's access id.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}
