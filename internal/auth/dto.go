package auth

import (
	"github.com/jordanmarch/upkeep-backend/internal/users"
)

// SignInRequest carries the provider-issued bearer token.
type SignInRequest struct {
	ProviderToken string `json:"provider_token" validate:"required"`
}

// SignInResponse contains the token pair and profile for a signed-in user.
type SignInResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest carries the expired access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse contains the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
