package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jordanmarch/upkeep-backend/pkg/config"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 64 * 1024

var errUserinfoURLRequired = errors.New("oauth userinfo url is required")

// Principal is the authenticated identity returned by the provider. The
// provider itself is a black box: whatever accepts the bearer token decides
// who the caller is.
type Principal struct {
	Subject     string `json:"sub"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	AvatarURL   string `json:"picture"`
}

// Verifier resolves a provider-issued bearer token into a Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// Client calls the provider's OIDC userinfo endpoint.
type Client struct {
	httpClient *http.Client
	userinfo   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the provider client from configuration.
func NewClient(cfg config.OAuthConfig, opts ...Option) (*Client, error) {
	url := strings.TrimSpace(cfg.UserinfoURL)
	if url == "" {
		return nil, errUserinfoURLRequired
	}

	client := &Client{
		userinfo:   url,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return client, nil
}

// Verify exchanges the bearer token for the provider's profile claims.
func (c *Client) Verify(ctx context.Context, token string) (*Principal, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "oauth client not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider token is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfo, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call identity provider")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read userinfo response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "provider rejected token")
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
	}

	var principal Principal
	if err := json.Unmarshal(body, &principal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode userinfo response")
	}
	if strings.TrimSpace(principal.Subject) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "userinfo response missing subject")
	}

	return &principal, nil
}
