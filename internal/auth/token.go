package auth

import (
	"context"
	"errors"

	"github.com/fivetwenty-io/d365-client/pkg/d365"
)

// Static errors for err113 compliance.
var (
	ErrEmptyStaticToken = errors.New("static token is empty")
)

// Token is the login result shared with the public API.
type Token = d365.Token

// TokenManager supplies the bearer token attached to data requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
}

// StaticTokenManager always returns the token it was built with. Tokens are
// obtained once and never refreshed; expiry is the caller's concern.
type StaticTokenManager struct {
	token string
}

// NewStaticTokenManager wraps an already obtained bearer token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

// GetToken returns the wrapped token.
func (m *StaticTokenManager) GetToken(_ context.Context) (string, error) {
	if m.token == "" {
		return "", ErrEmptyStaticToken
	}

	return m.token, nil
}
