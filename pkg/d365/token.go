package d365

import (
	"time"

	"github.com/fivetwenty-io/d365-client/internal/constants"
)

// Token is an access token issued by the identity platform. It is obtained
// once and never refreshed; callers check Valid and log in again themselves.
type Token struct {
	AccessToken string    `json:"access_token" yaml:"access_token"`
	TokenType   string    `json:"token_type"   yaml:"token_type"`
	ExpiresIn   int64     `json:"expires_in"   yaml:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"   yaml:"expires_at"`
}

// Valid reports whether the token is non-empty and more than
// constants.TokenExpiryBuffer away from expiry. A zero ExpiresAt is treated
// as non-expiring.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpiryBuffer).Before(t.ExpiresAt)
}
