package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
	ErrNoTokenProvider   = errors.New("no cached token and no token provider configured")
)

// ConfigPersister saves a token obtained by login so later invocations can
// reuse it.
type ConfigPersister interface {
	SaveToken(hostname string, token *Token) error
}

// ConfigTokenManager serves a cached token while it is valid and otherwise
// logs in once through its provider and persists the result. It never
// refreshes a token it has already handed out.
type ConfigTokenManager struct {
	provider        TokenProvider
	configPersister ConfigPersister
	hostname        string
	mutex           sync.Mutex
	token           *Token
}

// NewConfigTokenManager creates a new config-persisting token manager.
// cached may be nil.
func NewConfigTokenManager(provider TokenProvider, configPersister ConfigPersister, hostname string, cached *Token) *ConfigTokenManager {
	return &ConfigTokenManager{
		provider:        provider,
		configPersister: configPersister,
		hostname:        hostname,
		token:           cached,
	}
}

// GetToken returns the cached token, logging in first when there is none
// or it has expired.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.token.Valid() {
		return m.token.AccessToken, nil
	}

	if m.provider == nil {
		return "", ErrNoTokenProvider
	}

	token, err := m.provider.Login(ctx)
	if err != nil {
		return "", err
	}

	m.token = token

	persistErr := m.persistToken(token)
	if persistErr != nil && !errors.Is(persistErr, ErrNoConfigPersister) {
		// The token is still usable for this invocation.
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist token: %v\n", persistErr)
	}

	return token.AccessToken, nil
}

// Token returns the token currently held, or nil before the first login.
func (m *ConfigTokenManager) Token() *Token {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.token
}

// GetTokenExpiry returns the current token's expiration time.
func (m *ConfigTokenManager) GetTokenExpiry() time.Time {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.token == nil {
		return time.Time{}
	}

	return m.token.ExpiresAt
}

// persistToken saves the token to config.
func (m *ConfigTokenManager) persistToken(token *Token) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.SaveToken(m.hostname, token)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}
