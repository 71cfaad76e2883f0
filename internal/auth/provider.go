package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
)

// TokenProvider exchanges client credentials for a bearer token.
//
// Login issues exactly one request. A non-success answer from the token
// endpoint is reported as d365.ErrNoToken without inspecting the body;
// transport failures are returned wrapped.
type TokenProvider interface {
	Login(ctx context.Context) (*Token, error)
	Version() d365.OAuthVersion
}

// ProviderConfig configures a TokenProvider.
type ProviderConfig struct {
	Credentials d365.Credentials
	// Version selects the endpoint flavour; zero selects d365.OAuthV1.
	Version d365.OAuthVersion
	// LoginURL overrides https://login.microsoftonline.com.
	LoginURL string
	// HTTPTimeout bounds the token request. Zero leaves it unbounded.
	HTTPTimeout time.Duration
	// Logger is optional.
	Logger d365.Logger
	// Now is the clock used to stamp expiry; time.Now when nil.
	Now func() time.Time
}

// NewTokenProvider validates the config and returns the provider for its
// version. Unknown versions are rejected here rather than at login.
func NewTokenProvider(cfg *ProviderConfig) (TokenProvider, error) {
	if cfg == nil {
		return nil, d365.ErrConfigRequired
	}

	normalized := *cfg
	normalized.Credentials = d365.Credentials{
		Hostname:     strings.TrimSpace(cfg.Credentials.Hostname),
		ClientID:     strings.TrimSpace(cfg.Credentials.ClientID),
		ClientSecret: cfg.Credentials.ClientSecret,
		TenantID:     strings.TrimSpace(cfg.Credentials.TenantID),
	}
	normalized.LoginURL = strings.TrimSuffix(strings.TrimSpace(cfg.LoginURL), "/")

	if normalized.LoginURL == "" {
		normalized.LoginURL = constants.DefaultLoginURL
	}

	if normalized.Now == nil {
		normalized.Now = time.Now
	}

	if normalized.Version == 0 {
		normalized.Version = d365.OAuthV1
	}

	if normalized.Credentials.Hostname == "" {
		return nil, d365.ErrHostnameRequired
	}

	creds := normalized.Credentials
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.TenantID == "" {
		return nil, d365.ErrCredentialsRequired
	}

	switch normalized.Version {
	case d365.OAuthV1:
		return newResourceTokenProvider(&normalized), nil
	case d365.OAuthV2:
		return newScopeTokenProvider(&normalized), nil
	default:
		return nil, fmt.Errorf("%w: %d", d365.ErrUnsupportedOAuthVersion, int(normalized.Version))
	}
}

// Login builds the provider for cfg and performs one login.
func Login(ctx context.Context, cfg *ProviderConfig) (*Token, error) {
	provider, err := NewTokenProvider(cfg)
	if err != nil {
		return nil, err
	}

	return provider.Login(ctx)
}

func logDebug(logger d365.Logger, msg string, fields map[string]interface{}) {
	if logger != nil {
		logger.Debug(msg, fields)
	}
}

func expiry(now func() time.Time, expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}

	return now().Add(time.Duration(expiresIn) * time.Second)
}
