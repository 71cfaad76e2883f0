package d365client

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/d365-client/internal/auth"
	"github.com/fivetwenty-io/d365-client/internal/client"
	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
)

// New creates a Dynamics 365 Web API client. Unless config.AccessToken is
// set, the client credentials are exchanged for a bearer token first.
func New(ctx context.Context, config *d365.Config) (d365.Client, error) {
	if config == nil {
		return nil, d365.ErrConfigRequired
	}

	normalized := normalize(config)

	if normalized.Hostname == "" && normalized.BaseURL == "" {
		return nil, d365.ErrHostnameRequired
	}

	if normalized.AccessToken == "" {
		token, err := Login(ctx, normalized)
		if err != nil {
			return nil, err
		}

		normalized.AccessToken = token.AccessToken
	}

	recordClient, err := client.NewWithToken(normalized, normalized.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return recordClient, nil
}

// Login performs one client-credentials exchange for config and returns the
// token with its expiry metadata.
func Login(ctx context.Context, config *d365.Config) (*d365.Token, error) {
	if config == nil {
		return nil, d365.ErrConfigRequired
	}

	token, err := auth.Login(ctx, &auth.ProviderConfig{
		Credentials: config.Credentials(),
		Version:     config.OAuthVersion,
		LoginURL:    config.LoginURL,
		HTTPTimeout: config.HTTPTimeout,
		Logger:      config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("logging in to %s: %w", config.Hostname, err)
	}

	return token, nil
}

// NewWithToken creates a client for hostname from a bearer token the caller
// already holds.
func NewWithToken(hostname, token string) (d365.Client, error) {
	return New(context.Background(), &d365.Config{
		Hostname:    hostname,
		AccessToken: token,
	})
}

// NewWithClientCredentials logs in with an app registration and creates a
// client for its organisation.
func NewWithClientCredentials(ctx context.Context, creds d365.Credentials, version d365.OAuthVersion) (d365.Client, error) {
	return New(ctx, &d365.Config{
		Hostname:     creds.Hostname,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TenantID:     creds.TenantID,
		OAuthVersion: version,
	})
}

// normalize returns a copy of config with whitespace trimmed and a full data
// host reduced to its organisation prefix.
func normalize(config *d365.Config) *d365.Config {
	normalized := *config

	hostname := strings.TrimSpace(config.Hostname)
	hostname = strings.TrimPrefix(hostname, "https://")
	hostname = strings.TrimSuffix(hostname, "/")
	hostname = strings.TrimSuffix(hostname, constants.DataHostSuffix)
	normalized.Hostname = hostname

	normalized.ClientID = strings.TrimSpace(config.ClientID)
	normalized.TenantID = strings.TrimSpace(config.TenantID)
	normalized.AccessToken = strings.TrimSpace(config.AccessToken)

	return &normalized
}
