package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ScopeTokenProvider logs in against /{tenant}/oauth2/v2.0/token with the
// organisation's .default scope.
type ScopeTokenProvider struct {
	config     *ProviderConfig
	oauth      clientcredentials.Config
	httpClient *http.Client
}

func newScopeTokenProvider(cfg *ProviderConfig) *ScopeTokenProvider {
	return &ScopeTokenProvider{
		config: cfg,
		oauth: clientcredentials.Config{
			ClientID:     cfg.Credentials.ClientID,
			ClientSecret: cfg.Credentials.ClientSecret,
			TokenURL:     cfg.LoginURL + fmt.Sprintf(constants.TokenPathV2, cfg.Credentials.TenantID),
			Scopes:       []string{fmt.Sprintf(constants.ScopeTemplate, cfg.Credentials.Hostname)},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Version implements TokenProvider.
func (p *ScopeTokenProvider) Version() d365.OAuthVersion {
	return d365.OAuthV2
}

// TokenURL returns the endpoint Login posts to.
func (p *ScopeTokenProvider) TokenURL() string {
	return p.oauth.TokenURL
}

// Scope returns the scope requested at login.
func (p *ScopeTokenProvider) Scope() string {
	return p.oauth.Scopes[0]
}

// Login implements TokenProvider.
func (p *ScopeTokenProvider) Login(ctx context.Context) (*Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	tok, err := p.oauth.Token(ctx)
	if err != nil {
		retrieveErr := &oauth2.RetrieveError{}
		if errors.As(err, &retrieveErr) {
			logDebug(p.config.Logger, "token request rejected", map[string]interface{}{
				"status_code": statusOf(retrieveErr),
				"version":     d365.OAuthV2.String(),
			})

			return nil, d365.ErrNoToken
		}

		return nil, fmt.Errorf("requesting access token: %w", err)
	}

	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token missing from token response", d365.ErrMalformedResponse)
	}

	var expiresIn int64
	if !tok.Expiry.IsZero() {
		expiresIn = int64(time.Until(tok.Expiry).Round(time.Second).Seconds())
	}

	return &Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   expiresIn,
		ExpiresAt:   tok.Expiry,
	}, nil
}

func statusOf(err *oauth2.RetrieveError) int {
	if err.Response == nil {
		return 0
	}

	return err.Response.StatusCode
}
