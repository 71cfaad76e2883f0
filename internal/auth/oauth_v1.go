package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/go-resty/resty/v2"
)

// resourceTokenResponse is the v1 endpoint's JSON. expires_in arrives as a
// quoted number from this endpoint.
type resourceTokenResponse struct {
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
	AccessToken string      `json:"access_token"`
}

// ResourceTokenProvider logs in against /{tenant}/oauth2/token with a
// resource identifier.
type ResourceTokenProvider struct {
	config   *ProviderConfig
	resty    *resty.Client
	tokenURL string
	resource string
}

func newResourceTokenProvider(cfg *ProviderConfig) *ResourceTokenProvider {
	client := resty.New()
	if cfg.HTTPTimeout > 0 {
		client.SetTimeout(cfg.HTTPTimeout)
	}

	return &ResourceTokenProvider{
		config:   cfg,
		resty:    client,
		tokenURL: cfg.LoginURL + fmt.Sprintf(constants.TokenPathV1, cfg.Credentials.TenantID),
		resource: fmt.Sprintf(constants.ResourceTemplate, cfg.Credentials.Hostname),
	}
}

// Version implements TokenProvider.
func (p *ResourceTokenProvider) Version() d365.OAuthVersion {
	return d365.OAuthV1
}

// TokenURL returns the endpoint Login posts to.
func (p *ResourceTokenProvider) TokenURL() string {
	return p.tokenURL
}

// Resource returns the resource identifier sent with the credentials.
func (p *ResourceTokenProvider) Resource() string {
	return p.resource
}

// Login implements TokenProvider.
func (p *ResourceTokenProvider) Login(ctx context.Context) (*Token, error) {
	resp, err := p.resty.R().
		SetContext(ctx).
		SetHeader(constants.HeaderContentType, constants.ContentTypeForm).
		SetFormData(map[string]string{
			"grant_type":    constants.GrantTypeClientCredentials,
			"client_id":     p.config.Credentials.ClientID,
			"client_secret": p.config.Credentials.ClientSecret,
			"resource":      p.resource,
		}).
		Post(p.tokenURL)
	if err != nil {
		return nil, fmt.Errorf("requesting access token: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		logDebug(p.config.Logger, "token request rejected", map[string]interface{}{
			"status_code": resp.StatusCode(),
			"version":     d365.OAuthV1.String(),
		})

		return nil, d365.ErrNoToken
	}

	var body resourceTokenResponse

	err = json.Unmarshal(resp.Body(), &body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing access token JSON: %w", d365.ErrMalformedResponse, err)
	}

	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token missing from token response", d365.ErrMalformedResponse)
	}

	var expiresIn int64
	if body.ExpiresIn != "" {
		expiresIn, err = body.ExpiresIn.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: parsing expires_in: %w", d365.ErrMalformedResponse, err)
		}
	}

	return &Token{
		AccessToken: body.AccessToken,
		TokenType:   body.TokenType,
		ExpiresIn:   expiresIn,
		ExpiresAt:   expiry(p.config.Now, expiresIn),
	}, nil
}
