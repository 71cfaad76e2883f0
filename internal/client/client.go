package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/d365-client/internal/auth"
	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/internal/http"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the d365.Client interface.
type Client struct {
	httpClient  *http.Client
	hostname    string
	rootURL     string
	baseHeaders map[string]string
	logger      d365.Logger
	maxPages    int
}

var _ d365.Client = (*Client)(nil)

// RootURL derives https://{hostname}.api.crm.dynamics.com/api/data/v{version},
// honouring a BaseURL override.
func RootURL(config *d365.Config) string {
	base := strings.TrimSuffix(config.BaseURL, "/")
	if base == "" {
		base = fmt.Sprintf(constants.DataHostTemplate, config.Hostname)
	}

	version := config.APIVersion
	if version == "" {
		version = constants.DefaultAPIVersion
	}

	return base + fmt.Sprintf(constants.APIPathTemplate, version)
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *d365.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a record client that authenticates every request with the
// token supplied by tokenManager.
func New(config *d365.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, d365.ErrConfigRequired
	}

	if config.Hostname == "" && config.BaseURL == "" {
		return nil, d365.ErrHostnameRequired
	}

	if tokenManager == nil {
		return nil, ErrNoTokenManagerConfigured
	}

	rootURL := RootURL(config)

	maxPages := config.MaxPages
	if maxPages == 0 {
		maxPages = constants.DefaultMaxPages
	}

	return &Client{
		httpClient: http.NewClient(rootURL, tokenManager, createHTTPClientOptions(config)...),
		hostname:   config.Hostname,
		rootURL:    rootURL,
		baseHeaders: map[string]string{
			constants.HeaderContentType:     constants.ContentTypeJSON,
			constants.HeaderAccept:          constants.AcceptJSON,
			constants.HeaderODataVersion:    constants.ODataVersion,
			constants.HeaderODataMaxVersion: constants.ODataVersion,
		},
		logger:   config.Logger,
		maxPages: maxPages,
	}, nil
}

// NewWithToken creates a record client from an already obtained bearer token.
func NewWithToken(config *d365.Config, token string) (*Client, error) {
	return New(config, auth.NewStaticTokenManager(token))
}

// Collection implements d365.Client.Collection.
func (c *Client) Collection(name string) d365.CollectionClient {
	return &Collection{client: c, name: name}
}

// Hostname implements d365.Client.Hostname.
func (c *Client) Hostname() string {
	return c.hostname
}

// RootURL implements d365.Client.RootURL.
func (c *Client) RootURL() string {
	return c.rootURL
}

// headers returns a fresh header set: the base template plus overrides.
// The template itself is never written to.
func (c *Client) headers(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(c.baseHeaders)+len(overrides))

	for key, value := range c.baseHeaders {
		merged[key] = value
	}

	for key, value := range overrides {
		merged[key] = value
	}

	return merged
}

func (c *Client) debug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

func (c *Client) warn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}
