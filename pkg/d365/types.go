package d365

import (
	"context"
	"time"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// OAuthVersion selects the token endpoint flavour used to log in.
type OAuthVersion int

const (
	// OAuthV1 posts a resource identifier to /oauth2/token.
	OAuthV1 OAuthVersion = 1
	// OAuthV2 posts a .default scope to /oauth2/v2.0/token.
	OAuthV2 OAuthVersion = 2
)

// String returns the flag spelling of the version.
func (v OAuthVersion) String() string {
	switch v {
	case OAuthV1:
		return "v1"
	case OAuthV2:
		return "v2"
	default:
		return "unknown"
	}
}

// ParseOAuthVersion accepts "1", "v1", "2" and "v2".
func ParseOAuthVersion(s string) (OAuthVersion, error) {
	switch s {
	case "", "1", "v1", "V1":
		return OAuthV1, nil
	case "2", "v2", "V2":
		return OAuthV2, nil
	default:
		return 0, ErrUnsupportedOAuthVersion
	}
}

// Credentials identify the application registration used to log in.
type Credentials struct {
	Hostname     string `json:"hostname"      yaml:"hostname"`
	ClientID     string `json:"client_id"     yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
	TenantID     string `json:"tenant_id"     yaml:"tenant_id"`
}

// Config represents client configuration for building a d365.Client.
//
// # Authentication
//
// If AccessToken is set it is used as the bearer token and no login happens.
// Otherwise the client credentials are exchanged for a token once, at
// construction, using OAuthVersion (V1 when zero). There is no refresh: when
// the token expires the caller builds a new client.
//
// # Timeouts and retries
//
// HTTPTimeout of zero means requests are bounded only by the context passed
// to each call. RetryMax of zero means every request is attempted once.
type Config struct {
	// Hostname: organisation prefix, e.g. "contoso" for contoso.api.crm.dynamics.com.
	Hostname string
	// ClientID: application (client) id of the app registration.
	ClientID string
	// ClientSecret: client secret of the app registration.
	ClientSecret string
	// TenantID: directory (tenant) id.
	TenantID string
	// OAuthVersion: token endpoint flavour. Zero selects OAuthV1.
	OAuthVersion OAuthVersion
	// AccessToken: if set, used directly and login is skipped.
	AccessToken string

	// APIVersion: Web API version, "9.2" when empty.
	APIVersion string
	// BaseURL: overrides the derived https://{hostname}.api.crm.dynamics.com.
	BaseURL string
	// LoginURL: overrides https://login.microsoftonline.com.
	LoginURL string

	// HTTPTimeout: per-request timeout. Zero disables it.
	HTTPTimeout time.Duration
	// MaxPages: cap on nextLink pages followed by one read. Zero selects the
	// default cap, negative disables it.
	MaxPages int
	// RetryMax: retries for transient failures (>=500, 429, connection errors).
	RetryMax int
	// RetryWaitMin: minimum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries. Applied when RetryMax > 0.
	RetryWaitMax time.Duration
	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Interceptors: optional hooks run around every data request.
	Interceptors *InterceptorChain
}

// Credentials returns the credential subset of the config.
func (c *Config) Credentials() Credentials {
	return Credentials{
		Hostname:     c.Hostname,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TenantID:     c.TenantID,
	}
}

// Record is a single entity as decoded from the Web API.
type Record map[string]interface{}

// String returns the field as a string, or "" if absent or not a string.
func (r Record) String(field string) string {
	v, ok := r[field].(string)
	if !ok {
		return ""
	}

	return v
}

// DisassociateTarget selects which relationship a disassociate removes.
//
// Set SecondaryEntity and SecondaryID to remove a collection-valued
// reference, or CollectionID alone to remove a single-valued one. Any
// other combination is rejected before a request is sent.
type DisassociateTarget struct {
	CollectionID    string
	SecondaryEntity string
	SecondaryID     string
}

// Client is the entry point for record operations.
type Client interface {
	// Collection returns a handle bound to the named entity set. Handles are
	// independent values and safe to use from separate goroutines.
	Collection(name string) CollectionClient
	// Hostname returns the organisation prefix the client targets.
	Hostname() string
	// RootURL returns the versioned data root, e.g. https://x.api.crm.dynamics.com/api/data/v9.2.
	RootURL() string
}

// CollectionClient performs operations against one entity set.
//
// Every operation returns an error matching ErrNoValue when the service
// responds with anything but the expected status. Transport failures are
// returned wrapped and do not match ErrNoValue.
type CollectionClient interface {
	Name() string
	Create(ctx context.Context, payload interface{}) (string, error)
	Read(ctx context.Context, id string) ([]Record, error)
	Update(ctx context.Context, id string, payload interface{}) (int, error)
	Delete(ctx context.Context, id string) (int, error)
	Associate(ctx context.Context, primaryID, navigation, secondaryEntity, secondaryID string, update bool) (int, error)
	Disassociate(ctx context.Context, primaryID, navigation string, target DisassociateTarget) (int, error)
	Query(ctx context.Context, options *QueryOptions) (string, error)
}
