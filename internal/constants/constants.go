package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// ConfigDirName is the CLI configuration directory under $HOME.
	ConfigDirName = ".d365"

	// ConfigFileName is the CLI configuration file inside ConfigDirName.
	ConfigFileName = "config.yml"
)

// Command argument counts.
const (
	// KeyValueArgumentCount is the argument count of "config set KEY VALUE".
	KeyValueArgumentCount = 2

	// AssociateArgumentCount is COLLECTION PRIMARY_ID NAVIGATION SECONDARY_COLLECTION SECONDARY_ID.
	AssociateArgumentCount = 5
)

// Web API addressing.
const (
	// DefaultAPIVersion is the Dataverse Web API version used when none is configured.
	DefaultAPIVersion = "9.2"

	// DataHostTemplate renders the data endpoint host for an organisation prefix.
	DataHostTemplate = "https://%s.api.crm.dynamics.com"

	// DataHostSuffix is stripped from hostnames given in full.
	DataHostSuffix = ".api.crm.dynamics.com"

	// APIPathTemplate renders the versioned data path appended to the host.
	APIPathTemplate = "/api/data/v%s"

	// ResourceTemplate renders the OAuth v1 resource identifier.
	ResourceTemplate = "https://%s.api.crm.dynamics.com/"

	// ScopeTemplate renders the OAuth v2 scope.
	ScopeTemplate = "https://%s.api.crm.dynamics.com/.default"

	// DefaultLoginURL is the Microsoft identity platform authority.
	DefaultLoginURL = "https://login.microsoftonline.com"

	// TokenPathV1 is the OAuth 1.0 style (resource based) token path.
	TokenPathV1 = "/%s/oauth2/token"

	// TokenPathV2 is the OAuth 2.0 (scope based) token path.
	TokenPathV2 = "/%s/oauth2/v2.0/token"

	// GrantTypeClientCredentials is the only grant the token provider issues.
	GrantTypeClientCredentials = "client_credentials"
)

// Header names and values.
const (
	HeaderAuthorization    = "Authorization"
	HeaderContentType      = "Content-Type"
	HeaderAccept           = "Accept"
	HeaderODataVersion     = "OData-Version"
	HeaderODataMaxVersion  = "OData-MaxVersion"
	HeaderODataEntityID    = "OData-EntityId"
	HeaderIfMatch          = "If-Match"
	HeaderUserAgent        = "User-Agent"
	ContentTypeJSON        = "application/json; charset=utf-8"
	ContentTypeForm        = "application/x-www-form-urlencoded"
	AcceptJSON             = "application/json"
	ODataVersion           = "4.0"
	IfMatchAny             = "*"
	BearerPrefix           = "Bearer "
	DefaultUserAgent       = "d365-client/1.0"
	ODataNextLinkKey       = "@odata.nextLink"
	ODataIDKey             = "@odata.id"
	ODataValueKey          = "value"
	ODataRefSegment        = "$ref"
	ODataIDQueryParameter  = "$id"
	ODataSelectParameter   = "$select"
	ODataTopParameter      = "$top"
	ODataFilterParameter   = "$filter"
	ODataOrderByParameter  = "$orderby"
	ODataCountParameter    = "$count"
	ODataCountParameterOn  = "true"
	ODataCountParameterOff = "false"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the CLI default timeout for HTTP requests. The
	// library itself applies no timeout unless configured.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits. Retries are off unless a caller opts in.
const (
	// DefaultRetryMax is the default number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait between opted-in retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between opted-in retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// Token validity.
const (
	// TokenExpiryBuffer treats a token as expired this long before its
	// stated expiry so it does not lapse mid-request.
	TokenExpiryBuffer = 30 * time.Second
)

// Pagination limits.
const (
	// DefaultMaxPages caps how many nextLink pages a single read follows.
	DefaultMaxPages = 1000
)

// HTTP status codes the record client maps to success.
const (
	// HTTPStatusOK is returned by successful reads and queries.
	HTTPStatusOK = 200

	// HTTPStatusNoContent is returned by successful writes.
	HTTPStatusNoContent = 204
)

// Boolean string constants.
const (
	// BooleanTrue string representation.
	BooleanTrue = "true"

	// BooleanFalse string representation.
	BooleanFalse = "false"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// StringTruncationLimit is the width cell values are cut to in tables.
	StringTruncationLimit = 40
)
