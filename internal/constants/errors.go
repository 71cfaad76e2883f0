package constants

import "errors"

// Configuration errors.
var (
	ErrNoHostnameConfigured = errors.New("no hostname configured, use --hostname or D365_HOSTNAME")
	ErrNoCredentials        = errors.New("client id, client secret and tenant id are required, use 'd365 login' flags or D365_* variables")
	ErrUnknownConfigKey     = errors.New("unknown configuration key")
	ErrSecretPromptNotTTY   = errors.New("client secret not provided and stdin is not a terminal")
)

// Argument errors.
var (
	ErrPayloadRequired   = errors.New("payload is required, use --data or --file")
	ErrPayloadNotJSON    = errors.New("payload is not valid JSON")
	ErrConflictingSource = errors.New("--data and --file are mutually exclusive")
)
