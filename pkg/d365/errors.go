package d365

import (
	"errors"
	"fmt"
)

// ErrNoValue is the absent-value outcome: the service answered, but not with
// the status the operation treats as success. It carries no status or body.
var ErrNoValue = errors.New("no value")

// Login errors.
var (
	ErrNoToken                 = errors.New("no token obtained")
	ErrUnsupportedOAuthVersion = errors.New("unsupported OAuth version")
	ErrCredentialsRequired     = errors.New("client id, client secret and tenant id are required")
	ErrHostnameRequired        = errors.New("hostname is required")
	ErrConfigRequired          = errors.New("config is required")
)

// Operation errors.
var (
	ErrCollectionRequired = errors.New("collection name is required")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrMissingEntityID    = errors.New("entity id missing from OData-EntityId header")
	ErrIncompleteRead     = errors.New("read stopped before the last page")
	ErrPageLimitExceeded  = fmt.Errorf("%w: page limit exceeded", ErrIncompleteRead)
	ErrPageLoop           = fmt.Errorf("%w: next link repeats the current page", ErrIncompleteRead)
	ErrPageFailed         = fmt.Errorf("%w: page request failed", ErrIncompleteRead)

	// ErrInvalidDisassociation is returned without sending a request when
	// neither disassociate form can be built from the supplied target.
	ErrInvalidDisassociation = fmt.Errorf("%w: invalid disassociate target", ErrNoValue)
)

// IncompleteReadError reports a paginated read that stopped early. Records
// holds what was accumulated before the failing page.
type IncompleteReadError struct {
	Pages   int
	Records int
	Err     error
}

// Error implements the error interface.
func (e *IncompleteReadError) Error() string {
	return fmt.Sprintf("read stopped after %d pages (%d records): %v", e.Pages, e.Records, e.Err)
}

// Unwrap returns the reason the read stopped.
func (e *IncompleteReadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrIncompleteRead for every incomplete read.
func (e *IncompleteReadError) Is(target error) bool {
	return target == ErrIncompleteRead
}

// IsNoValue checks if the error is the absent-value outcome.
func IsNoValue(err error) bool {
	return errors.Is(err, ErrNoValue)
}

// IsIncomplete checks if the error reports a truncated paginated read.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncompleteRead)
}
