package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/d365-client/pkg/d365"
)

// parseEntityID extracts the record id from an OData-EntityId header such as
// https://org.api.crm.dynamics.com/api/data/v9.2/accounts(00000000-0000-0000-0000-000000000001).
// The id is whatever sits inside the parentheses of the final path segment.
func parseEntityID(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: header is empty", d365.ErrMissingEntityID)
	}

	parsed, err := url.Parse(header)
	if err != nil {
		return "", fmt.Errorf("%w: parsing %q: %w", d365.ErrMissingEntityID, header, err)
	}

	path := strings.TrimSuffix(parsed.Path, "/")
	segment := path[strings.LastIndex(path, "/")+1:]

	_, rest, found := strings.Cut(segment, "(")
	if !found {
		return "", fmt.Errorf("%w: no key segment in %q", d365.ErrMissingEntityID, header)
	}

	end := strings.LastIndex(rest, ")")
	if end <= 0 {
		return "", fmt.Errorf("%w: unterminated or empty key in %q", d365.ErrMissingEntityID, header)
	}

	return rest[:end], nil
}
