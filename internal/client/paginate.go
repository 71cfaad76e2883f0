package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/d365-client/internal/http"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
)

var jsonNull = []byte("null")

// page is one decoded read response.
type page struct {
	records  []d365.Record
	nextLink string
}

// decodePage accepts either a collection envelope with a value array or a
// single entity object.
func decodePage(body []byte) (*page, error) {
	var raw map[string]json.RawMessage

	err := json.Unmarshal(body, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing read response: %w", d365.ErrMalformedResponse, err)
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: read response is null", d365.ErrMalformedResponse)
	}

	result := &page{}

	if link, ok := raw[constants.ODataNextLinkKey]; ok {
		err = json.Unmarshal(link, &result.nextLink)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", d365.ErrMalformedResponse, constants.ODataNextLinkKey, err)
		}
	}

	values, ok := raw[constants.ODataValueKey]
	if !ok {
		var record d365.Record

		err = json.Unmarshal(body, &record)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing record: %w", d365.ErrMalformedResponse, err)
		}

		result.records = []d365.Record{record}

		return result, nil
	}

	if bytes.Equal(bytes.TrimSpace(values), jsonNull) {
		return nil, fmt.Errorf("%w: %s is null", d365.ErrMalformedResponse, constants.ODataValueKey)
	}

	err = json.Unmarshal(values, &result.records)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not an array of records: %w", d365.ErrMalformedResponse, constants.ODataValueKey, err)
	}

	return result, nil
}

// readAll follows @odata.nextLink from the first response until a page
// without one. A failure on the first page is the absent-value outcome; a
// failure on any later page returns the records gathered so far together
// with an *d365.IncompleteReadError.
func (c *Collection) readAll(ctx context.Context, path string) ([]d365.Record, error) {
	resp, err := c.client.httpClient.Do(ctx, &internalhttp.Request{
		Method:  http.MethodGet,
		Path:    path,
		Headers: c.client.headers(nil),
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.name, err)
	}

	if resp.StatusCode != constants.HTTPStatusOK {
		c.client.debug("read returned unexpected status", map[string]interface{}{
			"collection":  c.name,
			"status_code": resp.StatusCode,
		})

		return nil, d365.ErrNoValue
	}

	first, err := decodePage(resp.Body)
	if err != nil {
		return nil, err
	}

	records := first.records
	pages := 1
	current := c.client.rootURL + path
	next := first.nextLink

	for next != "" {
		if c.client.maxPages > 0 && pages >= c.client.maxPages {
			return records, c.incomplete(pages, records, d365.ErrPageLimitExceeded)
		}

		if next == current {
			return records, c.incomplete(pages, records, d365.ErrPageLoop)
		}

		resp, err = c.client.httpClient.Do(ctx, &internalhttp.Request{
			Method:  http.MethodGet,
			URL:     next,
			Headers: c.client.headers(nil),
		})
		if err != nil {
			return records, c.incomplete(pages, records, fmt.Errorf("reading %s page %d: %w", c.name, pages+1, err))
		}

		if resp.StatusCode != constants.HTTPStatusOK {
			return records, c.incomplete(pages, records, fmt.Errorf("%w: page %d returned status %d", d365.ErrPageFailed, pages+1, resp.StatusCode))
		}

		decoded, err := decodePage(resp.Body)
		if err != nil {
			return records, c.incomplete(pages, records, err)
		}

		records = append(records, decoded.records...)
		pages++
		current = next
		next = decoded.nextLink
	}

	return records, nil
}

func (c *Collection) incomplete(pages int, records []d365.Record, reason error) error {
	c.client.warn("read stopped before the last page", map[string]interface{}{
		"collection": c.name,
		"pages":      pages,
		"records":    len(records),
		"error":      reason.Error(),
	})

	return &d365.IncompleteReadError{
		Pages:   pages,
		Records: len(records),
		Err:     reason,
	}
}
