package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/d365-client/internal/http"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
)

// Collection implements d365.CollectionClient for one entity set. It holds
// no mutable state, so a handle may be shared across goroutines.
type Collection struct {
	client *Client
	name   string
}

var _ d365.CollectionClient = (*Collection)(nil)

// Name implements d365.CollectionClient.Name.
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) collectionPath() string {
	return "/" + c.name
}

// recordPath interpolates id verbatim; ids are opaque to this layer.
func (c *Collection) recordPath(id string) string {
	return fmt.Sprintf("/%s(%s)", c.name, id)
}

func (c *Collection) navigationPath(primaryID, navigation string) string {
	return fmt.Sprintf("%s/%s", c.recordPath(primaryID), navigation)
}

// send issues one request with a fresh header set.
func (c *Collection) send(ctx context.Context, req *internalhttp.Request, overrides map[string]string) (*internalhttp.Response, error) {
	if c.name == "" {
		return nil, d365.ErrCollectionRequired
	}

	req.Headers = c.client.headers(overrides)

	return c.client.httpClient.Do(ctx, req)
}

// expectNoContent maps a 204 to its status code and anything else to the
// absent-value outcome.
func (c *Collection) expectNoContent(operation string, resp *internalhttp.Response) (int, error) {
	if resp.StatusCode != constants.HTTPStatusNoContent {
		c.client.debug(operation+" returned unexpected status", map[string]interface{}{
			"collection":  c.name,
			"status_code": resp.StatusCode,
		})

		return 0, d365.ErrNoValue
	}

	return resp.StatusCode, nil
}

// Create implements d365.CollectionClient.Create
func (c *Collection) Create(ctx context.Context, payload interface{}) (string, error) {
	resp, err := c.send(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   c.collectionPath(),
		Body:   payload,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("creating %s record: %w", c.name, err)
	}

	_, err = c.expectNoContent("create", resp)
	if err != nil {
		return "", err
	}

	id, err := parseEntityID(resp.Headers.Get(constants.HeaderODataEntityID))
	if err != nil {
		return "", fmt.Errorf("creating %s record: %w", c.name, err)
	}

	return id, nil
}

// Read implements d365.CollectionClient.Read. An empty id reads the whole
// collection, following continuation links.
func (c *Collection) Read(ctx context.Context, id string) ([]d365.Record, error) {
	if c.name == "" {
		return nil, d365.ErrCollectionRequired
	}

	path := c.collectionPath()
	if id != "" {
		path = c.recordPath(id)
	}

	return c.readAll(ctx, path)
}

// Update implements d365.CollectionClient.Update. If-Match: * restricts the
// PATCH to existing records.
func (c *Collection) Update(ctx context.Context, id string, payload interface{}) (int, error) {
	resp, err := c.send(ctx, &internalhttp.Request{
		Method: http.MethodPatch,
		Path:   c.recordPath(id),
		Body:   payload,
	}, map[string]string{constants.HeaderIfMatch: constants.IfMatchAny})
	if err != nil {
		return 0, fmt.Errorf("updating %s record: %w", c.name, err)
	}

	return c.expectNoContent("update", resp)
}

// Delete implements d365.CollectionClient.Delete
func (c *Collection) Delete(ctx context.Context, id string) (int, error) {
	resp, err := c.send(ctx, &internalhttp.Request{
		Method: http.MethodDelete,
		Path:   c.recordPath(id),
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("deleting %s record: %w", c.name, err)
	}

	return c.expectNoContent("delete", resp)
}

// associationReference is the body of a $ref request.
type associationReference struct {
	ODataID string `json:"@odata.id"`
}

// referenceTarget is relative when update is set and absolute otherwise.
func (c *Collection) referenceTarget(secondaryEntity, secondaryID string, update bool) string {
	target := fmt.Sprintf("%s(%s)", secondaryEntity, secondaryID)
	if update {
		return target
	}

	return c.client.rootURL + "/" + target
}

// Associate implements d365.CollectionClient.Associate
func (c *Collection) Associate(
	ctx context.Context,
	primaryID, navigation, secondaryEntity, secondaryID string,
	update bool,
) (int, error) {
	resp, err := c.send(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   c.navigationPath(primaryID, navigation) + "/" + constants.ODataRefSegment,
		Body:   associationReference{ODataID: c.referenceTarget(secondaryEntity, secondaryID, update)},
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("associating %s record: %w", c.name, err)
	}

	return c.expectNoContent("associate", resp)
}

// disassociateRequest picks the URL form for target, or reports that
// neither applies.
func (c *Collection) disassociateRequest(primaryID, navigation string, target d365.DisassociateTarget) (*internalhttp.Request, error) {
	base := c.navigationPath(primaryID, navigation)
	hasSecondary := target.SecondaryEntity != "" && target.SecondaryID != ""
	noSecondary := target.SecondaryEntity == "" && target.SecondaryID == ""

	switch {
	case hasSecondary && target.CollectionID == "":
		// $id stays unescaped; the service expects the literal entity URL.
		return &internalhttp.Request{
			Method:   http.MethodDelete,
			Path:     base + "/" + constants.ODataRefSegment,
			RawQuery: constants.ODataIDQueryParameter + "=" + c.referenceTarget(target.SecondaryEntity, target.SecondaryID, false),
		}, nil
	case target.CollectionID != "" && noSecondary:
		return &internalhttp.Request{
			Method: http.MethodDelete,
			Path:   fmt.Sprintf("%s(%s)", base, target.CollectionID),
		}, nil
	default:
		return nil, d365.ErrInvalidDisassociation
	}
}

// Disassociate implements d365.CollectionClient.Disassociate
func (c *Collection) Disassociate(
	ctx context.Context,
	primaryID, navigation string,
	target d365.DisassociateTarget,
) (int, error) {
	req, err := c.disassociateRequest(primaryID, navigation, target)
	if err != nil {
		c.client.debug("disassociate target rejected", map[string]interface{}{
			"collection":       c.name,
			"collection_id":    target.CollectionID,
			"secondary_entity": target.SecondaryEntity,
			"secondary_id":     target.SecondaryID,
		})

		return 0, err
	}

	resp, err := c.send(ctx, req, nil)
	if err != nil {
		return 0, fmt.Errorf("disassociating %s record: %w", c.name, err)
	}

	return c.expectNoContent("disassociate", resp)
}

// Query implements d365.CollectionClient.Query and returns the response body
// as received.
func (c *Collection) Query(ctx context.Context, options *d365.QueryOptions) (string, error) {
	req := &internalhttp.Request{
		Method: http.MethodGet,
		Path:   c.collectionPath(),
	}

	if options != nil {
		req.RawQuery = options.Encode()
	}

	resp, err := c.send(ctx, req, nil)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", c.name, err)
	}

	if resp.StatusCode != constants.HTTPStatusOK {
		c.client.debug("query returned unexpected status", map[string]interface{}{
			"collection":  c.name,
			"status_code": resp.StatusCode,
		})

		return "", d365.ErrNoValue
	}

	return string(resp.Body), nil
}
