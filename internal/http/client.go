// Package http is the transport under the record client. It owns URL
// assembly, body encoding, header merging, debug logging and the interceptor
// chain. Mapping status codes to outcomes is left to callers.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fivetwenty-io/d365-client/internal/auth"
	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/hashicorp/go-retryablehttp"
)

// Static errors for err113 compliance.
var (
	ErrNoRequestURL = errors.New("request has neither a URL nor a path")
)

// Client sends requests relative to a base URL.
type Client struct {
	baseURL      string
	tokenManager auth.TokenManager
	httpClient   *retryablehttp.Client
	logger       d365.Logger
	debug        bool
	userAgent    string
	interceptors *d365.InterceptorChain
}

// Request describes one call. URL, when set, is used verbatim and Path and
// RawQuery are ignored; this is how server-supplied continuation links are
// followed.
type Request struct {
	Method   string
	Path     string
	URL      string
	RawQuery string
	Body     interface{}
	Headers  map[string]string
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for HTTP and retry diagnostics.
func WithLogger(logger d365.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds each attempt. Zero leaves attempts unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryConfig opts in to retries of transient failures.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithInterceptors installs a request/response interceptor chain.
func WithInterceptors(chain *d365.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a new HTTP client. tokenManager may be nil, in which case
// callers supply Authorization through Request.Headers.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	// Hand the final response back untouched so every status reaches the caller.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		httpClient:   retryClient,
		userAgent:    constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends the request and reads the whole response. A non-nil error means
// no response was obtained; any status code is returned as a Response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	headers, err := c.buildHeaders(ctx, req)
	if err != nil {
		return nil, err
	}

	view := &d365.Request{
		Method:  req.Method,
		URL:     fullURL,
		Headers: headers,
		Body:    body,
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, view)
		if err != nil {
			return nil, err
		}
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, bodyOrNil(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = view.Headers

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	resp, sendErr := c.send(httpReq)

	if c.interceptors != nil {
		respView := &d365.Response{Error: sendErr}
		if resp != nil {
			respView.StatusCode = resp.StatusCode
			respView.Headers = resp.Headers
			respView.Body = resp.Body
		}

		err = c.interceptors.ExecuteResponseInterceptors(ctx, view, respView)
		if err != nil && sendErr == nil {
			return nil, err
		}
	}

	if sendErr != nil {
		return nil, sendErr
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": resp.StatusCode,
		})
	}

	return resp, nil
}

func (c *Client) send(httpReq *retryablehttp.Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
	}, nil
}

func (c *Client) resolveURL(req *Request) (string, error) {
	if req.URL != "" {
		return req.URL, nil
	}

	if req.Path == "" {
		return "", ErrNoRequestURL
	}

	fullURL := c.baseURL + req.Path
	if req.RawQuery != "" {
		fullURL += "?" + req.RawQuery
	}

	return fullURL, nil
}

func (c *Client) buildHeaders(ctx context.Context, req *Request) (http.Header, error) {
	headers := make(http.Header, len(req.Headers)+2)

	if c.userAgent != "" {
		headers.Set(constants.HeaderUserAgent, c.userAgent)
	}

	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting token: %w", err)
		}

		headers.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	}

	return headers, nil
}

// Get sends a GET to path.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Headers: headers})
}

// Post sends a POST with a JSON body to path.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch sends a PATCH with a JSON body to path.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete sends a DELETE to path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// encodeBody passes pre-serialised payloads through and marshals the rest.
func encodeBody(body interface{}) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}

		return encoded, nil
	}
}

func bodyOrNil(body []byte) interface{} {
	if body == nil {
		return nil
	}

	return bytes.NewReader(body)
}
