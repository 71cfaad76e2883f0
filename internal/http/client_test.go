package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	d365http "github.com/fivetwenty-io/d365-client/internal/http"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTokenUnavailable = errors.New("token unavailable")

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.add("debug", msg, fields)
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.add("info", msg, fields)
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.add("warn", msg, fields)
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.add("error", msg, fields)
}

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		out = append(out, entry["msg"].(string))
	}

	return out
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/data/v9.2/accounts", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "d365-client/1.0", request.Header.Get("User-Agent"))

			response := map[string]string{"accountid": "acc-1", "name": "Contoso"}
			_ = json.NewEncoder(writer).Encode(response)
		}))
		defer server.Close()

		tokenManager := &MockTokenManager{token: "test-token"}
		client := d365http.NewClient(server.URL+"/api/data/v9.2/", tokenManager)
		assert.Equal(t, server.URL+"/api/data/v9.2", client.BaseURL())

		resp, err := client.Do(context.Background(), &d365http.Request{
			Method: "GET",
			Path:   "/accounts",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", result["accountid"])
		assert.Equal(t, "Contoso", result["name"])
	})

	t.Run("raw query is sent verbatim", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/accounts", request.URL.Path)
			assert.Equal(t, "$select=name&$top=3", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil)

		resp, err := client.Do(context.Background(), &d365http.Request{
			Method:   "GET",
			Path:     "/accounts",
			RawQuery: "$select=name&$top=3",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("absolute URL wins over path", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/next", request.URL.Path)
			assert.Equal(t, "$skiptoken=abc", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := d365http.NewClient("https://unused.example", nil)

		_, err := client.Do(context.Background(), &d365http.Request{
			Method: "GET",
			Path:   "/ignored",
			URL:    server.URL + "/next?$skiptoken=abc",
		})
		require.NoError(t, err)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "Contoso", body["name"])

			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil)

		resp, err := client.Do(context.Background(), &d365http.Request{
			Method: "POST",
			Path:   "/accounts",
			Body:   map[string]string{"name": "Contoso"},
		})
		require.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)
	})

	t.Run("pre-serialised bodies pass through", func(t *testing.T) {
		t.Parallel()

		for _, body := range []interface{}{`{"a":1}`, []byte(`{"a":1}`), json.RawMessage(`{"a":1}`)} {
			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				raw, err := io.ReadAll(request.Body)
				assert.NoError(t, err)
				assert.JSONEq(t, `{"a":1}`, string(raw))
				writer.WriteHeader(http.StatusNoContent)
			}))

			client := d365http.NewClient(server.URL, nil)
			_, err := client.Do(context.Background(), &d365http.Request{Method: "POST", Path: "/x", Body: body})
			require.NoError(t, err)
			server.Close()
		}
	})

	t.Run("error status is a response, not an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"error":{"code":"0x80040217","message":"not found"}}`))
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil)

		resp, err := client.Do(context.Background(), &d365http.Request{
			Method: "GET",
			Path:   "/accounts(missing)",
		})
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.Contains(t, string(resp.Body), "not found")
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "*", request.Header.Get("If-Match"))
			assert.Equal(t, "agent/2.0", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil, d365http.WithUserAgent("agent/2.0"))

		_, err := client.Do(context.Background(), &d365http.Request{
			Method:  "PATCH",
			Path:    "/accounts(1)",
			Headers: map[string]string{"If-Match": "*"},
		})
		require.NoError(t, err)
	})

	t.Run("token failure", func(t *testing.T) {
		t.Parallel()

		client := d365http.NewClient("https://unused.example", &MockTokenManager{err: errTokenUnavailable})

		_, err := client.Do(context.Background(), &d365http.Request{Method: "GET", Path: "/accounts"})
		require.ErrorIs(t, err, errTokenUnavailable)
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		client := d365http.NewClient("https://unused.example", nil)

		_, err := client.Do(context.Background(), &d365http.Request{Method: "GET"})
		require.ErrorIs(t, err, d365http.ErrNoRequestURL)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := d365http.NewClient(server.URL, &MockTokenManager{token: "secret-token"},
			d365http.WithLogger(logger),
			d365http.WithDebug(true),
		)

		_, err := client.Do(context.Background(), &d365http.Request{Method: "GET", Path: "/accounts"})
		require.NoError(t, err)

		messages := logger.messages()
		assert.Contains(t, messages, "HTTP Request")
		assert.Contains(t, messages, "HTTP Response")

		for _, entry := range logger.logs {
			assert.NotContains(t, fmt.Sprint(entry["fields"]), "secret-token")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			time.Sleep(200 * time.Millisecond)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil, d365http.WithTimeout(20*time.Millisecond))

		_, err := client.Do(context.Background(), &d365http.Request{Method: "GET", Path: "/slow"})
		require.Error(t, err)
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		method string
		call   func(client *d365http.Client) (*d365http.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			call: func(client *d365http.Client) (*d365http.Response, error) {
				return client.Get(context.Background(), "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			call: func(client *d365http.Client) (*d365http.Response, error) {
				return client.Post(context.Background(), "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			call: func(client *d365http.Client) (*d365http.Response, error) {
				return client.Patch(context.Background(), "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			call: func(client *d365http.Client) (*d365http.Response, error) {
				return client.Delete(context.Background(), "/test")
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			resp, err := testCase.call(d365http.NewClient(server.URL, nil))
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("single attempt by default", func(t *testing.T) {
		t.Parallel()

		var attempts int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&attempts, 1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})

	t.Run("retries on 5xx errors when enabled", func(t *testing.T) {
		t.Parallel()

		var attempts int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&attempts, 1) < 3 {
				writer.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil,
			d365http.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond),
		)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&attempts, 1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := d365http.NewClient(server.URL, nil,
			d365http.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond),
		)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	})
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "yes", request.Header.Get("X-Intercepted"))
		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	metrics := d365.NewMetricsCollector()
	chain := d365.NewInterceptorChain()
	chain.AddRequestInterceptor(d365.HeaderInterceptor(map[string]string{"X-Intercepted": "yes"}))
	chain.AddRequestInterceptor(d365.MetricsRequestInterceptor(metrics))
	chain.AddResponseInterceptor(d365.MetricsResponseInterceptor(metrics))

	client := d365http.NewClient(server.URL, nil, d365http.WithInterceptors(chain))

	_, err := client.Delete(context.Background(), "/accounts(1)")
	require.NoError(t, err)

	snapshot := metrics.GetMetrics("DELETE " + server.URL + "/accounts(1)")
	require.NotNil(t, snapshot)
	assert.Equal(t, int64(1), snapshot.TotalRequests)
	assert.Zero(t, snapshot.TotalErrors)
}
