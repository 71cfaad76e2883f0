package client

import (
	"sync"
	"testing"

	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.record("debug", msg, fields)
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.record("info", msg, fields)
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.record("warn", msg, fields)
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.record("error", msg, fields)
}

func (l *MockLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string

	for _, entry := range l.logs {
		if entry["level"] == level {
			out = append(out, entry["msg"].(string))
		}
	}

	return out
}

// newTestClient points a client at baseURL, usually an httptest server.
func newTestClient(t *testing.T, baseURL string, configure ...func(*d365.Config)) *Client {
	t.Helper()

	config := &d365.Config{
		Hostname: "contoso",
		BaseURL:  baseURL,
	}

	for _, fn := range configure {
		fn(config)
	}

	client, err := NewWithToken(config, testToken)
	require.NoError(t, err)

	return client
}
