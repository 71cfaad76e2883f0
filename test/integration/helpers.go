//go:build integration

package integration

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/fivetwenty-io/d365-client/cmd/d365/commands"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/fivetwenty-io/d365-client/pkg/d365client"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zaptest"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Hostname     string
	ClientID     string
	ClientSecret string
	TenantID     string
	OAuthVersion string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables, after a
// .env in this directory or the repository root.
func LoadTestConfig() *TestConfig {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")

	return &TestConfig{
		Hostname:     os.Getenv("D365_HOSTNAME"),
		ClientID:     os.Getenv("D365_CLIENT_ID"),
		ClientSecret: os.Getenv("D365_CLIENT_SECRET"),
		TenantID:     os.Getenv("D365_TENANT_ID"),
		OAuthVersion: os.Getenv("D365_OAUTH_VERSION"),
		Verbose:      os.Getenv("D365_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Hostname == "" {
		t.Skip("D365_HOSTNAME not set, skipping integration test")
	}

	if config.ClientID == "" || config.ClientSecret == "" || config.TenantID == "" {
		t.Skip("D365_CLIENT_ID, D365_CLIENT_SECRET or D365_TENANT_ID not set, skipping integration test")
	}
}

// NewClient logs in and returns a client for the configured organisation.
func (config *TestConfig) NewClient(ctx context.Context, t *testing.T) (d365.Client, error) {
	version, err := d365.ParseOAuthVersion(config.OAuthVersion)
	if err != nil {
		return nil, err
	}

	clientConfig := &d365.Config{
		Hostname:     config.Hostname,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TenantID:     config.TenantID,
		OAuthVersion: version,
		HTTPTimeout:  time.Minute,
	}

	if config.Verbose {
		clientConfig.Debug = true
		clientConfig.Logger = commands.NewZapLogger(zaptest.NewLogger(t))
	}

	return d365client.New(ctx, clientConfig)
}

// GenerateTestName creates a unique test record name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().Unix(), rand.IntN(90000)+10000) //nolint:gosec // names only
}

// RandomID returns a well-formed id no record has.
func RandomID() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		rand.Uint32(), rand.Uint32()&0xffff, rand.Uint32()&0xffff, rand.Uint32()&0xffff, rand.Uint64()&0xffffffffffff) //nolint:gosec // ids only
}
