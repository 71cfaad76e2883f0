package commands

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/d365-client/internal/auth"
	"github.com/fivetwenty-io/d365-client/internal/client"
	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// normalizeHostname reduces contoso, contoso.api.crm.dynamics.com or a full
// https URL to the organisation prefix.
func normalizeHostname(raw string) string {
	hostname := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(raw), "https://"), "/")

	return strings.TrimSuffix(hostname, constants.DataHostSuffix)
}

// verboseInterceptors logs every data request and response.
func verboseInterceptors(logger d365.Logger) *d365.InterceptorChain {
	chain := d365.NewInterceptorChain()
	chain.AddRequestInterceptor(d365.LoggingInterceptor(logger))
	chain.AddResponseInterceptor(d365.LoggingResponseInterceptor(logger))

	return chain
}

// clientConfig maps the CLI configuration onto the library configuration.
func clientConfig(config *Config, logger d365.Logger) (*d365.Config, error) {
	hostname := normalizeHostname(config.Hostname)
	if hostname == "" {
		return nil, constants.ErrNoHostnameConfigured
	}

	version, err := d365.ParseOAuthVersion(config.OAuthVersion)
	if err != nil {
		return nil, fmt.Errorf("oauth version %q: %w", config.OAuthVersion, err)
	}

	libConfig := &d365.Config{
		Hostname:     hostname,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TenantID:     config.TenantID,
		OAuthVersion: version,
		APIVersion:   config.APIVersion,
		BaseURL:      config.BaseURL,
		LoginURL:     config.LoginURL,
		HTTPTimeout:  viper.GetDuration("timeout"),
		Logger:       logger,
	}

	if viper.GetBool("verbose") && logger != nil {
		libConfig.Interceptors = verboseInterceptors(logger)
	}

	return libConfig, nil
}

// tokenManager picks how the CLI authenticates: an explicit --token is used
// as is; otherwise a cached token issued for this organisation is served
// until it expires and the app registration logs in again, persisting the
// new token.
func tokenManager(cmd *cobra.Command, config *Config, libConfig *d365.Config) (auth.TokenManager, error) {
	if flag := cmd.Flags().Lookup("token"); flag != nil && flag.Changed {
		return auth.NewStaticTokenManager(flag.Value.String()), nil
	}

	cached := config.CachedToken(libConfig.Hostname)

	var provider auth.TokenProvider

	if config.HasCredentials() {
		var err error

		provider, err = auth.NewTokenProvider(&auth.ProviderConfig{
			Credentials: libConfig.Credentials(),
			Version:     libConfig.OAuthVersion,
			LoginURL:    libConfig.LoginURL,
			HTTPTimeout: libConfig.HTTPTimeout,
			Logger:      libConfig.Logger,
		})
		if err != nil {
			return nil, err
		}
	} else if !cached.Valid() {
		return nil, constants.ErrNoCredentials
	}

	return auth.NewConfigTokenManager(provider, NewConfigPersister(), libConfig.Hostname, cached), nil
}

// syncLogger flushes buffered entries. Syncing stderr fails on some
// platforms, so the error is dropped.
func syncLogger(logger *zap.Logger) {
	_ = logger.Sync()
}

// createClient builds a record client from the flags, environment and
// config file. The returned func flushes the client's logger and must be
// called once the command is done with the client.
func createClient(cmd *cobra.Command) (d365.Client, func(), error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}

	flush := func() { syncLogger(logger) }

	recordClient, err := buildClient(cmd, NewZapLogger(logger))
	if err != nil {
		flush()

		return nil, nil, err
	}

	return recordClient, flush, nil
}

func buildClient(cmd *cobra.Command, logger d365.Logger) (d365.Client, error) {
	config := loadConfig()

	libConfig, err := clientConfig(config, logger)
	if err != nil {
		return nil, err
	}

	manager, err := tokenManager(cmd, config, libConfig)
	if err != nil {
		return nil, err
	}

	recordClient, err := client.New(libConfig, manager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return recordClient, nil
}
