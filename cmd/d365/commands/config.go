package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	keyHostname       = "hostname"
	keyClientID       = "client_id"
	keyClientSecret   = "client_secret"
	keyTenantID       = "tenant_id"
	keyOAuthVersion   = "oauth_version"
	keyAPIVersion     = "api_version"
	keyBaseURL        = "base_url"
	keyLoginURL       = "login_url"
	keyToken          = "token"
	keyTokenExpiresAt = "token_expires_at"
	keyTokenHostname  = "token_hostname"
	keyOutput         = "output"
)

// Config represents the CLI configuration.
type Config struct {
	Hostname     string `json:"hostname,omitempty"      yaml:"hostname,omitempty"`
	ClientID     string `json:"client_id,omitempty"     yaml:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret,omitempty"`
	TenantID     string `json:"tenant_id,omitempty"     yaml:"tenant_id,omitempty"`
	OAuthVersion string `json:"oauth_version,omitempty" yaml:"oauth_version,omitempty"`
	APIVersion   string `json:"api_version,omitempty"   yaml:"api_version,omitempty"`

	// Overrides for sovereign clouds
	BaseURL  string `json:"base_url,omitempty"  yaml:"base_url,omitempty"`
	LoginURL string `json:"login_url,omitempty" yaml:"login_url,omitempty"`

	// Cached token from the last login and the organisation it was issued for
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	TokenHostname  string     `json:"token_hostname,omitempty"   yaml:"token_hostname,omitempty"`

	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// Credentials returns the app registration the config describes.
func (c *Config) Credentials() d365.Credentials {
	return d365.Credentials{
		Hostname:     c.Hostname,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TenantID:     c.TenantID,
	}
}

// HasCredentials reports whether enough is configured to log in.
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TenantID != ""
}

// CachedToken returns the stored token when it was issued for hostname, or
// nil. hostname is the normalised organisation prefix.
func (c *Config) CachedToken(hostname string) *d365.Token {
	if c.Token == "" || c.TokenHostname != hostname {
		return nil
	}

	token := &d365.Token{AccessToken: c.Token}
	if c.TokenExpiresAt != nil {
		token.ExpiresAt = *c.TokenExpiresAt
	}

	return token
}

// setToken caches token as issued for hostname.
func (c *Config) setToken(hostname string, token *d365.Token) {
	c.Token = token.AccessToken
	c.TokenHostname = hostname
	c.TokenExpiresAt = nil

	if !token.ExpiresAt.IsZero() {
		expiresAt := token.ExpiresAt
		c.TokenExpiresAt = &expiresAt
	}
}

// clearToken drops the cached token and its metadata.
func (c *Config) clearToken() {
	c.Token = ""
	c.TokenExpiresAt = nil
	c.TokenHostname = ""
}

// masked returns a copy safe to print.
func (c *Config) masked() *Config {
	copied := *c

	if copied.ClientSecret != "" {
		copied.ClientSecret = constants.MaskedSecret
	}

	if copied.Token != "" {
		copied.Token = constants.MaskedSecret
	}

	return &copied
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage D365 CLI configuration including the organisation and app registration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig().masked()

			if handled, err := encode(cmd.OutOrStdout(), outputFormat(), config); handled {
				return err
			}

			return displayConfigTable(cmd.OutOrStdout(), config)
		},
	}
}

func displayConfigTable(w io.Writer, config *Config) error {
	expiry := constants.NotAvailable
	if config.TokenExpiresAt != nil {
		expiry = config.TokenExpiresAt.Format(time.RFC3339)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")
	_ = table.Append("Hostname", valueOrNA(config.Hostname))
	_ = table.Append("Client ID", valueOrNA(config.ClientID))
	_ = table.Append("Client Secret", valueOrNA(config.ClientSecret))
	_ = table.Append("Tenant ID", valueOrNA(config.TenantID))
	_ = table.Append("OAuth Version", valueOrNA(config.OAuthVersion))
	_ = table.Append("API Version", valueOrNA(config.APIVersion))
	_ = table.Append("Base URL", valueOrNA(config.BaseURL))
	_ = table.Append("Login URL", valueOrNA(config.LoginURL))
	_ = table.Append("Token", valueOrNA(config.Token))
	_ = table.Append("Token Expires", expiry)
	_ = table.Append("Token Organisation", valueOrNA(config.TokenHostname))
	_ = table.Append("Output", valueOrNA(config.Output))

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Keys: hostname, client_id, client_secret, tenant_id, oauth_version,
api_version, base_url, login_url, output`,
		Args: cobra.ExactArgs(constants.KeyValueArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			err = applySetting(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", key)

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value; unsetting token also drops its expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			err = applySetting(config, key, "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)

			return nil
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear configuration",
		Long:  "Remove the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, err := configFilePath()
			if err != nil {
				return err
			}

			err = os.Remove(configFile)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove config file: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cleared configuration")

			return nil
		},
	}
}

// applySetting sets key on config; an empty value clears it.
func applySetting(config *Config, key, value string) error {
	switch key {
	case keyHostname:
		config.Hostname = value
	case keyClientID:
		config.ClientID = value
	case keyClientSecret:
		config.ClientSecret = value
	case keyTenantID:
		config.TenantID = value
	case keyOAuthVersion:
		if value != "" {
			if _, err := d365.ParseOAuthVersion(value); err != nil {
				return fmt.Errorf("%s %q: %w", key, value, err)
			}
		}

		config.OAuthVersion = value
	case keyAPIVersion:
		config.APIVersion = value
	case keyBaseURL:
		config.BaseURL = value
	case keyLoginURL:
		config.LoginURL = value
	case keyOutput:
		config.Output = value
	case keyToken:
		if value != "" {
			return fmt.Errorf("%s is written by login: %w", key, constants.ErrUnknownConfigKey)
		}

		config.clearToken()
	default:
		return fmt.Errorf("%q: %w", key, constants.ErrUnknownConfigKey)
	}

	return nil
}

func loadConfig() *Config {
	config := &Config{
		Hostname:      viper.GetString(keyHostname),
		ClientID:      viper.GetString(keyClientID),
		ClientSecret:  viper.GetString(keyClientSecret),
		TenantID:      viper.GetString(keyTenantID),
		OAuthVersion:  viper.GetString(keyOAuthVersion),
		APIVersion:    viper.GetString(keyAPIVersion),
		BaseURL:       viper.GetString(keyBaseURL),
		LoginURL:      viper.GetString(keyLoginURL),
		Token:         viper.GetString(keyToken),
		TokenHostname: viper.GetString(keyTokenHostname),
		Output:        viper.GetString(keyOutput),
	}

	if expiresAt := viper.GetTime(keyTokenExpiresAt); !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	return config
}

// loadFileConfig reads the config file alone, without the flag, D365_*
// environment and .env layers loadConfig merges in. Anything written back to
// the file starts from this so those values are never persisted.
func loadFileConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	data, err := os.ReadFile(configFile) //nolint:gosec // path is the CLI's own config file
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
