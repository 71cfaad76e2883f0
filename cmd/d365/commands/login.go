package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fivetwenty-io/d365-client/internal/auth"
	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		tenantID     string
		saveSecret   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to Dynamics 365",
		Long: `Exchange app registration credentials for a bearer token and cache it.

Values not given as flags are taken from D365_* variables, .env or the
config file. A missing client secret is prompted for on a terminal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if clientID != "" {
				config.ClientID = clientID
			}

			if tenantID != "" {
				config.TenantID = tenantID
			}

			if clientSecret != "" {
				config.ClientSecret = clientSecret
			}

			if config.ClientSecret == "" {
				secret, err := promptSecret()
				if err != nil {
					return err
				}

				config.ClientSecret = secret
			}

			if !config.HasCredentials() {
				return constants.ErrNoCredentials
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer syncLogger(logger)

			libConfig, err := clientConfig(config, NewZapLogger(logger))
			if err != nil {
				return err
			}

			token, err := auth.Login(context.Background(), &auth.ProviderConfig{
				Credentials: libConfig.Credentials(),
				Version:     libConfig.OAuthVersion,
				LoginURL:    libConfig.LoginURL,
				HTTPTimeout: libConfig.HTTPTimeout,
				Logger:      libConfig.Logger,
			})
			if err != nil {
				return fmt.Errorf("failed to login to %s: %w", libConfig.Hostname, err)
			}

			// Store the app registration and the token, not the secret unless asked
			stored, err := loadFileConfig()
			if err != nil {
				return err
			}

			stored.Hostname = libConfig.Hostname
			stored.ClientID = config.ClientID
			stored.TenantID = config.TenantID
			stored.OAuthVersion = libConfig.OAuthVersion.String()
			stored.setToken(libConfig.Hostname, token)

			if saveSecret {
				stored.ClientSecret = config.ClientSecret
			}

			err = saveConfigStruct(stored)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s (%s)\n", libConfig.Hostname, libConfig.OAuthVersion)

			if stored.TokenExpiresAt != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token expires at %s\n", stored.TokenExpiresAt.Format(time.RFC3339))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "application (client) id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "client secret (prompted when omitted)")
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "directory (tenant) id")
	cmd.Flags().BoolVar(&saveSecret, "save-secret", false, "store the client secret in the config file")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from Dynamics 365",
		Long:  "Remove the cached token from the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			config.clearToken()

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

			return nil
		},
	}
}

func promptSecret() (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int

	if !term.IsTerminal(fd) {
		return "", constants.ErrSecretPromptNotTTY
	}

	_, _ = fmt.Fprint(os.Stderr, "Client secret: ")

	secret, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read client secret: %w", err)
	}

	return string(secret), nil
}
