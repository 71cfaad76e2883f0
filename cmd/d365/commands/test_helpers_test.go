package commands

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// useTempConfig points viper at a config file in a fresh directory and
// resets viper when the test ends. Tests using it must not run in parallel.
func useTempConfig(t *testing.T) string {
	t.Helper()

	viper.Reset()

	configFile := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(configFile)

	t.Cleanup(viper.Reset)

	return configFile
}
