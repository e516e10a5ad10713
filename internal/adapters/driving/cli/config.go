package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutorbot/internal/adapters/driven/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a default config file",
	Annotations: map[string]string{skipSettings: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.WriteDefault(flagConfig, configForce)
		if errors.Is(err, config.ErrConfigExists) {
			cmd.Printf("Config already exists at %s (use --force to overwrite)\n", path)
			return nil
		}
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings without credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settings == nil {
			return errors.New("settings not loaded")
		}
		if configFileUsed != "" {
			cmd.Printf("# %s\n", configFileUsed)
		}
		return config.Encode(cmd.OutOrStdout(), *settings)
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify providers and forum credentials",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := requireRuntime(); err != nil {
			return err
		}
		if err := appRuntime.Check(cmd.Context(), settings); err != nil {
			return err
		}
		cmd.Println("Configuration OK")
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
