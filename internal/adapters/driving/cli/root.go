// Package cli provides the tutorbot command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutorbot/internal/adapters/driven/config"
	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driving"
	"github.com/custodia-labs/tutorbot/internal/logger"
)

// Runtime opens the services behind each command. main provides it.
type Runtime interface {
	Poller(ctx context.Context, settings *domain.Settings, dryRun bool) (driving.Poller, error)
	Ingestor(ctx context.Context, settings *domain.Settings, withForum bool) (driving.Ingestor, error)
	Ledger(ctx context.Context, settings *domain.Settings) (driving.LedgerService, error)
	Check(ctx context.Context, settings *domain.Settings) error
	ServeMetrics(ctx context.Context, addr string) error
	Close() error
}

// skipSettings marks commands that run without loading settings.
const skipSettings = "skip-settings"

var (
	version = "dev"

	appRuntime Runtime

	// settings and configFileUsed are filled before any command runs.
	settings       *domain.Settings
	configFileUsed string

	flagConfig  string
	flagEnvFile string
	flagVerbose bool
	flagLogJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "tutorbot",
	Short: "Answer course forum questions with an LLM",
	Long: `tutorbot watches a Piazza course for unread questions, drafts an answer
with a language model (optionally grounded on ingested course materials
and past answered questions) and posts it back, never answering the same
question twice.

Credentials come from the environment: PIAZZA_EMAIL, PIAZZA_PASSWORD,
PIAZZA_NETWORK and the API key of the chosen provider.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "config file (default ~/.tutorbot/config.toml)")
	flags.StringVar(&flagEnvFile, "env-file", "", "dotenv file with credentials (default ./.env)")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&flagLogJSON, "log-json", false, "log as JSON")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetRuntime sets the service provider used by the commands.
func SetRuntime(r Runtime) {
	appRuntime = r
}

// Execute runs the root command with ctx, then releases the appRuntime.
func Execute(ctx context.Context) error {
	defer func() {
		if appRuntime != nil {
			if err := appRuntime.Close(); err != nil {
				logger.Warn("Closing resources: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func loadSettings(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(flagVerbose)
	logger.SetJSON(flagLogJSON)

	if cmd.Annotations[skipSettings] == "true" {
		return nil
	}

	res, err := config.Load(config.Options{ConfigFile: flagConfig, EnvFile: flagEnvFile})
	if err != nil {
		return err
	}
	settings = &res.Settings
	configFileUsed = res.ConfigFile
	if configFileUsed != "" {
		logger.Debug("Config loaded from %s", configFileUsed)
	}
	return nil
}

func requireRuntime() error {
	if appRuntime == nil {
		return errors.New("appRuntime not configured")
	}
	if settings == nil {
		return errors.New("settings not loaded")
	}
	return nil
}
