package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// EnvPrefix prefixes every settings override variable, e.g. TUTORBOT_POLL_INTERVAL.
const EnvPrefix = "TUTORBOT"

// Credential variables. These never appear in the config file.
const (
	EnvPiazzaEmail     = "PIAZZA_EMAIL"
	EnvPiazzaPassword  = "PIAZZA_PASSWORD"
	EnvPiazzaNetwork   = "PIAZZA_NETWORK"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvWeaviateAPIKey  = "WEAVIATE_APIKEY"
)

const (
	dirName        = ".tutorbot"
	configFileName = "config.toml"
	envFileName    = ".env"
)

// Options controls where settings are read from.
type Options struct {
	// ConfigFile is an explicit config path. When empty the default
	// ~/.tutorbot/config.toml is used if present.
	ConfigFile string

	// EnvFile is a dotenv file loaded before reading the environment.
	// When empty, ./.env is loaded if present.
	EnvFile string
}

// Result is the outcome of Load.
type Result struct {
	Settings domain.Settings

	// ConfigFile is the file that was read, or empty when only defaults
	// and the environment applied.
	ConfigFile string
}

// DefaultDir returns ~/.tutorbot.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns ~/.tutorbot/config.toml.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load resolves settings and validates them.
func Load(opts Options) (*Result, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("toml")

	defaults, err := toml.Marshal(fromDomain(domain.DefaultSettings()))
	if err != nil {
		return nil, fmt.Errorf("encoding defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("reading defaults: %w", err)
	}

	used, err := mergeConfigFile(v, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var raw fileSettings
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	settings, err := raw.toDomain()
	if err != nil {
		return nil, err
	}

	applyCredentials(&settings)
	if err := resolvePaths(&settings); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &Result{Settings: settings, ConfigFile: used}, nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = envFileName
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func mergeConfigFile(v *viper.Viper, path string) (string, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			return "", nil
		}
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: config file %s: %w", domain.ErrInvalidConfig, path, err)
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", domain.ErrInvalidConfig, path, err)
	}
	return path, nil
}

// applyCredentials copies secrets from the environment. API keys are chosen
// by provider so one .env can serve either configuration.
func applyCredentials(s *domain.Settings) {
	s.Forum.Email = os.Getenv(EnvPiazzaEmail)
	s.Forum.Password = os.Getenv(EnvPiazzaPassword)
	if network := os.Getenv(EnvPiazzaNetwork); network != "" {
		s.Forum.NetworkID = network
	}
	s.LLM.APIKey = apiKeyFor(s.LLM.Provider)
	s.Embedding.APIKey = apiKeyFor(s.Embedding.Provider)
	s.VectorStore.WeaviateAPIKey = os.Getenv(EnvWeaviateAPIKey)
}

func apiKeyFor(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderAnthropic:
		return os.Getenv(EnvAnthropicAPIKey)
	case domain.AIProviderOpenAI:
		return os.Getenv(EnvOpenAIAPIKey)
	default:
		return ""
	}
}

func resolvePaths(s *domain.Settings) error {
	if s.DataDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		s.DataDir = dir
	}
	if s.DBPath != "" && !filepath.IsAbs(s.DBPath) {
		s.DBPath = filepath.Join(s.DataDir, s.DBPath)
	}
	return nil
}
