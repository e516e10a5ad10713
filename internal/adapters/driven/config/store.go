package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// ErrConfigExists is returned by WriteDefault when the file is already present.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes the default settings to path (or the default location)
// and returns the path written. Existing files are kept unless force is set.
func WriteDefault(path string, force bool) (string, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return "", err
		}
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s: %w", path, ErrConfigExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return path, err
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return path, fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(fromDomain(domain.DefaultSettings()))
	if err != nil {
		return path, err
	}

	// Write with restricted permissions
	return path, os.WriteFile(path, data, 0600)
}

// Encode writes settings as TOML. Credentials are never included.
func Encode(w io.Writer, s domain.Settings) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(fromDomain(s))
}
