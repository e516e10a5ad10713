// Package plaintext loads text files as course material.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.MaterialLoader = (*Loader)(nil)

// Loader reads files verbatim. Invalid UTF-8 sequences are dropped.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{"txt", "text"}
}

// Load reads the file at path.
func (l *Loader) Load(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
