// Package pdf extracts text from PDF course material.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.MaterialLoader = (*Loader)(nil)

// Loader extracts page text with ledongthuc/pdf.
// Each page with text is prefixed by a "[Page N]" marker so retrieved
// chunks can be traced back to the slide or page they came from.
type Loader struct{}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{}
}

// Extensions returns the file extensions this loader handles.
func (l *Loader) Extensions() []string {
	return []string{"pdf"}
}

// Load opens the PDF at path and returns the text of all pages.
// Pages that fail to extract are logged and skipped.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if f != nil {
		defer f.Close()
	}
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}

	pages := make([]string, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("pdf %s: page %d: %v", path, i, err)
			continue
		}
		pages[i-1] = text
	}

	return JoinPages(pages), nil
}

// JoinPages formats page texts (index 0 is page 1) as
// "[Page N]\n<text>" blocks separated by blank lines, omitting pages
// without text.
func JoinPages(pages []string) string {
	blocks := make([]string, 0, len(pages))
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("[Page %d]\n%s", i+1, text))
	}
	return strings.Join(blocks, "\n\n")
}
