package normalisers

import (
	"strings"

	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/normalisers/markdown"
	"github.com/custodia-labs/tutorbot/internal/normalisers/pdf"
	"github.com/custodia-labs/tutorbot/internal/normalisers/plaintext"
)

// DefaultExtensions is the extension filter used when none is given.
var DefaultExtensions = []string{"pdf", "md", "txt"}

// Registry selects a MaterialLoader by file extension.
type Registry struct {
	byExt    map[string]driven.MaterialLoader
	fallback driven.MaterialLoader
}

// NewRegistry creates a registry. The fallback handles unknown extensions
// and may be nil, in which case unknown extensions are unsupported.
func NewRegistry(fallback driven.MaterialLoader, loaders ...driven.MaterialLoader) *Registry {
	r := &Registry{
		byExt:    make(map[string]driven.MaterialLoader),
		fallback: fallback,
	}
	for _, l := range loaders {
		r.Register(l)
	}
	return r
}

// DefaultRegistry returns the registry with every built-in loader.
func DefaultRegistry() *Registry {
	text := plaintext.New()
	return NewRegistry(text, pdf.New(), markdown.New(), text)
}

// Register adds a loader for all of its extensions, replacing earlier ones.
func (r *Registry) Register(l driven.MaterialLoader) {
	for _, ext := range l.Extensions() {
		r.byExt[NormaliseExtension(ext)] = l
	}
}

// ForExtension returns the loader for ext, which may carry a leading dot.
func (r *Registry) ForExtension(ext string) (driven.MaterialLoader, bool) {
	if l, ok := r.byExt[NormaliseExtension(ext)]; ok {
		return l, true
	}
	if r.fallback != nil {
		return r.fallback, true
	}
	return nil, false
}

// NormaliseExtension lower-cases ext and strips a leading dot.
func NormaliseExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// ParseExtensions splits a comma separated list such as "pdf, .md,TXT".
// Empty input yields DefaultExtensions.
func ParseExtensions(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if ext := NormaliseExtension(part); ext != "" {
			out = append(out, ext)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return out
}
