package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
	"github.com/custodia-labs/tutorbot/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore reads prompt templates from <dir>/<name>.txt.
//
// A missing file is seeded with the built-in default so operators have
// something to edit. Blank or malformed files fall back to the default.
// Templates are read once and cached for the life of the process.
type PromptStore struct {
	dir string

	mu    sync.Mutex
	cache map[string]string
}

//nolint:lll // prompt text
var defaultPrompts = map[string]string{
	driven.PromptTutorSystem: `You are a knowledgeable and thoughtful classmate in %s.

Your goal is to help others understand concepts by explaining ideas clearly, not by simply giving answers.

How to respond:
- Explain reasoning step-by-step in a natural, peer-to-peer tone.
- Focus on the "why" behind concepts and methods.
- Use small examples or simple analogies when helpful.
- Share how you would think through the problem.
- If helpful, ask light guiding questions to prompt thinking.

Important boundaries:
- Do not provide complete solutions to graded homework, assignments, or exam questions.
- Instead, outline the approach and reasoning process.
- Do not discuss grades, personal disputes, or exam answer keys.
- If unsure, say so honestly rather than guessing.

Style requirements:
- Keep responses under 350 words.
- Use plain text only (no HTML or special formatting).
- Be supportive, collaborative, and respectful.
- Sound like a smart, helpful peer, not a professor or authority figure.

Always prioritize conceptual understanding and reasoning over final answers.`,
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a store rooted at dir, or ~/.tutorbot/prompts when
// dir is empty. Nothing is read or written until Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".tutorbot", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]string)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("%w: unknown prompt %q", domain.ErrNotFound, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.cache[name]; ok {
		return p, nil
	}

	prompt := def
	path := s.path(name)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.seed(path, def); err != nil {
			logger.Warn("Could not write default prompt %s: %v", path, err)
		}
	case err != nil:
		logger.Warn("Reading %s: %v; using built-in prompt", path, err)
	default:
		text := strings.TrimSpace(string(data))
		if err := checkTemplate(text); err != nil {
			logger.Warn("Ignoring %s: %v", path, err)
		} else {
			prompt = text
			logger.Debug("Prompt %s loaded from %s", name, path)
		}
	}

	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

func (s *PromptStore) seed(path, content string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content+"\n"), 0o600)
}

// checkTemplate accepts at most one %s (the course name) and no other verbs.
func checkTemplate(text string) error {
	if text == "" {
		return errors.New("template is empty")
	}
	verbs := 0
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '%' {
			continue
		}
		switch text[i+1] {
		case '%':
			i++
		case 's':
			verbs++
			i++
		default:
			return fmt.Errorf("unsupported verb %%%c", text[i+1])
		}
	}
	if verbs > 1 {
		return fmt.Errorf("expected at most one %%s, found %d", verbs)
	}
	return nil
}
