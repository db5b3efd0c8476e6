package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// PromptKind distinguishes system instructions from user prompt templates
type PromptKind string

const (
	PromptSystem PromptKind = "system"
	PromptUser   PromptKind = "user"
)

// LoadedPrompts holds prompt content read from files for one operation
type LoadedPrompts struct {
	System string
	User   string
}

type promptFile struct {
	op   Operation
	kind PromptKind
}

// PromptStore holds file-backed prompts and can reload them at runtime.
// It is safe for concurrent use.
type PromptStore struct {
	mu      sync.RWMutex
	prompts map[Operation]LoadedPrompts
	files   map[string]promptFile
}

// NewPromptStore returns an empty store.
func NewPromptStore() *PromptStore {
	return &PromptStore{
		prompts: make(map[Operation]LoadedPrompts),
		files:   make(map[string]promptFile),
	}
}

// Load reads every prompt file referenced by the configuration.
func (s *PromptStore) Load(c *Config) error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	count := 0
	for _, op := range Operations() {
		prompts := c.operationConfig(op).Prompts
		if prompts.SystemFile != "" {
			if err := s.loadFile(prompts.SystemFile, op, PromptSystem); err != nil {
				return err
			}
			count++
		}
		if prompts.UserFile != "" {
			if err := s.loadFile(prompts.UserFile, op, PromptUser); err != nil {
				return err
			}
			count++
		}
	}

	if count == 0 {
		log.Println("[CONFIG] No custom prompt files loaded - using configured or built-in prompts")
	} else {
		log.Printf("[CONFIG] Total custom prompt files loaded: %d", count)
	}
	return nil
}

func (s *PromptStore) loadFile(path string, op Operation, kind PromptKind) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", op, kind, path, err)
	}

	content, err := readPromptFile(absPath, op, kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[absPath] = promptFile{op: op, kind: kind}
	s.set(op, kind, content)
	return nil
}

// set must be called with mu held
func (s *PromptStore) set(op Operation, kind PromptKind, content string) {
	loaded := s.prompts[op]
	switch kind {
	case PromptSystem:
		loaded.System = content
	case PromptUser:
		loaded.User = content
	}
	s.prompts[op] = loaded
}

// Get returns the file-loaded prompts for op. Empty fields mean no file.
func (s *PromptStore) Get(op Operation) LoadedPrompts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts[op]
}

// Files returns the absolute paths of every loaded prompt file, sorted.
func (s *PromptStore) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]string, 0, len(s.files))
	for path := range s.files {
		files = append(files, path)
	}
	sort.Strings(files)
	return files
}

// Reload re-reads a previously loaded prompt file. It reports false for paths
// the store does not track. On error the previous content is kept.
func (s *PromptStore) Reload(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	ref, ok := s.files[absPath]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}

	content, err := readPromptFile(absPath, ref.op, ref.kind)
	if err != nil {
		return true, err
	}

	s.mu.Lock()
	s.set(ref.op, ref.kind, content)
	s.mu.Unlock()

	log.Printf("[CONFIG] Reloaded %s %s prompt from file: %s (%d characters)", ref.op, ref.kind, absPath, len(content))
	return true, nil
}

func readPromptFile(absPath string, op Operation, kind PromptKind) (string, error) {
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", op, kind, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", op, kind, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", op, kind, absPath)
	}

	if kind == PromptUser {
		if err := ValidateUserTemplate(op, trimmed); err != nil {
			return "", fmt.Errorf("%s user prompt file '%s': %w", op, absPath, err)
		}
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)", op, kind, absPath, len(trimmed))
	return trimmed, nil
}

// ValidateUserTemplate checks that tmpl has exactly the %s verbs op fills.
// A literal percent sign is written as %%.
func ValidateUserTemplate(op Operation, tmpl string) error {
	verbs := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		if i+1 >= len(tmpl) {
			return fmt.Errorf("template ends with a bare '%%'")
		}
		i++
		switch tmpl[i] {
		case '%':
		case 's':
			verbs++
		default:
			return fmt.Errorf("unsupported verb %%%c, only %%s and %%%% are allowed", tmpl[i])
		}
	}

	if want := op.TemplateArgs(); verbs != want {
		return fmt.Errorf("template has %d %%s placeholder(s), %s needs %d", verbs, op, want)
	}
	return nil
}

// validatePromptFiles checks that every configured prompt file exists before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath string, op Operation, kind PromptKind) {
		if filePath == "" {
			return
		}
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", op, kind, filePath))
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", op, kind, absPath))
		}
	}

	for _, op := range Operations() {
		prompts := c.operationConfig(op).Prompts
		validateFile(prompts.SystemFile, op, PromptSystem)
		validateFile(prompts.UserFile, op, PromptUser)
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
