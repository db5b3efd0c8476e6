package ai

import (
	"strings"

	"tailorpro/internal/errors"
)

// Credential is the caller's model API key. It is passed explicitly into
// every flow and never read from process state.
type Credential struct {
	key string
}

// NewCredential wraps an API key, trimming surrounding whitespace.
func NewCredential(key string) Credential {
	return Credential{key: strings.TrimSpace(key)}
}

// Key returns the raw API key.
func (c Credential) Key() string {
	return c.key
}

// IsZero reports whether no key was supplied.
func (c Credential) IsZero() bool {
	return c.key == ""
}

// Require returns a credential error when the key is empty.
func (c Credential) Require() error {
	if c.IsZero() {
		return errors.NewCredentialError(errors.ErrCodeMissingCredential,
			"a Gemini API key is required for this operation", nil)
	}
	return nil
}

// String masks the key so a Credential is safe to log.
func (c Credential) String() string {
	if len(c.key) <= 8 {
		if c.key == "" {
			return ""
		}
		return "****"
	}
	return c.key[:4] + "****"
}
