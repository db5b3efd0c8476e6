package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/observability"
)

// DefaultCredentialHeader carries the caller's model credential.
const DefaultCredentialHeader = "X-Gemini-Key"

// KeySet is the set of API keys accepted by the auth middleware. It is
// swapped atomically on rotation.
type KeySet struct {
	keys atomic.Pointer[map[string]struct{}]
}

// NewKeySet builds a set from keys, ignoring empty entries.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	ks.Replace(keys)
	return ks
}

// Replace swaps in a new key list.
func (ks *KeySet) Replace(keys []string) {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			m[k] = struct{}{}
		}
	}
	ks.keys.Store(&m)
}

// Len returns the number of configured keys; zero disables authentication.
func (ks *KeySet) Len() int {
	return len(*ks.keys.Load())
}

// Contains reports whether key is accepted.
func (ks *KeySet) Contains(key string) bool {
	_, ok := (*ks.keys.Load())[key]
	return ok
}

// KeyRotator polls a Vault secret and replaces the KeySet when its version
// changes.
type KeyRotator struct {
	secrets  config.SecretReader
	path     string
	interval time.Duration
	keys     *KeySet
	om       *observability.Manager
	logger   *errors.Logger

	mu          sync.Mutex
	version     int64
	lastCheck   time.Time
	lastRotated time.Time
	lastError   error
	rotations   int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewKeyRotator creates a rotator; call Start to begin polling.
func NewKeyRotator(secrets config.SecretReader, path string, interval time.Duration, keys *KeySet, om *observability.Manager, logger *errors.Logger) *KeyRotator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &KeyRotator{
		secrets:  secrets,
		path:     path,
		interval: interval,
		keys:     keys,
		om:       om,
		logger:   logger,
	}
}

// Start performs an initial check and then polls until Stop or ctx is done.
func (r *KeyRotator) Start(ctx context.Context) {
	r.mu.Lock()
	if r.done != nil {
		r.mu.Unlock()
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	r.Check(ctx)

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Check(ctx)
			}
		}
	}()

	r.logger.Info("API key rotation started", "path", r.path, "interval", r.interval)
}

// Stop ends polling and waits for the loop to exit.
func (r *KeyRotator) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Check reads the secret once and swaps the keys if the version moved.
// It reports whether a rotation happened.
func (r *KeyRotator) Check(ctx context.Context) bool {
	secret, err := r.secrets.GetSecretV2(r.path)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastCheck = time.Now()

	if err != nil {
		r.lastError = err
		r.logger.LogError(err, "Failed to read API keys from Vault", "path", r.path)
		return false
	}
	if secret.Version != 0 && secret.Version == r.version {
		r.lastError = nil
		return false
	}

	keys, err := config.APIKeysFromSecret(secret)
	if err != nil {
		r.lastError = err
		r.logger.LogError(err, "Rotated API key secret is invalid", "path", r.path, "version", secret.Version)
		return false
	}

	r.keys.Replace(keys)
	r.version = secret.Version
	r.lastRotated = r.lastCheck
	r.lastError = nil
	r.rotations++

	if r.om != nil {
		r.om.RecordAPIKeyRotation(ctx, len(keys))
	}
	r.logger.Info("API keys rotated", "path", r.path, "version", secret.Version, "keys", len(keys))
	return true
}

// Status returns rotation state for /health.
func (r *KeyRotator) Status() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := map[string]any{
		"running":   r.done != nil,
		"path":      r.path,
		"interval":  r.interval.String(),
		"version":   r.version,
		"rotations": r.rotations,
		"keys":      r.keys.Len(),
	}
	if !r.lastCheck.IsZero() {
		status["last_check"] = r.lastCheck
	}
	if !r.lastRotated.IsZero() {
		status["last_rotated"] = r.lastRotated
	}
	if r.lastError != nil {
		status["last_error"] = r.lastError.Error()
	}
	return status
}
