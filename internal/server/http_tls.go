package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"tailorpro/internal/config"
	"tailorpro/internal/errors"
	"tailorpro/internal/observability"
	"tailorpro/internal/watch"
)

const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
	TLSModeMutual   = "mutual"

	certCriticalThreshold = 24 * time.Hour
	certWarningThreshold  = 7 * 24 * time.Hour
)

// CertReloader serves the server keypair through tls.Config.GetCertificate.
// With file-based certificates and reloadOnChange it watches the files and
// swaps in the new pair after each change.
type CertReloader struct {
	cfg    config.TLSConfig
	om     *observability.Manager
	logger *errors.Logger

	mu          sync.RWMutex
	cert        *tls.Certificate
	leaf        *x509.Certificate
	reloads     int
	failures    int
	lastReload  time.Time
	lastFailure error

	watcher *watch.FileWatcher
}

// NewCertReloader loads the initial keypair from content or files.
func NewCertReloader(cfg config.TLSConfig, om *observability.Manager, logger *errors.Logger) (*CertReloader, error) {
	cr := &CertReloader{cfg: cfg, om: om, logger: logger}

	cert, err := loadServerCertificate(cfg)
	if err != nil {
		return nil, err
	}
	cr.store(cert)
	return cr, nil
}

// Watching reports whether file changes trigger a reload.
func (cr *CertReloader) Watching() bool {
	return cr.cfg.ReloadOnChange && cr.cfg.CertContent == "" && cr.cfg.CertFile != ""
}

// Start begins watching the certificate files when reloading is enabled.
func (cr *CertReloader) Start() error {
	if !cr.Watching() {
		return nil
	}

	w, err := watch.New("tls", []string{cr.cfg.CertFile, cr.cfg.KeyFile}, cr.cfg.ReloadDebounce,
		func([]string) { _ = cr.Reload(context.Background()) }, cr.logger)
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("failed to start certificate watcher: %w", err)
	}
	cr.watcher = w
	return nil
}

// Stop ends file watching.
func (cr *CertReloader) Stop() error {
	if cr.watcher == nil {
		return nil
	}
	return cr.watcher.Stop()
}

// Reload reads the keypair again. On failure the previous pair stays in use.
func (cr *CertReloader) Reload(ctx context.Context) error {
	cert, err := loadServerCertificate(cr.cfg)
	if cr.om != nil {
		cr.om.RecordCertReload(ctx, err == nil)
	}
	if err != nil {
		cr.mu.Lock()
		cr.failures++
		cr.lastFailure = err
		cr.mu.Unlock()
		cr.logger.LogError(err, "Failed to reload TLS certificate")
		return err
	}

	cr.store(cert)
	cr.mu.Lock()
	cr.reloads++
	cr.lastReload = time.Now()
	cr.lastFailure = nil
	cr.mu.Unlock()

	cr.logger.Info("TLS certificate reloaded", "expires", cr.expiry())
	return nil
}

func (cr *CertReloader) store(cert tls.Certificate) {
	var leaf *x509.Certificate
	if len(cert.Certificate) > 0 {
		leaf, _ = x509.ParseCertificate(cert.Certificate[0])
	}

	cr.mu.Lock()
	cr.cert = &cert
	cr.leaf = leaf
	cr.mu.Unlock()
}

// GetCertificate implements tls.Config.GetCertificate.
func (cr *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.cert, nil
}

func (cr *CertReloader) expiry() time.Time {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	if cr.leaf == nil {
		return time.Time{}
	}
	return cr.leaf.NotAfter
}

// Status reports certificate expiry and reload counters for /health. A
// certificate expiring within a day is unhealthy.
func (cr *CertReloader) Status() map[string]any {
	status := map[string]any{
		"reload_on_change": cr.Watching(),
	}
	if cr.watcher != nil {
		status["watcher_running"] = cr.watcher.IsRunning()
	}

	cr.mu.RLock()
	status["reloads"] = cr.reloads
	status["reload_failures"] = cr.failures
	if !cr.lastReload.IsZero() {
		status["last_reload"] = cr.lastReload
	}
	if cr.lastFailure != nil {
		status["last_error"] = cr.lastFailure.Error()
	}
	cr.mu.RUnlock()

	notAfter := cr.expiry()
	if notAfter.IsZero() {
		status["healthy"] = false
		status["status"] = "unknown"
		return status
	}

	remaining := time.Until(notAfter)
	status["expires"] = notAfter
	status["time_to_expiry_hours"] = int(remaining.Hours())

	switch {
	case remaining <= 0:
		status["healthy"] = false
		status["status"] = "expired"
	case remaining <= certCriticalThreshold:
		status["healthy"] = false
		status["status"] = "critical"
	case remaining <= certWarningThreshold:
		status["healthy"] = true
		status["status"] = "warning"
	default:
		status["healthy"] = true
		status["status"] = "ok"
	}
	return status
}

// configureTLS returns nil for disabled mode.
func (s *Server) configureTLS() (*tls.Config, error) {
	switch s.TLSConfig.Mode {
	case "", TLSModeDisabled:
		return nil, nil
	case TLSModeServer, TLSModeMutual:
	default:
		return nil, fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}

	reloader, err := NewCertReloader(s.TLSConfig, s.Observability, s.Logger)
	if err != nil {
		return nil, err
	}
	if err := reloader.Start(); err != nil {
		return nil, err
	}
	s.CertReloader = reloader

	return buildTLSConfig(s.TLSConfig, reloader)
}

func buildTLSConfig(cfg config.TLSConfig, reloader *CertReloader) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:     tlsVersion(cfg.MinVersion),
		GetCertificate: reloader.GetCertificate,
	}

	if len(cfg.CipherSuites) > 0 {
		suites := make([]uint16, 0, len(cfg.CipherSuites))
		for _, name := range cfg.CipherSuites {
			if id, ok := cipherSuiteID(name); ok {
				suites = append(suites, id)
			}
		}
		tlsConfig.CipherSuites = suites
	}

	if cfg.Mode != TLSModeMutual {
		tlsConfig.ClientAuth = tls.NoClientCert
		return tlsConfig, nil
	}

	pool, err := loadCACertPool(cfg)
	if err != nil {
		return nil, err
	}
	tlsConfig.ClientCAs = pool
	tlsConfig.ClientAuth = clientAuthPolicy(cfg.ClientAuthPolicy)
	return tlsConfig, nil
}

// loadServerCertificate prefers PEM content (from Vault) over files.
func loadServerCertificate(cfg config.TLSConfig) (tls.Certificate, error) {
	if cfg.CertContent != "" && cfg.KeyContent != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.CertContent), []byte(cfg.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if cfg.CertFile != "" && cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

func loadCACertPool(cfg config.TLSConfig) (*x509.CertPool, error) {
	var caPEM []byte
	switch {
	case cfg.CAContent != "":
		caPEM = []byte(cfg.CAContent)
	case cfg.CAFile != "":
		data, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		caPEM = data
	default:
		return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("failed to append CA cert")
	}
	return pool, nil
}

func tlsVersion(v string) uint16 {
	if v == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

func clientAuthPolicy(policy string) tls.ClientAuthType {
	switch policy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

func cipherSuiteID(name string) (uint16, bool) {
	for _, suite := range tls.CipherSuites() {
		if suite.Name == name {
			return suite.ID, true
		}
	}
	return 0, false
}
