package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig.
const EnvPrefix = "TAILORPRO"

// Config holds all application configuration.
//
// The model credential is deliberately absent: every caller supplies its own
// key with each request.
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Prompts       PromptWatchConfig   `mapstructure:"prompts"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	promptStore *PromptStore
}

// AIConfig holds the global model settings and per-operation overrides
type AIConfig struct {
	Provider         string           `mapstructure:"provider"`
	Model            string           `mapstructure:"model"`
	Timeout          time.Duration    `mapstructure:"timeout"`
	MaxRetries       int              `mapstructure:"maxRetries"`
	Temperature      float32          `mapstructure:"temperature"`
	UseSystemPrompts bool             `mapstructure:"useSystemPrompts"`
	Operations       OperationsConfig `mapstructure:"operations"`
}

// OperationsConfig holds one OperationAIConfig per flow
type OperationsConfig struct {
	ParseResume    OperationAIConfig `mapstructure:"parseResume"`
	AnalyzeJob     OperationAIConfig `mapstructure:"analyzeJob"`
	GenerateResume OperationAIConfig `mapstructure:"generateResume"`
	ATSScore       OperationAIConfig `mapstructure:"atsScore"`
	CoverLetter    OperationAIConfig `mapstructure:"coverLetter"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`         // count reset interval while closed
	Timeout          time.Duration `mapstructure:"timeout"`          // open -> half-open delay
	MinRequests      uint32        `mapstructure:"minRequests"`      // requests before the breaker may trip
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// OperationAIConfig holds AI configuration for one flow. Nil pointers fall
// back to the global AIConfig values.
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	Prompts          PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// InputMode only applies to parseResume: "auto", "inline" or "text".
	InputMode string `mapstructure:"inputMode"`
}

// PromptConfig holds inline prompt overrides and prompt file paths
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// PromptWatchConfig controls hot reloading of prompt files
type PromptWatchConfig struct {
	Watch         bool          `mapstructure:"watch"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	TLS TLSConfig `mapstructure:"tls"`

	// APIKeys authenticate clients of this server. They are unrelated to the
	// model credential, which arrives in CredentialHeader.
	APIKeys          []string          `mapstructure:"apiKeys"`
	CredentialHeader string            `mapstructure:"credentialHeader"`
	RateLimit        RateLimitConfig   `mapstructure:"rateLimit"`
	KeyRotation      KeyRotationConfig `mapstructure:"keyRotation"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	// PEM content, populated from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"` // "1.2", "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"

	ReloadOnChange bool          `mapstructure:"reloadOnChange"`
	ReloadDebounce time.Duration `mapstructure:"reloadDebounce"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// KeyRotationConfig controls polling Vault for rotated server API keys
type KeyRotationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxResumeSize    int64    `mapstructure:"maxResumeSize"`
	MaxRequestSize   int64    `mapstructure:"maxRequestSize"`
}

// StorageConfig holds the optional object storage resume source
type StorageConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config configures an S3-compatible bucket (AWS, R2, MinIO)
type S3Config struct {
	Enabled      bool   `mapstructure:"enabled"`
	Bucket       string `mapstructure:"bucket"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"accessKey"`
	SecretKey    string `mapstructure:"secretKey"`
	UsePathStyle bool   `mapstructure:"usePathStyle"`
	KeyPrefix    string `mapstructure:"keyPrefix"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Console         ConsoleConfig     `mapstructure:"console"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

type HealthCheckConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from defaults, a config file and
// TAILORPRO_* environment variables, then loads prompt files.
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", EnvPrefix)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/tailorpro/")
	v.AddConfigPath("$HOME/.tailorpro")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return finishLoad(v, configFileUsed)
}

// LoadConfigFile loads configuration from an explicit YAML file.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	log.Printf("[CONFIG] Successfully loaded config file: %s", path)

	return finishLoad(v, path)
}

func finishLoad(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.validatePromptFiles(); err != nil {
		return nil, fmt.Errorf("prompt file validation failed: %w", err)
	}

	store := NewPromptStore()
	if err := store.Load(&config); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}
	config.promptStore = store

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// PromptStore returns the prompts loaded from files. Configs built by hand
// (tests) get an empty store.
func (c *Config) PromptStore() *PromptStore {
	if c.promptStore == nil {
		c.promptStore = NewPromptStore()
	}
	return c.promptStore
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("AI maxRetries cannot be negative")
	}

	for _, op := range Operations() {
		opCfg := c.GetOperationConfig(op)
		if *opCfg.Timeout <= 0 {
			return fmt.Errorf("%s: timeout must be positive", op)
		}
		if *opCfg.MaxRetries < 0 {
			return fmt.Errorf("%s: maxRetries cannot be negative", op)
		}
		if user := opCfg.Prompts.User; user != "" {
			if err := ValidateUserTemplate(op, user); err != nil {
				return fmt.Errorf("%s user prompt: %w", op, err)
			}
		}
		if t := opCfg.CircuitBreaker.FailureThreshold; opCfg.CircuitBreaker.Enabled && (t <= 0 || t > 1) {
			return fmt.Errorf("%s: circuit breaker failureThreshold must be in (0, 1]", op)
		}
	}

	switch c.AI.Operations.ParseResume.InputMode {
	case "", InputModeAuto, InputModeInline, InputModeText:
	default:
		return fmt.Errorf("invalid parseResume inputMode: %s (must be 'auto', 'inline', or 'text')",
			c.AI.Operations.ParseResume.InputMode)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.CredentialHeader == "" {
		return fmt.Errorf("server credentialHeader is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.App.MaxResumeSize <= 0 {
		return fmt.Errorf("app maxResumeSize must be positive")
	}
	if c.App.MaxRequestSize < c.App.MaxResumeSize {
		return fmt.Errorf("app maxRequestSize (%d) must be at least maxResumeSize (%d)",
			c.App.MaxRequestSize, c.App.MaxResumeSize)
	}

	if c.Storage.S3.Enabled && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket is required when S3 storage is enabled")
	}

	if c.Server.KeyRotation.Enabled {
		if !c.Vault.Enabled || c.Vault.Secrets.APIKeys == "" {
			return fmt.Errorf("server keyRotation requires vault with secrets.apiKeys")
		}
		if c.Server.KeyRotation.Interval <= 0 {
			return fmt.Errorf("server keyRotation interval must be positive")
		}
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
