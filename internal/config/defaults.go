package config

import (
	"time"

	"github.com/spf13/viper"
)

// operationDefaults are the per-flow overrides applied on top of the global AI settings
var operationDefaults = map[Operation]struct {
	timeout     time.Duration
	maxRetries  int
	temperature float64
	model       string
}{
	// parsing a document is idempotent and the slowest call, so it may retry once
	OpParseResume:    {timeout: 90 * time.Second, maxRetries: 1, temperature: 0.1},
	OpAnalyzeJob:     {timeout: 60 * time.Second, maxRetries: 1, temperature: 0.2},
	OpGenerateResume: {timeout: 90 * time.Second, maxRetries: 0, temperature: 0.4},
	OpATSScore:       {timeout: 60 * time.Second, maxRetries: 0, temperature: 0.1},
	OpCoverLetter:    {timeout: 90 * time.Second, maxRetries: 0, temperature: 0.7, model: "gemini-2.0-flash"},
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.maxRetries", 0)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	for op, d := range operationDefaults {
		prefix := "ai.operations." + string(op)
		v.SetDefault(prefix+".provider", "gemini")
		v.SetDefault(prefix+".model", d.model)
		v.SetDefault(prefix+".timeout", d.timeout)
		v.SetDefault(prefix+".maxRetries", d.maxRetries)
		v.SetDefault(prefix+".temperature", d.temperature)
		v.SetDefault(prefix+".useSystemPrompts", true)
		v.SetDefault(prefix+".prompts.system", "")
		v.SetDefault(prefix+".prompts.systemFile", "")
		v.SetDefault(prefix+".prompts.user", "")
		v.SetDefault(prefix+".prompts.userFile", "")

		v.SetDefault(prefix+".circuitBreaker.enabled", true)
		v.SetDefault(prefix+".circuitBreaker.maxRequests", 3)
		v.SetDefault(prefix+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.minRequests", 3)
		v.SetDefault(prefix+".circuitBreaker.failureThreshold", 0.6)
	}
	v.SetDefault("ai.operations.parseResume.inputMode", InputModeAuto)

	v.SetDefault("prompts.watch", false)
	v.SetDefault("prompts.debounceDelay", 500*time.Millisecond)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	// three concurrent model calls can take a while
	v.SetDefault("server.writeTimeout", 180*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.credentialHeader", "X-Gemini-Key")

	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.cipherSuites", []string{})
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.reloadOnChange", false)
	v.SetDefault("server.tls.reloadDebounce", time.Second)

	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)
	v.SetDefault("server.keyRotation.enabled", false)
	v.SetDefault("server.keyRotation.interval", 5*time.Minute)

	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxResumeSize", 5*1024*1024)
	v.SetDefault("app.maxRequestSize", 8*1024*1024)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.tlsCerts", "")
	v.SetDefault("vault.secrets.storage", "")

	v.SetDefault("storage.s3.enabled", false)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "auto")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.accessKey", "")
	v.SetDefault("storage.s3.secretKey", "")
	v.SetDefault("storage.s3.usePathStyle", false)
	v.SetDefault("storage.s3.keyPrefix", "")

	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "tailorpro")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}
