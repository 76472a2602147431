// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// ServiceAuthConfig provides the shared service key used to authenticate
// callers of the /v1 API (the main backend and the messaging gateway).
type ServiceAuthConfig interface {
	GetServiceAPIKey() string
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// WhatsAppConfig provides settings for the outbound messaging gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
}

// MoonshotConfig provides settings for the Kimi chat-completion API.
type MoonshotConfig interface {
	GetMoonshotAPIKey() string
	GetMoonshotBaseURL() string
	GetMoonshotModel() string
	GetMoonshotDisableThinking() bool
}

// WhisperConfig provides settings for speech-to-text.
// When a model path is set the native whisper.cpp bindings are used;
// otherwise audio is sent to a whisper-server instance.
type WhisperConfig interface {
	GetWhisperServerURL() string
	GetWhisperModelPath() string
	GetWhisperLanguage() string
}

// BackendConfig provides settings for the operations backend API
// (support ticket reports).
type BackendConfig interface {
	GetBackendAPIURL() string
	GetBackendAPIKey() string
}

// IntakeConfig provides tuning for the voice intake pipeline.
type IntakeConfig interface {
	GetAutoCreateThreshold() float64
	GetConfirmThreshold() float64
	GetDefaultAreaCode() string
	GetBusinessLanguages() []string
	GetSTTTimeout() time.Duration
	GetLLMTimeout() time.Duration
	GetSendTimeout() time.Duration
}

// InvoiceConfig provides tuning for the invoice draft generator.
type InvoiceConfig interface {
	GetInvoiceHighThreshold() float64
	GetInvoiceMediumThreshold() float64
	GetTaxRate() float64
	GetLLMTimeout() time.Duration
	GetCatalogTimeout() time.Duration
}

// SupportConfig provides tuning for the support chat router.
type SupportConfig interface {
	GetLLMTimeout() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	ServiceAPIKey  string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	WorkerEmbedded   bool

	WhatsAppURL      string
	WhatsAppKey      string
	WhatsAppDeviceID string

	MoonshotAPIKey          string
	MoonshotBaseURL         string
	MoonshotModel           string
	MoonshotDisableThinking bool

	WhisperServerURL string
	WhisperModelPath string
	WhisperLanguage  string

	BackendAPIURL string
	BackendAPIKey string

	AutoCreateThreshold    float64
	ConfirmThreshold       float64
	InvoiceHighThreshold   float64
	InvoiceMediumThreshold float64
	TaxRate                float64
	DefaultAreaCode        string
	BusinessLanguages      []string

	STTTimeout     time.Duration
	LLMTimeout     time.Duration
	SendTimeout    time.Duration
	CatalogTimeout time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// ServiceAuthConfig implementation
func (c *Config) GetServiceAPIKey() string { return c.ServiceAPIKey }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }

// MoonshotConfig implementation
func (c *Config) GetMoonshotAPIKey() string       { return c.MoonshotAPIKey }
func (c *Config) GetMoonshotBaseURL() string      { return c.MoonshotBaseURL }
func (c *Config) GetMoonshotModel() string        { return c.MoonshotModel }
func (c *Config) GetMoonshotDisableThinking() bool { return c.MoonshotDisableThinking }

// WhisperConfig implementation
func (c *Config) GetWhisperServerURL() string { return c.WhisperServerURL }
func (c *Config) GetWhisperModelPath() string { return c.WhisperModelPath }
func (c *Config) GetWhisperLanguage() string  { return c.WhisperLanguage }

// BackendConfig implementation
func (c *Config) GetBackendAPIURL() string { return c.BackendAPIURL }
func (c *Config) GetBackendAPIKey() string { return c.BackendAPIKey }

// IntakeConfig implementation
func (c *Config) GetAutoCreateThreshold() float64 { return c.AutoCreateThreshold }
func (c *Config) GetConfirmThreshold() float64    { return c.ConfirmThreshold }
func (c *Config) GetDefaultAreaCode() string      { return c.DefaultAreaCode }
func (c *Config) GetBusinessLanguages() []string  { return c.BusinessLanguages }
func (c *Config) GetSTTTimeout() time.Duration    { return c.STTTimeout }
func (c *Config) GetLLMTimeout() time.Duration    { return c.LLMTimeout }
func (c *Config) GetSendTimeout() time.Duration   { return c.SendTimeout }

// InvoiceConfig implementation
func (c *Config) GetInvoiceHighThreshold() float64   { return c.InvoiceHighThreshold }
func (c *Config) GetInvoiceMediumThreshold() float64 { return c.InvoiceMediumThreshold }
func (c *Config) GetTaxRate() float64                { return c.TaxRate }
func (c *Config) GetCatalogTimeout() time.Duration   { return c.CatalogTimeout }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8090"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		ServiceAPIKey:  getEnv("SERVICE_API_KEY", ""),
		CORSAllowAll:   corsAllowAll,
		CORSOrigins:    corsOrigins,
		CORSAllowCreds: strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "voice"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		WorkerEmbedded:   strings.EqualFold(getEnv("WORKER_EMBEDDED", "true"), "true"),

		WhatsAppURL:      getEnv("WHATSAPP_API_URL", ""),
		WhatsAppKey:      getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppDeviceID: getEnv("WHATSAPP_DEVICE_ID", ""),

		MoonshotAPIKey:          getEnv("MOONSHOT_API_KEY", ""),
		MoonshotBaseURL:         getEnv("MOONSHOT_BASE_URL", ""),
		MoonshotModel:           getEnv("MOONSHOT_MODEL", ""),
		MoonshotDisableThinking: strings.EqualFold(getEnv("MOONSHOT_DISABLE_THINKING", "false"), "true"),

		WhisperServerURL: getEnv("WHISPER_SERVER_URL", ""),
		WhisperModelPath: getEnv("WHISPER_MODEL_PATH", ""),
		WhisperLanguage:  getEnv("WHISPER_LANGUAGE", "es"),

		BackendAPIURL: getEnv("BACKEND_API_URL", ""),
		BackendAPIKey: getEnv("BACKEND_API_KEY", ""),

		AutoCreateThreshold:    mustFloat(getEnv("CONFIDENCE_AUTO_CREATE_THRESHOLD", "0.85")),
		ConfirmThreshold:       mustFloat(getEnv("CONFIDENCE_CONFIRM_THRESHOLD", "0.50")),
		InvoiceHighThreshold:   mustFloat(getEnv("INVOICE_HIGH_THRESHOLD", "0.85")),
		InvoiceMediumThreshold: mustFloat(getEnv("INVOICE_MEDIUM_THRESHOLD", "0.70")),
		TaxRate:                mustFloat(getEnv("TAX_RATE", "0.21")),
		DefaultAreaCode:        getEnv("DEFAULT_AREA_CODE", "11"),
		BusinessLanguages:      splitCSV(getEnv("BUSINESS_LANGUAGES", "es")),

		STTTimeout:     mustDuration(getEnv("STT_TIMEOUT", "30s")),
		LLMTimeout:     mustDuration(getEnv("LLM_TIMEOUT", "30s")),
		SendTimeout:    mustDuration(getEnv("SEND_TIMEOUT", "30s")),
		CatalogTimeout: mustDuration(getEnv("CATALOG_TIMEOUT", "10s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ServiceAPIKey == "" {
		return nil, fmt.Errorf("SERVICE_API_KEY is required")
	}
	if cfg.MoonshotAPIKey == "" {
		return nil, fmt.Errorf("MOONSHOT_API_KEY is required")
	}
	if cfg.WhisperServerURL == "" && cfg.WhisperModelPath == "" {
		return nil, fmt.Errorf("WHISPER_SERVER_URL or WHISPER_MODEL_PATH is required")
	}
	if cfg.AutoCreateThreshold < cfg.ConfirmThreshold {
		return nil, fmt.Errorf("CONFIDENCE_AUTO_CREATE_THRESHOLD must be >= CONFIDENCE_CONFIRM_THRESHOLD")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
