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

// RedisConfig provides connection settings for the Redis-backed stores.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SMTPConfig provides settings for outbound email.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSalesEmail() string
	IsSMTPEnabled() bool
}

// LLMConfig provides settings for the OpenAI-compatible completion endpoint.
type LLMConfig interface {
	GetLLMBaseURL() string
	GetLLMAPIKey() string
	GetLLMModel() string
	GetLLMTimeout() time.Duration
	IsLLMEnabled() bool
}

// FunnelConfig provides the tunables of the conversation core.
type FunnelConfig interface {
	GetBrandName() string
	GetBotName() string
	GetReservationTTL() time.Duration
	GetSessionIdleTTL() time.Duration
	GetCommitRetryAttempts() int
	GetClassifierTimeout() time.Duration
	GetStoreTimeout() time.Duration
	GetDomainRestricted() bool
	GetOutOfDomainMinWords() int
	GetCatalogSeedFile() string
	GetSettingsCacheTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	EmailFromName       string
	EmailFromAddress    string
	SalesEmail          string
	LLMBaseURL          string
	LLMAPIKey           string
	LLMModel            string
	LLMTimeout          time.Duration
	BrandName           string
	BotName             string
	ReservationTTL      time.Duration
	SessionIdleTTL      time.Duration
	CommitRetryAttempts int
	ClassifierTimeout   time.Duration
	StoreTimeout        time.Duration
	DomainRestricted    bool
	OutOfDomainMinWords int
	CatalogSeedFile     string
	SettingsCacheTTL    time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetSalesEmail() string       { return c.SalesEmail }
func (c *Config) IsSMTPEnabled() bool         { return c.SMTPHost != "" }

// LLMConfig implementation
func (c *Config) GetLLMBaseURL() string        { return c.LLMBaseURL }
func (c *Config) GetLLMAPIKey() string         { return c.LLMAPIKey }
func (c *Config) GetLLMModel() string          { return c.LLMModel }
func (c *Config) GetLLMTimeout() time.Duration { return c.LLMTimeout }
func (c *Config) IsLLMEnabled() bool           { return c.LLMAPIKey != "" }

// FunnelConfig implementation
func (c *Config) GetBrandName() string                { return c.BrandName }
func (c *Config) GetBotName() string                  { return c.BotName }
func (c *Config) GetReservationTTL() time.Duration    { return c.ReservationTTL }
func (c *Config) GetSessionIdleTTL() time.Duration    { return c.SessionIdleTTL }
func (c *Config) GetCommitRetryAttempts() int         { return c.CommitRetryAttempts }
func (c *Config) GetClassifierTimeout() time.Duration { return c.ClassifierTimeout }
func (c *Config) GetStoreTimeout() time.Duration      { return c.StoreTimeout }
func (c *Config) GetDomainRestricted() bool           { return c.DomainRestricted }
func (c *Config) GetOutOfDomainMinWords() int         { return c.OutOfDomainMinWords }
func (c *Config) GetCatalogSeedFile() string          { return c.CatalogSeedFile }
func (c *Config) GetSettingsCacheTTL() time.Duration  { return c.SettingsCacheTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		EmailFromName:       getEnv("EMAIL_FROM_NAME", "Frono"),
		EmailFromAddress:    getEnv("EMAIL_FROM_ADDRESS", ""),
		SalesEmail:          getEnv("SALES_EMAIL", ""),
		LLMBaseURL:          getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMAPIKey:           getEnv("GROQ_API_KEY", ""),
		LLMModel:            getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
		LLMTimeout:          mustDuration(getEnv("LLM_TIMEOUT", "30s")),
		BrandName:           getEnv("BRAND_NAME", "frono"),
		BotName:             getEnv("BOT_NAME", "Frono Assistant"),
		ReservationTTL:      mustDuration(getEnv("RESERVATION_TTL", "600s")),
		SessionIdleTTL:      mustDuration(getEnv("SESSION_IDLE_TTL", "30m")),
		CommitRetryAttempts: mustInt(getEnv("COMMIT_RETRY_ATTEMPTS", "3")),
		ClassifierTimeout:   mustDuration(getEnv("CLASSIFIER_TIMEOUT", "3s")),
		StoreTimeout:        mustDuration(getEnv("STORE_TIMEOUT", "2s")),
		DomainRestricted:    strings.EqualFold(getEnv("DOMAIN_RESTRICTED", "false"), "true"),
		OutOfDomainMinWords: mustInt(getEnv("OUT_OF_DOMAIN_MIN_WORDS", "8")),
		CatalogSeedFile:     getEnv("CATALOG_SEED_FILE", "catalog.yaml"),
		SettingsCacheTTL:    mustDuration(getEnv("SETTINGS_CACHE_TTL", "60s")),
	}

	if cfg.ReservationTTL <= 0 {
		return nil, fmt.Errorf("RESERVATION_TTL must be a positive duration")
	}
	if cfg.CommitRetryAttempts < 1 {
		return nil, fmt.Errorf("COMMIT_RETRY_ATTEMPTS must be at least 1")
	}
	if cfg.ClassifierTimeout <= 0 || cfg.StoreTimeout <= 0 {
		return nil, fmt.Errorf("CLASSIFIER_TIMEOUT and STORE_TIMEOUT must be positive durations")
	}
	if cfg.IsSMTPEnabled() && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
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
	result, err := strconv.Atoi(strings.TrimSpace(value))
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
