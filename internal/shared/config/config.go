package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"ats-resume-checker/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port                string
	Env                 string
	LogLevel            string
	CORSAllowOrigin     []string
	UploadDir           string
	MaxUploadBytes      int64
	DatabaseURL         string
	ReportStore         string
	ReportPurgeInterval time.Duration
	LLMProvider         string
	LLMModel            string
	OpenAIAPIKey        string
	GeminiAPIKey        string
	LLMMaxOutputTokens  int
	LLMTemperature      float64
	LLMTimeout          time.Duration
	LLMMaxRetries       int
	AnalysisTimeout     time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allow_origins", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("max_upload_bytes", 5<<20)
	v.SetDefault("database_url", "")
	v.SetDefault("report_store", "auto")
	v.SetDefault("report_purge_interval", "60s")
	v.SetDefault("llm_provider", "openai")
	v.SetDefault("llm_model", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("llm_max_output_tokens", 2000)
	v.SetDefault("llm_temperature", 0.7)
	v.SetDefault("llm_timeout", "120s")
	v.SetDefault("llm_max_retries", 0)
	v.SetDefault("analysis_timeout", "3m")
	return v
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("env"))
	cfg := Config{
		Port:                v.GetString("port"),
		Env:                 env,
		LogLevel:            v.GetString("log_level"),
		CORSAllowOrigin:     splitAndTrim(v.GetString("cors_allow_origins")),
		UploadDir:           v.GetString("upload_dir"),
		MaxUploadBytes:      v.GetInt64("max_upload_bytes"),
		DatabaseURL:         strings.TrimSpace(v.GetString("database_url")),
		ReportStore:         normalizeReportStore(v.GetString("report_store")),
		ReportPurgeInterval: v.GetDuration("report_purge_interval"),
		LLMProvider:         normalizeProvider(v.GetString("llm_provider")),
		LLMModel:            strings.TrimSpace(v.GetString("llm_model")),
		OpenAIAPIKey:        strings.TrimSpace(v.GetString("openai_api_key")),
		GeminiAPIKey:        strings.TrimSpace(v.GetString("gemini_api_key")),
		LLMMaxOutputTokens:  v.GetInt("llm_max_output_tokens"),
		LLMTemperature:      v.GetFloat64("llm_temperature"),
		LLMTimeout:          v.GetDuration("llm_timeout"),
		LLMMaxRetries:       v.GetInt("llm_max_retries"),
		AnalysisTimeout:     v.GetDuration("analysis_timeout"),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}
	if cfg.LLMMaxRetries < 0 {
		cfg.LLMMaxRetries = 0
	}
	if env == "production" && cfg.DatabaseURL == "" && cfg.ReportStore != "none" {
		telemetry.Warn("config.database_url_missing", map[string]any{
			"env":          env,
			"report_store": cfg.ReportStore,
		})
	}
	return cfg
}

// APIKey returns the key for the configured LLM provider.
func (c Config) APIKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeReportStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "memory", "mem":
		return "memory"
	case "none", "off", "disabled":
		return "none"
	default:
		return "auto"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	default:
		return "openai"
	}
}
