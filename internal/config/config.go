package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultModel         = "gemini-2.5-flash"
	defaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

type Config struct {
	Port        string
	GinMode     string
	Environment string
	LogFilePath string
	StaticDir   string

	DatabaseURL string

	LLM LLMConfig

	// HTTPWriteTimeout of zero disables the server write deadline.
	HTTPWriteTimeout time.Duration
}

type LLMConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	// Timeout of zero means LLM calls are not bounded by a deadline.
	Timeout time.Duration
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads .env (when present) and the process environment. It is meant to be
// called once at startup; the result is passed to constructors by pointer.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "release"),
		Environment: getEnv("GO_ENV", "development"),
		LogFilePath: os.Getenv("LOG_FILE_PATH"),
		StaticDir:   os.Getenv("STATIC_DIR"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnv("LLM_PROVIDER", ProviderGemini)),
			Model:    getEnv("LLM_MODEL", defaultModel),
			BaseURL:  os.Getenv("LLM_BASE_URL"),
			APIKey:   firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("OPENAI_API_KEY")),
		},
	}

	var err error
	if cfg.LLM.Timeout, err = getDuration("LLM_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT"); err != nil {
		return nil, err
	}

	switch cfg.LLM.Provider {
	case ProviderGemini:
	case ProviderOpenAI:
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = defaultOpenAIBaseURL
		}
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLM.Provider)
	}

	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY or OPENAI_API_KEY is required")
	}

	if cfg.DatabaseURL == "" {
		dsn, err := databaseURLFromParts()
		if err != nil {
			return nil, err
		}
		cfg.DatabaseURL = dsn
	}

	return cfg, nil
}

// databaseURLFromParts builds a postgres URL from DB_* variables when
// DATABASE_URL is not set.
func databaseURLFromParts() (string, error) {
	name := os.Getenv("DB_NAME")
	if name == "" {
		return "", fmt.Errorf("DATABASE_URL or DB_NAME is required")
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432"),
		Path:   "/" + name,
	}
	if user := os.Getenv("DB_USER"); user != "" {
		if pass := os.Getenv("DB_PASSWORD"); pass != "" {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}
	u.RawQuery = "sslmode=" + getEnv("DB_SSLMODE", "disable")

	return u.String(), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
