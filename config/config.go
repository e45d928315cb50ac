package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Portal    PortalConfig
	Grid      GridConfig
	Storage   StorageConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	LLM       LLMConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for all requests.
	Proxy string

	// Stealth enables anti-bot-detection evasions
	// (navigator.webdriver masking etc.).
	Stealth bool // default: true

	// BlockedResourceTypes lists resource types to block while scraping.
	// The results grid renders fine without them and pages load much faster.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// PortalConfig identifies the listing portal and the account used to
// authenticate against it.
type PortalConfig struct {
	LoginURL  string
	SearchURL string
	Username  string
	Password  string

	// PropertyType is the option value selected on the search form.
	// default: "27007" (Detached)
	PropertyType string

	// LoginSettle is the wait after submitting the login form.
	LoginSettle time.Duration // default: 10s

	// SearchSettle is the wait after triggering the results render.
	SearchSettle time.Duration // default: 10s
}

// GridConfig controls the extraction-and-pagination engine.
type GridConfig struct {
	// MaxPages caps how many result pages one run will walk.
	MaxPages int // default: 200

	// RunBudget is the wall-clock budget for one full walk.
	RunBudget time.Duration // default: 30m

	// WaitTimeout bounds individual element-presence waits.
	WaitTimeout time.Duration // default: 20s

	// SettleDelay is the fixed wait after advancing to the next page.
	SettleDelay time.Duration // default: 5s

	// StaleAttempts is how many times a stale read is retried per page.
	StaleAttempts int // default: 3

	// StaleBackoff is the fixed wait between stale-read retries.
	StaleBackoff time.Duration // default: 2s
}

// StorageConfig locates the durable row store and the fingerprint record.
type StorageConfig struct {
	CSVPath         string // default: "brightmls_data.csv"
	FingerprintPath string // default: "data_hash.txt"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LLMConfig controls the dataset query client.
type LLMConfig struct {
	APIKey  string
	Model   string // default: "gpt-4"
	BaseURL string // default: "https://api.openai.com/v1"

	// MaxTokens caps the completion size per answer.
	MaxTokens int // default: 2000

	// CacheMaxEntries is the maximum number of cached answers.
	CacheMaxEntries int // default: 1000
}

// WebhookConfig controls run-completion notifications.
type WebhookConfig struct {
	URL    string // empty disables delivery
	Secret string // HMAC signing key, optional
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("BRIGHT_HOST", "0.0.0.0"),
			Port: envIntOr("BRIGHT_PORT", 8080),
			Mode: envOr("BRIGHT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("BRIGHT_HEADLESS", true),
			NoSandbox:  envBoolOr("BRIGHT_NO_SANDBOX", false),
			BrowserBin: os.Getenv("BRIGHT_BROWSER_BIN"),
			Proxy:      os.Getenv("BRIGHT_PROXY"),
			Stealth:    envBoolOr("BRIGHT_STEALTH", true),
			BlockedResourceTypes: envSliceOr("BRIGHT_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Portal: PortalConfig{
			LoginURL:     envOr("BRIGHT_LOGIN_URL", "https://login.brightmls.com/login"),
			SearchURL:    envOr("BRIGHT_SEARCH_URL", "https://matrix.brightmls.com/Matrix/Search/ResidentialSale/Residential"),
			Username:     os.Getenv("BRIGHT_USERNAME"),
			Password:     os.Getenv("BRIGHT_PASSWORD"),
			PropertyType: envOr("BRIGHT_PROPERTY_TYPE", "27007"),
			LoginSettle:  envDurationOr("BRIGHT_LOGIN_SETTLE", 10*time.Second),
			SearchSettle: envDurationOr("BRIGHT_SEARCH_SETTLE", 10*time.Second),
		},
		Grid: GridConfig{
			MaxPages:      envIntOr("BRIGHT_MAX_PAGES", 200),
			RunBudget:     envDurationOr("BRIGHT_RUN_BUDGET", 30*time.Minute),
			WaitTimeout:   envDurationOr("BRIGHT_WAIT_TIMEOUT", 20*time.Second),
			SettleDelay:   envDurationOr("BRIGHT_SETTLE_DELAY", 5*time.Second),
			StaleAttempts: envIntOr("BRIGHT_STALE_ATTEMPTS", 3),
			StaleBackoff:  envDurationOr("BRIGHT_STALE_BACKOFF", 2*time.Second),
		},
		Storage: StorageConfig{
			CSVPath:         envOr("BRIGHT_CSV_PATH", "brightmls_data.csv"),
			FingerprintPath: envOr("BRIGHT_HASH_PATH", "data_hash.txt"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("BRIGHT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("BRIGHT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("BRIGHT_RATE_RPS", 5.0),
			Burst:             envIntOr("BRIGHT_RATE_BURST", 10),
		},
		LLM: LLMConfig{
			APIKey:          envOr("BRIGHT_LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:           envOr("BRIGHT_LLM_MODEL", "gpt-4"),
			BaseURL:         envOr("BRIGHT_LLM_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:       envIntOr("BRIGHT_LLM_MAX_TOKENS", 2000),
			CacheMaxEntries: envIntOr("BRIGHT_QUERY_CACHE_ENTRIES", 1000),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("BRIGHT_WEBHOOK_URL"),
			Secret: os.Getenv("BRIGHT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("BRIGHT_LOG_LEVEL", "info"),
			Format: envOr("BRIGHT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
