package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxFetchTimeout caps the Fetcher deadline.
const MaxFetchTimeout = 10 * time.Second

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Fetcher   FetcherConfig   `yaml:"fetcher"`
	Browser   BrowserConfig   `yaml:"browser"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port"` // default: 8080
	Mode string `yaml:"mode"` // "debug", "release", "test"; default: "release"
}

// FetcherConfig controls the plain HTTP fetcher.
type FetcherConfig struct {
	// Timeout bounds a single GET. Clamped to MaxFetchTimeout.
	Timeout time.Duration `yaml:"timeout"` // default: 10s

	// Proxy is an optional http(s) proxy URL.
	Proxy string `yaml:"proxy"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`

	// Fingerprint dials TLS with a Chrome ClientHello instead of Go's.
	Fingerprint bool `yaml:"fingerprint"` // default: true
}

// BrowserConfig controls the automation browser and its step sequence.
type BrowserConfig struct {
	// Bin is the browser executable path. Empty lets rod resolve one.
	Bin string `yaml:"bin"`

	Headless  bool   `yaml:"headless"`   // default: true
	NoSandbox bool   `yaml:"no_sandbox"` // needed in Docker
	Proxy     string `yaml:"proxy"`

	// Locale is sent as Accept-Language.
	Locale string `yaml:"locale"` // default: "en-US,en;q=0.9"

	// Stealth injects anti-detection JS before navigation.
	Stealth bool `yaml:"stealth"`

	// BlockedResourceTypes lists resource types to block.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string `yaml:"blocked_resource_types"`

	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 30s
	ElementWait       time.Duration `yaml:"element_wait"`       // default: 5s
	SettleDelay       time.Duration `yaml:"settle_delay"`       // default: 2s

	ConsentSelector  string `yaml:"consent_selector"`
	Language         string `yaml:"language"`
	SearchSelector   string `yaml:"search_selector"`
	ResultPathPrefix string `yaml:"result_path_prefix"`
}

// AuthConfig maps API keys to user identities.
type AuthConfig struct {
	// Keys maps an API key to the user id it authenticates.
	Keys map[string]string `yaml:"keys"`
}

// RateLimitConfig controls per-identity rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // default: 5
	Burst             int     `yaml:"burst"`               // default: 10
}

// HistoryConfig controls the per-user scrape history.
type HistoryConfig struct {
	// MaxPerUser bounds the entries kept per user; oldest are dropped.
	MaxPerUser int `yaml:"max_per_user"` // default: 100

	// WebhookURL, when set, receives a signed event per recorded entry.
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Mode: "release",
		},
		Fetcher: FetcherConfig{
			Timeout:     MaxFetchTimeout,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
			Fingerprint: true,
		},
		Browser: BrowserConfig{
			Headless:             true,
			Locale:               "en-US,en;q=0.9",
			BlockedResourceTypes: []string{"Image", "Font", "Media"},
			NavigationTimeout:    30 * time.Second,
			ElementWait:          5 * time.Second,
			SettleDelay:          2 * time.Second,
			ConsentSelector:      `button[aria-label="Reject all"]`,
			Language:             "en",
			SearchSelector:       "#searchInput",
			ResultPathPrefix:     "/wiki/",
		},
		Auth: AuthConfig{Keys: map[string]string{}},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5.0,
			Burst:             10,
		},
		History: HistoryConfig{MaxPerUser: 100},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// SCRAPEKIT_CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("SCRAPEKIT_CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.mergeEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.Server.Host = envOr("SCRAPEKIT_HOST", c.Server.Host)
	c.Server.Port = envIntOr("SCRAPEKIT_PORT", c.Server.Port)
	c.Server.Mode = envOr("SCRAPEKIT_MODE", c.Server.Mode)

	c.Fetcher.Timeout = envDurationOr("SCRAPEKIT_FETCH_TIMEOUT", c.Fetcher.Timeout)
	c.Fetcher.Proxy = envOr("SCRAPEKIT_FETCH_PROXY", c.Fetcher.Proxy)
	c.Fetcher.UserAgent = envOr("SCRAPEKIT_USER_AGENT", c.Fetcher.UserAgent)
	c.Fetcher.Fingerprint = envBoolOr("SCRAPEKIT_TLS_FINGERPRINT", c.Fetcher.Fingerprint)

	c.Browser.Bin = envOr("SCRAPEKIT_BROWSER_BIN", c.Browser.Bin)
	c.Browser.Headless = envBoolOr("SCRAPEKIT_HEADLESS", c.Browser.Headless)
	c.Browser.NoSandbox = envBoolOr("SCRAPEKIT_NO_SANDBOX", c.Browser.NoSandbox)
	c.Browser.Proxy = envOr("SCRAPEKIT_BROWSER_PROXY", c.Browser.Proxy)
	c.Browser.Locale = envOr("SCRAPEKIT_LOCALE", c.Browser.Locale)
	c.Browser.Stealth = envBoolOr("SCRAPEKIT_STEALTH", c.Browser.Stealth)
	c.Browser.BlockedResourceTypes = envSliceOr("SCRAPEKIT_BLOCKED_RESOURCES", c.Browser.BlockedResourceTypes)
	c.Browser.NavigationTimeout = envDurationOr("SCRAPEKIT_NAV_TIMEOUT", c.Browser.NavigationTimeout)
	c.Browser.ElementWait = envDurationOr("SCRAPEKIT_ELEMENT_WAIT", c.Browser.ElementWait)
	c.Browser.SettleDelay = envDurationOr("SCRAPEKIT_SETTLE_DELAY", c.Browser.SettleDelay)
	c.Browser.ConsentSelector = envOr("SCRAPEKIT_CONSENT_SELECTOR", c.Browser.ConsentSelector)
	c.Browser.Language = envOr("SCRAPEKIT_LANGUAGE", c.Browser.Language)
	c.Browser.SearchSelector = envOr("SCRAPEKIT_SEARCH_SELECTOR", c.Browser.SearchSelector)
	c.Browser.ResultPathPrefix = envOr("SCRAPEKIT_RESULT_PATH_PREFIX", c.Browser.ResultPathPrefix)

	if keys := envPairsOr("SCRAPEKIT_API_KEYS", nil); keys != nil {
		c.Auth.Keys = keys
	}

	c.RateLimit.RequestsPerSecond = envFloatOr("SCRAPEKIT_RATE_RPS", c.RateLimit.RequestsPerSecond)
	c.RateLimit.Burst = envIntOr("SCRAPEKIT_RATE_BURST", c.RateLimit.Burst)

	c.History.MaxPerUser = envIntOr("SCRAPEKIT_HISTORY_MAX", c.History.MaxPerUser)
	c.History.WebhookURL = envOr("SCRAPEKIT_HISTORY_WEBHOOK_URL", c.History.WebhookURL)
	c.History.WebhookSecret = envOr("SCRAPEKIT_HISTORY_WEBHOOK_SECRET", c.History.WebhookSecret)

	c.Log.Level = envOr("SCRAPEKIT_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("SCRAPEKIT_LOG_FORMAT", c.Log.Format)
}

// normalize clamps values the rest of the program relies on.
func (c *Config) normalize() {
	if c.Fetcher.Timeout <= 0 || c.Fetcher.Timeout > MaxFetchTimeout {
		c.Fetcher.Timeout = MaxFetchTimeout
	}
	if c.Auth.Keys == nil {
		c.Auth.Keys = map[string]string{}
	}
	if c.History.MaxPerUser <= 0 {
		c.History.MaxPerUser = 100
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

// envPairsOr parses "key1:value1,key2:value2". Malformed pairs are skipped.
func envPairsOr(key string, fallback map[string]string) map[string]string {
	parts := envSliceOr(key, nil)
	if parts == nil {
		return fallback
	}
	result := make(map[string]string, len(parts))
	for _, p := range parts {
		k, v, ok := strings.Cut(p, ":")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		result[k] = v
	}
	return result
}
