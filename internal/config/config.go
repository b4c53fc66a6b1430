// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the pipeline's
// tunables (corpus cap, quality thresholds, source switches) next to the
// usual server settings (timeouts, logging, rate limiting, observability).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-prompt-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// PipelineConfig groups the ingestion tunables recognized by the pipeline.
//
// Two body-length thresholds exist on purpose: the strict one gates fresh
// scraped admissions, the lenient one re-validates the already persisted
// corpus without throwing most of it away.
type PipelineConfig struct {
	MaxPrompts      int      // corpus size cap
	MinBodyStrict   int      // minimum prompt_text length for new admissions
	MinBodyLenient  int      // minimum prompt_text length when re-validating history
	TitleMin        int      // minimum title length
	TitleMax        int      // maximum title length
	DisabledSources []string // provenance labels purged from new and historical data

	SourceTimeout time.Duration // per-source fetch deadline
	FetchLimit    int           // max raw records requested per source
}

// SourcesConfig carries connector credentials and switches. A connector with
// missing credentials reports itself unavailable and contributes no records.
type SourcesConfig struct {
	Enabled []string // processing priority order, e.g. ["reddit","github"]

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	Subreddits         []string

	GitHubToken   string
	GitHubQueries []string

	TwitterProxyURL string
	TwitterProxyKey string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// API
	APIBasePath string // base path for API routes
	BaseURL     string // public site origin used in sitemap URLs

	// Storage
	DBPath      string // SQLite path for run history
	DataPath    string // persisted dataset JSON
	SitemapPath string // derived sitemap artifact

	// Pipeline
	Pipeline PipelineConfig
	Sources  SourcesConfig

	// Scheduler
	ScheduleEnabled bool
	ScheduleSpec    string // cron expression

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// API
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		BaseURL:     strings.TrimRight(getenv("BASE_URL", "https://ischatgptfree.netlify.app"), "/"),

		// Storage
		DBPath:      getenv("DB_PATH", "app.db"),
		DataPath:    getenv("DATA_PATH", "public/data.json"),
		SitemapPath: getenv("SITEMAP_PATH", "public/sitemap.xml"),

		Pipeline: PipelineConfig{
			MaxPrompts:      getint("MAX_PROMPTS", 5000),
			MinBodyStrict:   getint("MIN_BODY_STRICT", 200),
			MinBodyLenient:  getint("MIN_BODY_LENIENT", 100),
			TitleMin:        getint("TITLE_MIN", 5),
			TitleMax:        getint("TITLE_MAX", 200),
			DisabledSources: splitCSV(getenv("DISABLED_SOURCES", "twitter,ScrapingDog-X")),
			SourceTimeout:   getdur("SOURCE_TIMEOUT", 90*time.Second),
			FetchLimit:      getint("FETCH_LIMIT", 100),
		},

		Sources: SourcesConfig{
			Enabled:            splitCSV(getenv("SOURCES_ENABLED", "reddit,github")),
			RedditClientID:     getenv("REDDIT_CLIENT_ID", ""),
			RedditClientSecret: getenv("REDDIT_CLIENT_SECRET", ""),
			RedditUserAgent:    getenv("REDDIT_USER_AGENT", "go-prompt-backend/1.0"),
			Subreddits:         splitCSV(getenv("REDDIT_SUBREDDITS", "ChatGPT,PromptEngineering,ArtificialInteligence,OpenAI")),
			GitHubToken:        getenv("GITHUB_TOKEN", ""),
			GitHubQueries:      splitCSV(getenv("GITHUB_QUERIES", "awesome chatgpt prompts,prompt engineering collection")),
			TwitterProxyURL:    getenv("TWITTER_PROXY_URL", ""),
			TwitterProxyKey:    getenv("TWITTER_PROXY_KEY", ""),
		},

		// Scheduler
		ScheduleEnabled: getbool("SCHEDULE_ENABLED", true),
		ScheduleSpec:    getenv("SCHEDULE_SPEC", "0 6 * * *"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-prompt-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.DataPath) == "" {
		return cfg, errors.New("DATA_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.SitemapPath) == "" {
		return cfg, errors.New("SITEMAP_PATH must not be empty")
	}
	if cfg.Pipeline.MaxPrompts < 1 {
		return cfg, errors.New("MAX_PROMPTS must be >= 1")
	}
	if cfg.Pipeline.MinBodyLenient < 0 {
		return cfg, errors.New("MIN_BODY_LENIENT must be >= 0")
	}
	if cfg.Pipeline.MinBodyStrict < cfg.Pipeline.MinBodyLenient {
		return cfg, errors.New("MIN_BODY_STRICT must be >= MIN_BODY_LENIENT")
	}
	if cfg.Pipeline.TitleMin < 1 || cfg.Pipeline.TitleMax < cfg.Pipeline.TitleMin {
		return cfg, errors.New("TITLE_MIN/TITLE_MAX must satisfy 1 <= min <= max")
	}
	if cfg.Pipeline.SourceTimeout <= 0 {
		return cfg, errors.New("SOURCE_TIMEOUT must be > 0")
	}
	if cfg.Pipeline.FetchLimit < 1 {
		return cfg, errors.New("FETCH_LIMIT must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
