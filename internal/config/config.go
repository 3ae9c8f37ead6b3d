// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, database selection, auth-gate modes, OpenAI access for the triage
// agent, assignment policy, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/autocrm/helpdesk-backend/internal/domain"
)

// Auth gate modes.
const (
	// AuthModeRemote resolves bearer tokens against the managed auth
	// service over HTTP (the production shape).
	AuthModeRemote = "remote"
	// AuthModeJWT validates bearer tokens locally with an HS256 secret.
	AuthModeJWT = "jwt"
)

// Assignment policies for newly created tickets.
const (
	// AssignMostOpen picks the team member with the most open tickets.
	// This mirrors the original system's deliberate tie-break.
	AssignMostOpen = "most-open"
	// AssignLeastOpen picks the member with the fewest open tickets.
	AssignLeastOpen = "least-open"
)

// DBConfig selects and parameterizes the GORM driver.
type DBConfig struct {
	Driver string // "sqlite" or "postgres"
	Path   string // SQLite file path
	DSN    string // Postgres DSN (required when Driver == "postgres")
}

// AuthConfig configures the access-control gate.
type AuthConfig struct {
	Mode      string // remote|jwt
	RemoteURL string // base URL of the managed auth service (remote mode)
	JWTSecret string // HS256 secret (jwt mode)
	Timeout   time.Duration
}

// OpenAIConfig configures the embedding and completion providers used by the
// knowledge-base index and the triage agent.
type OpenAIConfig struct {
	APIKey         string
	ChatModel      string  // e.g. "gpt-4o-mini"
	EmbeddingModel string  // e.g. "text-embedding-3-large"
	Temperature    float64 // completion temperature
}

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
	Enabled     bool
	Endpoint    string
	Insecure    bool
	ServiceName string
	SampleRatio float64
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// Persistence
	DB DBConfig

	// Access gate
	Auth AuthConfig

	// Tenancy
	GlobalOrgID string // sentinel vendor organization id

	// Ticket lifecycle
	AssignPolicy string // most-open|least-open

	// Knowledge base / agent
	OpenAI     OpenAIConfig
	KBTopK     int     // articles returned per retrieval
	KBMinScore float64 // similarity floor; 0 keeps every hit

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotent ticket creation
	IdempotencyTTL time.Duration

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

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "helpdesk.db"),
			DSN:    getenv("DB_DSN", ""),
		},

		Auth: AuthConfig{
			Mode:      strings.ToLower(getenv("AUTH_MODE", AuthModeJWT)),
			RemoteURL: getenv("AUTH_URL", ""),
			JWTSecret: getenv("AUTH_JWT_SECRET", ""),
			Timeout:   getdur("AUTH_TIMEOUT", 5*time.Second),
		},

		GlobalOrgID: getenv("GLOBAL_ORG_ID", domain.GlobalOrgID),

		AssignPolicy: strings.ToLower(getenv("ASSIGN_POLICY", AssignMostOpen)),

		OpenAI: OpenAIConfig{
			APIKey:         getenv("OPENAI_API_KEY", ""),
			ChatModel:      getenv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getenv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large"),
			Temperature:    getfloat("OPENAI_TEMPERATURE", 0.2),
		},
		KBTopK:     getint("KB_TOP_K", 3),
		KBMinScore: getfloat("KB_MIN_SCORE", 0),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "helpdesk-backend"),
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
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic")
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
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty when DB_DRIVER=sqlite")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.DSN) == "" {
			return cfg, errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be sqlite or postgres")
	}
	switch cfg.Auth.Mode {
	case AuthModeRemote:
		if strings.TrimSpace(cfg.Auth.RemoteURL) == "" {
			return cfg, errors.New("AUTH_URL is required when AUTH_MODE=remote")
		}
	case AuthModeJWT:
		// An empty secret is tolerated for local development; the verifier
		// will reject every token.
	default:
		return cfg, errors.New("AUTH_MODE must be remote or jwt")
	}
	if strings.TrimSpace(cfg.GlobalOrgID) == "" {
		return cfg, errors.New("GLOBAL_ORG_ID must not be empty")
	}
	switch cfg.AssignPolicy {
	case AssignMostOpen, AssignLeastOpen:
	default:
		return cfg, errors.New("ASSIGN_POLICY must be most-open or least-open")
	}
	if cfg.KBTopK < 1 {
		return cfg, errors.New("KB_TOP_K must be >= 1")
	}
	if cfg.KBMinScore < 0 || cfg.KBMinScore > 1 {
		return cfg, errors.New("KB_MIN_SCORE must be in [0,1]")
	}
	if cfg.OpenAI.Temperature < 0 || cfg.OpenAI.Temperature > 2 {
		return cfg, errors.New("OPENAI_TEMPERATURE must be in [0,2]")
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
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// AgentEnabled reports whether the triage agent and KB index can run: both
// need an OpenAI API key.
func (c Config) AgentEnabled() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
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
		if t := strings.TrimSpace(p); t != "" {
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
