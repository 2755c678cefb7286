package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	Persistence PersistenceConfig
	AI          AIConfig
	Console     ConsoleConfig
	Wizard      WizardConfig
	Redis       RedisConfig
	Storage     StorageConfig
	HTTP        HTTPConfig
	Swagger     SwaggerConfig
	Telemetry   TelemetryConfig
	Profiling   ProfilingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// PersistenceConfig holds settings for the external persistence REST service
type PersistenceConfig struct {
	BaseURL    string
	Timeout    time.Duration // Per-attempt request timeout
	MaxRetries int           // Retries for idempotent requests
	RetryDelay time.Duration // Base backoff delay
}

// AIConfig holds settings for the generative AI service
type AIConfig struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	Timeout    time.Duration
	DigestTTL  time.Duration // How long a news digest is reused
}

// Enabled reports whether an API key is configured
func (a AIConfig) Enabled() bool {
	return a.APIKey != ""
}

// ConsoleConfig holds staff console settings
type ConsoleConfig struct {
	PollInterval    time.Duration
	DevLoginEnabled bool          // Local-only credential provider, refused in production
	DevLoginDelay   time.Duration
	SessionTTL      time.Duration // Idle console sessions are dropped after this
}

// WizardConfig holds application wizard settings
type WizardConfig struct {
	SubtypeAdvanceDelay time.Duration // Cosmetic pause after choosing a subtype
	SessionTTL          time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// StorageConfig holds S3-compatible object storage settings for console images
type StorageConfig struct {
	Enabled       bool
	Endpoint      string // Empty uses the AWS default resolver
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
	PublicBaseURL string // Prefix for object URLs handed back to the console
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// SwaggerConfig holds API documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool     // Serve /swagger
	RequireAuth bool     // Require an authenticated console session
	AllowedIPs  []string // IP or CIDR allowlist, empty allows all
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool   // Whether to enable OpenTelemetry
	CollectorEndpoint string // OTEL Collector endpoint (e.g., "localhost:4317")
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	ExportInterval    time.Duration
	SamplingRatio     float64 // Trace sampling ratio, 0.0 to 1.0
	LogsEnabled       bool    // Also export zap logs over OTLP
}

// ProfilingConfig holds Pyroscope continuous profiling configuration
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string // e.g. "http://pyroscope:4040"
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string // cpu, alloc_objects, alloc_space, inuse_objects, inuse_space, goroutines, mutex_count, mutex_duration, block_count, block_duration
	SpanProfiles      bool     // Link CPU profiles to trace spans
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with FINSITE_ prefix (e.g., FINSITE_AI_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("FINSITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("telemetry.sampling_ratio", 1.0)
	v.SetDefault("swagger.enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Persistence: PersistenceConfig{
			BaseURL:    v.GetString("persistence.base_url"),
			Timeout:    v.GetDuration("persistence.timeout"),
			MaxRetries: v.GetInt("persistence.max_retries"),
			RetryDelay: v.GetDuration("persistence.retry_delay"),
		},
		AI: AIConfig{
			APIKey:     v.GetString("ai.api_key"),
			BaseURL:    v.GetString("ai.base_url"),
			TextModel:  v.GetString("ai.text_model"),
			ImageModel: v.GetString("ai.image_model"),
			Timeout:    v.GetDuration("ai.timeout"),
			DigestTTL:  v.GetDuration("ai.digest_ttl"),
		},
		Console: ConsoleConfig{
			PollInterval:    v.GetDuration("console.poll_interval"),
			DevLoginEnabled: v.GetBool("console.dev_login_enabled"),
			DevLoginDelay:   v.GetDuration("console.dev_login_delay"),
			SessionTTL:      v.GetDuration("console.session_ttl"),
		},
		Wizard: WizardConfig{
			SubtypeAdvanceDelay: v.GetDuration("wizard.subtype_advance_delay"),
			SessionTTL:          v.GetDuration("wizard.session_ttl"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Enabled:       v.GetBool("storage.enabled"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			Bucket:        v.GetString("storage.bucket"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			ApplicationName:   v.GetString("profiling.application_name"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			ProfileTypes:      v.GetStringSlice("profiling.profile_types"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "finsite-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	// Log.Format stays empty so the logger picks the environment's preset
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Persistence.BaseURL == "" {
		cfg.Persistence.BaseURL = "http://localhost:5000/api"
	}
	if cfg.Persistence.Timeout == 0 {
		cfg.Persistence.Timeout = 10 * time.Second
	}
	if cfg.Persistence.MaxRetries == 0 {
		cfg.Persistence.MaxRetries = 2
	}
	if cfg.Persistence.RetryDelay == 0 {
		cfg.Persistence.RetryDelay = 200 * time.Millisecond
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.AI.TextModel == "" {
		cfg.AI.TextModel = "gemini-2.5-flash"
	}
	if cfg.AI.ImageModel == "" {
		cfg.AI.ImageModel = "gemini-2.5-flash-image"
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.AI.DigestTTL == 0 {
		cfg.AI.DigestTTL = 5 * time.Minute
	}
	if cfg.Console.PollInterval == 0 {
		cfg.Console.PollInterval = 10 * time.Second
	}
	if cfg.Console.DevLoginDelay == 0 {
		cfg.Console.DevLoginDelay = 800 * time.Millisecond
	}
	if cfg.Console.SessionTTL == 0 {
		cfg.Console.SessionTTL = 8 * time.Hour
	}
	// SubtypeAdvanceDelay defaults to 0 (no cosmetic pause)
	if cfg.Wizard.SessionTTL == 0 {
		cfg.Wizard.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Image generation responses can take a while
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB, uploads arrive inline
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 10
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// NOTE: CORS origins get no default. An empty list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "finsite-backend"
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 15 * time.Second
	}
	if cfg.Profiling.ApplicationName == "" {
		cfg.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Persistence.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("persistence.base_url must be an absolute http(s) URL, got %q", c.Persistence.BaseURL)
	}
	if c.Persistence.MaxRetries < 0 {
		return fmt.Errorf("persistence.max_retries cannot be negative")
	}
	if c.Console.PollInterval < time.Second {
		return fmt.Errorf("console.poll_interval must be at least 1s, got %s", c.Console.PollInterval)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}
	if c.Profiling.SpanProfiles && !c.Telemetry.Enabled {
		return fmt.Errorf("profiling.span_profiles requires telemetry.enabled")
	}

	if c.App.IsProduction() {
		if c.Console.DevLoginEnabled {
			return fmt.Errorf("console.dev_login_enabled must be false in production")
		}
		if c.Swagger.Enabled && !c.Swagger.RequireAuth && len(c.Swagger.AllowedIPs) == 0 {
			return fmt.Errorf("swagger must be disabled or protected (require_auth or allowed_ips) in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}
