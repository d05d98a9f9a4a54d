package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/wanted/internal/cache"
	"github.com/your-org/wanted/internal/domain"
)

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port for net/http
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// UpstreamConfig contains FBI API client settings
type UpstreamConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// CacheConfig contains cache configuration
type CacheConfig struct {
	Shards        int                       `mapstructure:"shards"`
	WarmupOnStart bool                      `mapstructure:"warmup_on_start"`
	Categories    map[string]CategoryConfig `mapstructure:"categories"`
}

// CategoryConfig is the expiry policy of one cache category
type CategoryConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	CheckPeriod time.Duration `mapstructure:"check_period"`
}

// Policies converts the configured categories into cache policies,
// ordered by category name.
func (c CacheConfig) Policies() []cache.Policy {
	names := make([]string, 0, len(c.Categories))
	for name := range c.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	policies := make([]cache.Policy, 0, len(names))
	for _, name := range names {
		cat := c.Categories[name]
		policies = append(policies, cache.Policy{
			Category:    domain.Category(name),
			TTL:         cat.TTL,
			CheckPeriod: cat.CheckPeriod,
		})
	}
	return policies
}

// AuthConfig contains login and token settings
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Role     string        `mapstructure:"role"`
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig limits inbound requests per window
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Get returns the singleton configuration instance
func Get() *Config {
	once.Do(func() {
		if instance == nil {
			instance = &Config{}
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load initializes and loads configuration from file and environment variables
func Load(configPath string) error {
	mu.Lock()
	defer mu.Unlock()

	cfg, err := load(configPath)
	if err != nil {
		return err
	}

	instance = cfg
	return nil
}

// Reload reloads the configuration (thread-safe)
func Reload(configPath string) error {
	mu.Lock()
	instance = nil
	once = sync.Once{}
	mu.Unlock()

	return Load(configPath)
}

func load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if frontend := v.GetString("cors.frontend_url"); frontend != "" {
		cfg.CORS.AllowedOrigins = appendUnique(cfg.CORS.AllowedOrigins, frontend)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	// Upstream defaults
	v.SetDefault("upstream.base_url", "https://api.fbi.gov")
	v.SetDefault("upstream.user_agent", "FBI-Wanted-Directory-App/1.0")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.max_concurrent", 10)

	// Cache defaults
	v.SetDefault("cache.shards", 16)
	v.SetDefault("cache.warmup_on_start", false)
	for _, p := range cache.DefaultPolicies() {
		prefix := "cache.categories." + string(p.Category)
		v.SetDefault(prefix+".ttl", p.TTL)
		v.SetDefault(prefix+".check_period", p.CheckPeriod)
	}

	// Auth defaults
	v.SetDefault("auth.secret", "your-secret-key")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "admin")
	v.SetDefault("auth.role", "admin")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:5174",
		"http://localhost:5175",
	})

	// Rate limit defaults
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)
}

// bindEnvVars binds environment variables to viper keys.
// Unprefixed names are kept for existing deployments.
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.host", "APP_SERVER_HOST")
	v.BindEnv("server.port", "APP_SERVER_PORT", "PORT")

	// Log
	v.BindEnv("log.level", "APP_LOG_LEVEL")
	v.BindEnv("log.development", "APP_LOG_DEVELOPMENT")

	// Upstream
	v.BindEnv("upstream.base_url", "APP_UPSTREAM_BASE_URL")
	v.BindEnv("upstream.timeout", "APP_UPSTREAM_TIMEOUT")
	v.BindEnv("upstream.max_concurrent", "APP_UPSTREAM_MAX_CONCURRENT")

	// Cache
	v.BindEnv("cache.shards", "APP_CACHE_SHARDS")
	v.BindEnv("cache.warmup_on_start", "APP_CACHE_WARMUP_ON_START")

	// Auth
	v.BindEnv("auth.secret", "APP_AUTH_SECRET", "JWT_SECRET")

	// CORS
	v.BindEnv("cors.frontend_url", "FRONTEND_URL")

	// Rate limit
	v.BindEnv("rate_limit.requests", "APP_RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "APP_RATE_LIMIT_WINDOW")
}

// validate performs validation on the configuration
func validate(cfg *Config) error {
	// Validate Server
	if cfg.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	// Validate Log
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level is invalid: %w", err)
	}

	// Validate Upstream
	if cfg.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if cfg.Upstream.MaxConcurrent < 1 {
		return fmt.Errorf("upstream.max_concurrent must be at least 1")
	}

	// Validate Cache
	if cfg.Cache.Shards < 1 {
		return fmt.Errorf("cache.shards must be at least 1")
	}
	for name, cat := range cfg.Cache.Categories {
		if cat.TTL <= 0 {
			return fmt.Errorf("cache.categories.%s.ttl must be positive", name)
		}
		if cat.CheckPeriod <= 0 {
			return fmt.Errorf("cache.categories.%s.check_period must be positive", name)
		}
	}

	// Validate Auth
	if cfg.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if cfg.Auth.Username == "" || cfg.Auth.Password == "" {
		return fmt.Errorf("auth.username and auth.password are required")
	}

	// Validate Rate limit
	if cfg.RateLimit.Requests < 1 {
		return fmt.Errorf("rate_limit.requests must be at least 1")
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive")
	}

	return nil
}

func appendUnique(list []string, value string) []string {
	for _, s := range list {
		if s == value {
			return list
		}
	}
	return append(list, value)
}
