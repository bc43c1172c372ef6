package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// UpstreamConfig describes the third-party pharmacy pricing API
type UpstreamConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	VersionPath       string        `mapstructure:"version_path"`
	HQMappingName     string        `mapstructure:"hq_mapping_name"`
	AttemptTimeout    time.Duration `mapstructure:"attempt_timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent"`
	Paths             EndpointPaths `mapstructure:"paths"`
}

// EndpointPaths lists, per logical endpoint, the paths the upstream serves it under.
// Paths are relative to the versioned base URL and are tried in order.
type EndpointPaths struct {
	PriceByGSN  []string `mapstructure:"price_by_gsn"`
	PriceByName []string `mapstructure:"price_by_name"`
	NameSearch  []string `mapstructure:"name_search"`
	GSNLookup   []string `mapstructure:"gsn_lookup"`
	NamesList   []string `mapstructure:"names_list"`
}

// AuthConfig holds the client-credentials settings for the upstream token endpoint
type AuthConfig struct {
	TokenURL     string        `mapstructure:"token_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Scope        string        `mapstructure:"scope"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// GeocodingConfig holds mapping provider settings
type GeocodingConfig struct {
	GoogleAPIKey      string        `mapstructure:"google_api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	CacheSize         int           `mapstructure:"cache_size"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds inbound API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("RXPRICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found into the process environment.
// Variables already set in the environment win.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := dir + "/.env"
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		return loadDotEnvFile(envFile)
	}
	return fmt.Errorf("no .env file found")
}

func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds the conventional unprefixed variable names to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	v.BindEnv("upstream.base_url", "UPSTREAM_BASE_URL")
	v.BindEnv("upstream.hq_mapping_name", "UPSTREAM_HQ_MAPPING_NAME")

	v.BindEnv("auth.token_url", "UPSTREAM_TOKEN_URL")
	v.BindEnv("auth.client_id", "UPSTREAM_CLIENT_ID")
	v.BindEnv("auth.client_secret", "UPSTREAM_CLIENT_SECRET")

	v.BindEnv("geocoding.google_api_key", "GOOGLE_MAPS_API_KEY")

	v.BindEnv("logging.level", "LOG_LEVEL")

	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.service_name", "OTEL_SERVICE_NAME")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("upstream.base_url", "https://api.pharmacypricing.example.com")
	v.SetDefault("upstream.version_path", "/pricing/v1")
	v.SetDefault("upstream.hq_mapping_name", "rxcompare")
	v.SetDefault("upstream.attempt_timeout", 5*time.Second)
	v.SetDefault("upstream.requests_per_second", 0)
	v.SetDefault("upstream.user_agent", "RxCompare-PriceService/1.0")
	v.SetDefault("upstream.paths.price_by_gsn", []string{"/drugprices/byGSN"})
	v.SetDefault("upstream.paths.price_by_name", []string{"/drugprices/byName", "/drugprices/byDrugName"})
	v.SetDefault("upstream.paths.name_search", []string{"/drugs/names", "/drugs/search"})
	v.SetDefault("upstream.paths.gsn_lookup", []string{"/drugs/gsn"})
	v.SetDefault("upstream.paths.names_list", []string{"/drugs/namesByGSN"})

	v.SetDefault("auth.token_url", "https://auth.pharmacypricing.example.com/oauth2/token")
	v.SetDefault("auth.timeout", 10*time.Second)

	v.SetDefault("geocoding.requests_per_second", 10)
	v.SetDefault("geocoding.cache_size", 10000)
	v.SetDefault("geocoding.timeout", 5*time.Second)

	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "opentelemetry-collector:4317")
	v.SetDefault("telemetry.service_name", "price-service")
}

// Validate checks the values that would make the service misbehave at runtime.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Upstream.BaseURL) == "" {
		return ErrInvalidConfig{Field: "upstream.base_url", Reason: "cannot be empty"}
	}
	if c.Upstream.AttemptTimeout <= 0 {
		return ErrInvalidConfig{Field: "upstream.attempt_timeout", Reason: "must be positive"}
	}
	if c.Upstream.RequestsPerSecond < 0 {
		return ErrInvalidConfig{Field: "upstream.requests_per_second", Reason: "must be non-negative"}
	}
	if len(c.Upstream.Paths.PriceByGSN) == 0 || len(c.Upstream.Paths.PriceByName) == 0 {
		return ErrInvalidConfig{Field: "upstream.paths", Reason: "price_by_gsn and price_by_name need at least one path"}
	}
	if c.Auth.Timeout <= 0 {
		return ErrInvalidConfig{Field: "auth.timeout", Reason: "must be positive"}
	}
	if c.Geocoding.CacheSize < 1 {
		return ErrInvalidConfig{Field: "geocoding.cache_size", Reason: "must be at least 1"}
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1 {
		return ErrInvalidConfig{Field: "rate_limit", Reason: "requests_per_second and burst must be positive"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return "invalid config " + e.Field + ": " + e.Reason
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}
