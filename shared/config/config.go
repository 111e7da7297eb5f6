package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flight-check/internal/conditions"
)

type Config struct {
	GoNoGo     GoNoGoConfig            `yaml:"go_no_go"`
	Thresholds conditions.ThresholdSet `yaml:"thresholds"`
	Upstream   UpstreamConfig          `yaml:"upstream"`
	AI         AIConfig                `yaml:"ai"`
	Email      EmailConfig             `yaml:"email"`
	Monitoring MonitoringConfig        `yaml:"monitoring"`
	Storage    StorageConfig           `yaml:"storage"`
	Log        LogConfig               `yaml:"log"`
	Schedule   string                  `yaml:"schedule"`
}

type GoNoGoConfig struct {
	Locations       []string `yaml:"locations"`
	AviationEnabled *bool    `yaml:"aviation_enabled"`
	MatchMode       string   `yaml:"match_mode"` // substring or word
	NotifyOnChange  bool     `yaml:"notify_on_change"`
}

// Aviation reports whether weather.gov aviation data is fetched. Defaults to true.
func (g GoNoGoConfig) Aviation() bool {
	return g.AviationEnabled == nil || *g.AviationEnabled
}

type UpstreamConfig struct {
	GeocodeURL       string        `yaml:"geocode_url"`
	WeatherURL       string        `yaml:"weather_url"`
	AviationURL      string        `yaml:"aviation_url"`
	UserAgent        string        `yaml:"user_agent"`
	Timeout          time.Duration `yaml:"timeout"`
	GeocodeCacheSize int           `yaml:"geocode_cache_size"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

// Enabled reports whether narrative briefings can be generated.
func (a AIConfig) Enabled() bool {
	return a.GeminiAPIKey != ""
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Load reads CONFIG_FILE (default config.yaml). A missing file is not an
// error: defaults plus environment are enough for one-off checks.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	return Parse(data)
}

// Parse applies defaults and environment overrides to YAML data and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Config{Thresholds: conditions.DefaultThresholds()}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Upstream.GeocodeURL == "" {
		c.Upstream.GeocodeURL = "https://nominatim.openstreetmap.org/search"
	}
	if c.Upstream.WeatherURL == "" {
		c.Upstream.WeatherURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Upstream.AviationURL == "" {
		c.Upstream.AviationURL = "https://api.weather.gov"
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = "flight-check/1.0"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 15 * time.Second
	}
	if c.Upstream.GeocodeCacheSize == 0 {
		c.Upstream.GeocodeCacheSize = 256
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 7 * * *" // Daily at 7 AM
	}
}

func (c *Config) validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if _, err := conditions.ParseMatchMode(c.GoNoGo.MatchMode); err != nil {
		return fmt.Errorf("go_no_go.match_mode: %w", err)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if c.Upstream.GeocodeCacheSize < 0 {
		return fmt.Errorf("upstream.geocode_cache_size must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ValidateGoNoGo checks the settings the scheduled agent needs beyond one-off checks.
func (c *Config) ValidateGoNoGo() error {
	if len(c.GoNoGo.Locations) == 0 {
		return fmt.Errorf("at least one location is required (go_no_go.locations)")
	}
	for i, loc := range c.GoNoGo.Locations {
		if loc == "" {
			return fmt.Errorf("go_no_go.locations[%d] is empty", i)
		}
	}
	if c.GoNoGo.NotifyOnChange && !c.Email.Enabled() {
		return fmt.Errorf("notify_on_change requires email.smtp_server and email.to_email")
	}
	if c.Email.Enabled() && (c.Email.Username == "" || c.Email.Password == "") {
		return fmt.Errorf("Email credentials are required (set EMAIL_USERNAME/EMAIL_PASSWORD or email.username/email.password)")
	}
	return nil
}
