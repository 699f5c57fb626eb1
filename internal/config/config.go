package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	AWS      AWSConfig      `yaml:"aws" envPrefix:"AWS_"`
	APNs     APNsConfig     `yaml:"apns" envPrefix:"APNS_"`
	JWT      JWTConfig      `yaml:"jwt" envPrefix:"JWT_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Gemini   GeminiConfig   `yaml:"gemini" envPrefix:"GEMINI_"`
	Geo      GeoConfig      `yaml:"geo" envPrefix:"GEO_"`
	Limits   LimitsConfig   `yaml:"limits" envPrefix:"LIMITS_"`
	Chat     ChatConfig     `yaml:"chat" envPrefix:"CHAT_"`
	Demo     DemoConfig     `yaml:"demo" envPrefix:"DEMO_"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" env:"PORT"`
	Host         string        `yaml:"host" env:"HOST"`
	SessionSweep time.Duration `yaml:"session_sweep" env:"SESSION_SWEEP"`
}

// DatabaseConfig holds database configuration. The box archive is only
// used when Enabled is set.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region    string `yaml:"region" env:"REGION"`
	S3Bucket  string `yaml:"s3_bucket" env:"S3_BUCKET"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"` // S3-compatible providers
}

// APNsConfig holds Apple push configuration. Push is disabled when
// CertFile is empty.
type APNsConfig struct {
	CertFile     string `yaml:"cert_file" env:"CERT_FILE"`
	CertPassword string `yaml:"cert_password" env:"CERT_PASSWORD"`
	Topic        string `yaml:"topic" env:"TOPIC"`
	Production   bool   `yaml:"production" env:"PRODUCTION"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret" env:"SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"TTL"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// GeminiConfig holds settings for the content generator
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// GeoConfig holds proximity thresholds in degrees
type GeoConfig struct {
	ReachThreshold float64 `yaml:"reach_threshold" env:"REACH_THRESHOLD"`
	DropRadius     float64 `yaml:"drop_radius" env:"DROP_RADIUS"`
	FallbackLat    float64 `yaml:"fallback_lat" env:"FALLBACK_LAT"`
	FallbackLng    float64 `yaml:"fallback_lng" env:"FALLBACK_LNG"`
}

// LimitsConfig holds drop quotas and synthetic box settings
type LimitsConfig struct {
	DailyDrops     int           `yaml:"daily_drops" env:"DAILY_DROPS"`
	FakeBoxCount   int           `yaml:"fake_box_count" env:"FAKE_BOX_COUNT"`
	FakeBoxMinimum int           `yaml:"fake_box_minimum" env:"FAKE_BOX_MINIMUM"`
	FakeBoxJitter  float64       `yaml:"fake_box_jitter" env:"FAKE_BOX_JITTER"`
	BoxTTL         time.Duration `yaml:"box_ttl" env:"BOX_TTL"`
}

// ChatConfig holds the simulated acceptance parameters
type ChatConfig struct {
	AcceptProbability float64       `yaml:"accept_probability" env:"ACCEPT_PROBABILITY"`
	AcceptDelay       time.Duration `yaml:"accept_delay" env:"ACCEPT_DELAY"`
}

// DemoConfig holds the hardcoded demo credential
type DemoConfig struct {
	EmailMarker string `yaml:"email_marker" env:"EMAIL_MARKER"`
	Passcode    string `yaml:"passcode" env:"PASSCODE"`
}

// Default returns the configuration used for keys that are absent from
// both the file and the environment
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			SessionSweep: time.Minute,
		},
		Database: DatabaseConfig{SSLMode: "disable"},
		JWT:      JWTConfig{TTL: 24 * time.Hour},
		Log:      LogConfig{Level: "info"},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Model:   "gemini-3-flash-preview",
			Timeout: 30 * time.Second,
		},
		Geo: GeoConfig{
			ReachThreshold: 0.008,
			DropRadius:     0.2,
			FallbackLat:    41.0082,
			FallbackLng:    28.9784,
		},
		Limits: LimitsConfig{
			DailyDrops:     10,
			FakeBoxCount:   4,
			FakeBoxMinimum: 5,
			FakeBoxJitter:  0.02,
			BoxTTL:         24 * time.Hour,
		},
		Chat: ChatConfig{
			AcceptProbability: 0.7,
			AcceptDelay:       3 * time.Second,
		},
		Demo: DemoConfig{
			EmailMarker: "demo123",
			Passcode:    "demo123",
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides on top of Default. Keys set to zero keep their zero value. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have no sensible default
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Chat.AcceptProbability < 0 || c.Chat.AcceptProbability > 1 {
		return fmt.Errorf("chat accept_probability must be within [0, 1], got %v", c.Chat.AcceptProbability)
	}
	if c.Chat.AcceptDelay < 0 {
		return fmt.Errorf("chat accept_delay must not be negative")
	}
	if c.Geo.ReachThreshold <= 0 || c.Geo.DropRadius <= 0 {
		return fmt.Errorf("geo thresholds must be positive")
	}
	if c.Limits.DailyDrops < 0 || c.Limits.FakeBoxCount < 0 || c.Limits.FakeBoxMinimum < 0 || c.Limits.FakeBoxJitter < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("jwt ttl must be positive")
	}
	if c.Server.SessionSweep <= 0 {
		return fmt.Errorf("server session_sweep must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
