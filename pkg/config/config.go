// Package config loads and validates huddle daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	hudderr "github.com/huddleai/huddle/pkg/errors"
)

const (
	defaultVisionModel = "openai/gpt-4o"
	defaultAnswerModel = "openai/gpt-4o"
)

// Default configuration values exported for documentation and validation
const (
	DefaultListen            = "127.0.0.1:8000"
	DefaultCaptureInterval   = 2 * time.Second
	DefaultMaxScreenshots    = 10
	DefaultMaxDimension      = 1920
	DefaultJPEGQuality       = 85
	DefaultBriefMaxTokens    = 150
	DefaultDetailedMaxTokens = 500
	DefaultTokenTTL          = time.Hour
)

// Config represents the complete huddle configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Providers   ProviderConfig    `yaml:"providers"`
	Models      ModelConfig       `yaml:"models"`
	Capture     CaptureConfig     `yaml:"capture"`
	Answer      AnswerConfig      `yaml:"answer"`
	Session     SessionConfig     `yaml:"session"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// ServerConfig controls the HTTP/websocket listener
type ServerConfig struct {
	Listen      string   `yaml:"listen"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// ProviderConfig holds model provider credentials
type ProviderConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig configures the OpenAI-compatible provider
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// ModelConfig selects models per task
type ModelConfig struct {
	Vision string `yaml:"vision"` // screen analysis
	Answer string `yaml:"answer"` // question answering
}

// CaptureConfig controls the periodic screen-capture loop
type CaptureConfig struct {
	Interval       time.Duration `yaml:"interval"`
	MaxScreenshots int           `yaml:"max_screenshots"`
	MaxDimension   int           `yaml:"max_dimension"` // long-edge cap in pixels
	JPEGQuality    int           `yaml:"jpeg_quality"`
	StorageDir     string        `yaml:"storage_dir"`
}

// AnswerConfig controls classification and token budgets
type AnswerConfig struct {
	BriefMaxTokens    int      `yaml:"brief_max_tokens"`
	DetailedMaxTokens int      `yaml:"detailed_max_tokens"`
	BriefKeywords     []string `yaml:"brief_keywords"`
	DetailedKeywords  []string `yaml:"detailed_keywords"`
}

// SessionConfig controls session identity and realtime token issuance
type SessionConfig struct {
	TokenTTL      time.Duration `yaml:"token_ttl"`
	TokenSecret   string        `yaml:"token_secret"`
	RealtimeModel string        `yaml:"realtime_model"`
	LogDir        string        `yaml:"log_dir"`
}

// DiagnosticsConfig controls optional debug surfaces
type DiagnosticsConfig struct {
	NetworkLogsEnabled bool `yaml:"network_logs"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen: DefaultListen,
			CORSOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
			},
		},
		Providers: ProviderConfig{
			OpenAI: OpenAIConfig{},
		},
		Models: ModelConfig{
			Vision: defaultVisionModel,
			Answer: defaultAnswerModel,
		},
		Capture: CaptureConfig{
			Interval:       DefaultCaptureInterval,
			MaxScreenshots: DefaultMaxScreenshots,
			MaxDimension:   DefaultMaxDimension,
			JPEGQuality:    DefaultJPEGQuality,
			StorageDir:     filepath.Join("storage", "screenshots"),
		},
		Answer: AnswerConfig{
			BriefMaxTokens:    DefaultBriefMaxTokens,
			DetailedMaxTokens: DefaultDetailedMaxTokens,
		},
		Session: SessionConfig{
			TokenTTL:      DefaultTokenTTL,
			RealtimeModel: "gpt-4o-realtime-preview-2024-10-01",
			LogDir:        filepath.Join("storage", "logs"),
		},
	}
}

// Load builds the configuration from defaults, user config, project config,
// and environment overrides, in that order.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".huddle", "config.yaml")
		if err := loadAndMerge(cfg, userPath); err != nil && !os.IsNotExist(err) {
			return nil, hudderr.Wrap(err, hudderr.ErrCodeConfigLoad, "loading user config").
				WithContext("path", userPath)
		}
	}

	projectPath := "huddle.yaml"
	if err := loadAndMerge(cfg, projectPath); err != nil && !os.IsNotExist(err) {
		return nil, hudderr.Wrap(err, hudderr.ErrCodeConfigLoad, "loading project config").
			WithContext("path", projectPath)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}

	mergeConfigs(cfg, &override)
	return nil
}

// mergeConfigs merges override into base. Zero values leave base untouched.
func mergeConfigs(base, override *Config) {
	if override == nil {
		return
	}

	if override.Server.Listen != "" {
		base.Server.Listen = override.Server.Listen
	}
	if len(override.Server.CORSOrigins) > 0 {
		base.Server.CORSOrigins = append([]string{}, override.Server.CORSOrigins...)
	}

	if override.Providers.OpenAI.APIKey != "" {
		base.Providers.OpenAI.APIKey = override.Providers.OpenAI.APIKey
	}
	if override.Providers.OpenAI.BaseURL != "" {
		base.Providers.OpenAI.BaseURL = override.Providers.OpenAI.BaseURL
	}

	if override.Models.Vision != "" {
		base.Models.Vision = override.Models.Vision
	}
	if override.Models.Answer != "" {
		base.Models.Answer = override.Models.Answer
	}

	if override.Capture.Interval != 0 {
		base.Capture.Interval = override.Capture.Interval
	}
	if override.Capture.MaxScreenshots != 0 {
		base.Capture.MaxScreenshots = override.Capture.MaxScreenshots
	}
	if override.Capture.MaxDimension != 0 {
		base.Capture.MaxDimension = override.Capture.MaxDimension
	}
	if override.Capture.JPEGQuality != 0 {
		base.Capture.JPEGQuality = override.Capture.JPEGQuality
	}
	if override.Capture.StorageDir != "" {
		base.Capture.StorageDir = override.Capture.StorageDir
	}

	if override.Answer.BriefMaxTokens != 0 {
		base.Answer.BriefMaxTokens = override.Answer.BriefMaxTokens
	}
	if override.Answer.DetailedMaxTokens != 0 {
		base.Answer.DetailedMaxTokens = override.Answer.DetailedMaxTokens
	}
	if len(override.Answer.BriefKeywords) > 0 {
		base.Answer.BriefKeywords = append([]string{}, override.Answer.BriefKeywords...)
	}
	if len(override.Answer.DetailedKeywords) > 0 {
		base.Answer.DetailedKeywords = append([]string{}, override.Answer.DetailedKeywords...)
	}

	if override.Session.TokenTTL != 0 {
		base.Session.TokenTTL = override.Session.TokenTTL
	}
	if override.Session.TokenSecret != "" {
		base.Session.TokenSecret = override.Session.TokenSecret
	}
	if override.Session.RealtimeModel != "" {
		base.Session.RealtimeModel = override.Session.RealtimeModel
	}
	if override.Session.LogDir != "" {
		base.Session.LogDir = override.Session.LogDir
	}

	if override.Diagnostics.NetworkLogsEnabled {
		base.Diagnostics.NetworkLogsEnabled = true
	}
}

// applyEnvOverrides maps environment variables onto the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HUDDLE_OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Providers.OpenAI.APIKey = v
	}
	if v := os.Getenv("HUDDLE_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("HUDDLE_STORAGE_DIR"); v != "" {
		cfg.Capture.StorageDir = v
	}
	if v := os.Getenv("HUDDLE_CAPTURE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Capture.Interval = d
		}
	}
	if v := os.Getenv("HUDDLE_NETWORK_LOGS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Diagnostics.NetworkLogsEnabled = b
		}
	}
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Capture.Interval <= 0 {
		return hudderr.New(hudderr.ErrCodeConfigInvalid, "capture interval must be positive").
			WithContext("interval", c.Capture.Interval.String())
	}
	if c.Capture.MaxScreenshots <= 0 {
		return hudderr.New(hudderr.ErrCodeConfigInvalid, "max_screenshots must be positive").
			WithContext("max_screenshots", c.Capture.MaxScreenshots)
	}
	if c.Capture.MaxDimension <= 0 {
		return hudderr.New(hudderr.ErrCodeConfigInvalid, "max_dimension must be positive").
			WithContext("max_dimension", c.Capture.MaxDimension)
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return hudderr.New(hudderr.ErrCodeConfigInvalid, "jpeg_quality must be in [1,100]").
			WithContext("jpeg_quality", c.Capture.JPEGQuality)
	}
	if c.Answer.BriefMaxTokens <= 0 || c.Answer.DetailedMaxTokens <= 0 {
		return hudderr.New(hudderr.ErrCodeConfigInvalid, "token budgets must be positive")
	}
	if c.Answer.BriefMaxTokens >= c.Answer.DetailedMaxTokens {
		return hudderr.New(hudderr.ErrCodeConfigInvalid, "brief budget must be below detailed budget").
			WithContext("brief", c.Answer.BriefMaxTokens).
			WithContext("detailed", c.Answer.DetailedMaxTokens)
	}
	if c.Server.Listen == "" {
		return hudderr.New(hudderr.ErrCodeConfigInvalid, "server listen address required")
	}
	return nil
}
