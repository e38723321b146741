package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube     YouTubeConfig     `yaml:"youtube"`
	AI          AIConfig          `yaml:"ai"`
	Cache       CacheConfig       `yaml:"cache"`
	Retry       RetryConfig       `yaml:"retry"`
	Breaker     BreakerConfig     `yaml:"breaker"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment"`
	Parser      ParserConfig      `yaml:"parser"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

type YouTubeConfig struct {
	APIKey       string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
	// TimeoutSeconds bounds each metadata API call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type AIConfig struct {
	GeminiAPIKey    string  `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	AnalysisModel   string  `yaml:"analysis_model"`
	PitchModel      string  `yaml:"pitch_model"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
}

type CacheConfig struct {
	Capacity int `yaml:"capacity"`
	// Per-category TTLs in seconds. Fallback and error results expire
	// fast so the pipeline re-attempts once upstream may have recovered.
	TTLSeconds map[string]int `yaml:"ttl_seconds"`
}

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

type BreakerConfig struct {
	FailureThreshold    int `yaml:"failure_threshold"`
	ResetTimeoutSeconds int `yaml:"reset_timeout_seconds"`
}

type EnrichmentConfig struct {
	DailyQuota         int `yaml:"daily_quota"`
	MaxDurationSeconds int `yaml:"max_duration_seconds"`
	// QualityFloor is the minimum analysis confidence required to attach
	// an enrichment payload.
	QualityFloor float64 `yaml:"quality_floor"`
	DataDir      string  `yaml:"data_dir"`
}

type ParserConfig struct {
	MaxInputChars int `yaml:"max_input_chars"`
	MinPitchChars int `yaml:"min_pitch_chars"`
	MaxPitchChars int `yaml:"max_pitch_chars"`
	MaxTopics     int `yaml:"max_topics"`
}

type MonitoringConfig struct {
	HealthPort     int `yaml:"health_port"`
	EventRetention int `yaml:"event_retention"`
}

type MaintenanceConfig struct {
	// CleanupSchedule sweeps expired cache entries; QuotaResetSchedule
	// zeroes the daily enrichment counter at the wall-clock boundary.
	CleanupSchedule    string `yaml:"cleanup_schedule"`
	QuotaResetSchedule string `yaml:"quota_reset_schedule"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
}

// ApplyDefaults fills every zero field with its production default. Exported
// so tests can build a valid config without a yaml file.
func (c *Config) ApplyDefaults() {
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.TimeoutSeconds == 0 {
		c.YouTube.TimeoutSeconds = 10
	}
	if c.AI.AnalysisModel == "" {
		c.AI.AnalysisModel = "gemini-2.5-flash"
	}
	if c.AI.PitchModel == "" {
		c.AI.PitchModel = "gemini-2.5-flash"
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.MaxOutputTokens == 0 {
		c.AI.MaxOutputTokens = 2048
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 60
	}
	if c.Cache.Capacity == 0 {
		c.Cache.Capacity = 500
	}
	if c.Cache.TTLSeconds == nil {
		c.Cache.TTLSeconds = map[string]int{}
	}
	ttlDefaults := map[string]int{
		"shorts":   6 * 3600,
		"video":    12 * 3600,
		"metadata": 3600,
		"fallback": 300,
		"error":    120,
	}
	for category, seconds := range ttlDefaults {
		if _, ok := c.Cache.TTLSeconds[category]; !ok {
			c.Cache.TTLSeconds[category] = seconds
		}
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMs == 0 {
		c.Retry.BaseDelayMs = 500
	}
	if c.Retry.MaxDelayMs == 0 {
		c.Retry.MaxDelayMs = 8000
	}
	if c.Breaker.FailureThreshold == 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.ResetTimeoutSeconds == 0 {
		c.Breaker.ResetTimeoutSeconds = 60
	}
	if c.Enrichment.DailyQuota == 0 {
		c.Enrichment.DailyQuota = 50
	}
	if c.Enrichment.MaxDurationSeconds == 0 {
		c.Enrichment.MaxDurationSeconds = 180
	}
	if c.Enrichment.QualityFloor == 0 {
		c.Enrichment.QualityFloor = 0.6
	}
	if c.Enrichment.DataDir == "" {
		c.Enrichment.DataDir = "data"
	}
	if c.Parser.MaxInputChars == 0 {
		c.Parser.MaxInputChars = 50000
	}
	if c.Parser.MinPitchChars == 0 {
		c.Parser.MinPitchChars = 40
	}
	if c.Parser.MaxPitchChars == 0 {
		c.Parser.MaxPitchChars = 1200
	}
	if c.Parser.MaxTopics == 0 {
		c.Parser.MaxTopics = 8
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Monitoring.EventRetention == 0 {
		c.Monitoring.EventRetention = 1000
	}
	if c.Maintenance.CleanupSchedule == "" {
		c.Maintenance.CleanupSchedule = "@every 5m"
	}
	if c.Maintenance.QuotaResetSchedule == "" {
		c.Maintenance.QuotaResetSchedule = "0 0 * * *" // Midnight
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" && (c.YouTube.ClientID == "" || c.YouTube.ClientSecret == "") {
		return fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY, or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Parser.MinPitchChars >= c.Parser.MaxPitchChars {
		return fmt.Errorf("parser.min_pitch_chars must be below parser.max_pitch_chars")
	}
	return nil
}

// MetadataTimeout returns the per-call budget for metadata API requests.
func (c *Config) MetadataTimeout() time.Duration {
	return time.Duration(c.YouTube.TimeoutSeconds) * time.Second
}

// AITimeout returns the per-call budget for generative model requests.
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// BaseDelay returns the initial retry backoff interval.
func (c *RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// MaxDelay returns the retry backoff ceiling.
func (c *RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}

// ResetTimeout returns how long an open circuit waits before probing.
func (c *BreakerConfig) ResetTimeout() time.Duration {
	return time.Duration(c.ResetTimeoutSeconds) * time.Second
}
