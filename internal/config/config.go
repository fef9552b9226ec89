package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ModelMap assigns a model identifier to each committee role. Loaded once
// per process and treated as fixed for the duration of a run.
type ModelMap struct {
	Bear          string `json:"bear"`
	Bull          string `json:"bull"`
	Judge         string `json:"judge"`
	JudgeFallback string `json:"judge_fallback"`
	Verifier      string `json:"verifier"`
}

// CalibrationConfig holds the tunable parameters of the score calibrator.
// The adjustment is linear in evidence coverage around NeutralCoverage and
// bounded by MaxAdjustment in either direction; CitationBonus is added per
// concrete citation up to CitationCap citations.
type CalibrationConfig struct {
	NeutralCoverage float64 `json:"neutral_coverage"`
	MaxAdjustment   float64 `json:"max_adjustment"`
	CitationBonus   float64 `json:"citation_bonus"`
	CitationCap     int     `json:"citation_cap"`
}

// Config is the process-scoped configuration, loaded once at startup and
// passed by reference. No other part of the code reads the environment.
type Config struct {
	Port            string
	Models          ModelMap
	GeminiAPIKey    string
	Calibration     CalibrationConfig
	// DisagreementThreshold is the sigma (on the common 0-100 scale) above
	// which the high-disagreement flag is raised.
	DisagreementThreshold float64
	CacheTTL              time.Duration
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RoleCallTimeout       time.Duration
	EvaluationTimeout     time.Duration
	MarketDataURL         string
	RequestsPerMinute     int
}

// Default model identifiers. The judge gets the strongest model; the
// fallback is a cheaper tier used only on the single retry path.
const (
	defaultBearModel     = "gemini-2.5-flash"
	defaultBullModel     = "gemini-2.5-flash"
	defaultJudgeModel    = "gemini-2.5-pro"
	defaultFallbackModel = "gemini-2.5-flash"
	defaultVerifierModel = "gemini-2.5-flash"
)

// FromEnv builds a Config from environment variables, applying documented
// defaults for anything unset.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		Models: ModelMap{
			Bear:          getEnvOrDefault("MODEL_BEAR", defaultBearModel),
			Bull:          getEnvOrDefault("MODEL_BULL", defaultBullModel),
			Judge:         getEnvOrDefault("MODEL_JUDGE", defaultJudgeModel),
			JudgeFallback: getEnvOrDefault("MODEL_JUDGE_FALLBACK", defaultFallbackModel),
			Verifier:      getEnvOrDefault("MODEL_VERIFIER", defaultVerifierModel),
		},
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		Calibration: CalibrationConfig{
			NeutralCoverage: getEnvFloat("CALIBRATION_NEUTRAL_COVERAGE", 0.6),
			MaxAdjustment:   getEnvFloat("CALIBRATION_MAX_ADJUSTMENT", 8.0),
			CitationBonus:   getEnvFloat("CALIBRATION_CITATION_BONUS", 0.5),
			CitationCap:     getEnvInt("CALIBRATION_CITATION_CAP", 4),
		},
		DisagreementThreshold: getEnvFloat("DISAGREEMENT_THRESHOLD", 15.0),
		CacheTTL:              getEnvDuration("CACHE_TTL", 15*time.Minute),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		RoleCallTimeout:       getEnvDuration("ROLE_CALL_TIMEOUT", 45*time.Second),
		EvaluationTimeout:     getEnvDuration("EVALUATION_TIMEOUT", 3*time.Minute),
		MarketDataURL:         os.Getenv("MARKET_DATA_URL"),
		RequestsPerMinute:     getEnvInt("REQUESTS_PER_MINUTE", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks internal consistency of the configuration.
func (c *Config) Validate() error {
	if c.Calibration.NeutralCoverage < 0 || c.Calibration.NeutralCoverage > 1 {
		return fmt.Errorf("calibration neutral coverage must be in [0,1], got %v", c.Calibration.NeutralCoverage)
	}
	if c.Calibration.MaxAdjustment < 0 {
		return fmt.Errorf("calibration max adjustment must be non-negative, got %v", c.Calibration.MaxAdjustment)
	}
	if c.DisagreementThreshold <= 0 {
		return fmt.Errorf("disagreement threshold must be positive, got %v", c.DisagreementThreshold)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", c.CacheTTL)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
