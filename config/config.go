// Package config loads piscan settings from PISCAN_* environment
// variables. Command-line flags override what it returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidConfig is matched by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all application configuration
type Config struct {
	Corpus   CorpusConfig
	Catalog  CatalogConfig
	Extract  ExtractConfig
	Assemble AssembleConfig
	Log      LogConfig
}

// CorpusConfig holds corpus location
type CorpusConfig struct {
	Root string
}

// CatalogConfig holds catalog database settings
type CatalogConfig struct {
	Path string
}

// ExtractConfig holds extraction settings
type ExtractConfig struct {
	OutputDir     string
	Workers       int
	Margin        int
	MinConfidence float64
	TargetHeight  int
	WordForm      bool
	Verify        bool
}

// AssembleConfig holds assembly settings
type AssembleConfig struct {
	Digits             int
	MaxSpanLength      int
	DiversityWindow    int
	AllowRepeats       bool
	IsolateIntegerPart bool
	RejectLeadingZeros bool
	OnePerBook         bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root: getEnv("PISCAN_CORPUS", "data/raw"),
		},
		Catalog: CatalogConfig{
			Path: getEnv("PISCAN_CATALOG", "piscan.db"),
		},
		Extract: ExtractConfig{
			OutputDir:     getEnv("PISCAN_OUTPUT", "data/numbers"),
			Workers:       getEnvAsInt("PISCAN_WORKERS", 0),
			Margin:        getEnvAsInt("PISCAN_MARGIN", 4),
			MinConfidence: getEnvAsFloat("PISCAN_MIN_CONFIDENCE", 90),
			TargetHeight:  getEnvAsInt("PISCAN_TARGET_HEIGHT", 0),
			WordForm:      getEnvAsBool("PISCAN_WORD_FORM", true),
			Verify:        getEnvAsBool("PISCAN_VERIFY", false),
		},
		Assemble: AssembleConfig{
			Digits:             getEnvAsInt("PISCAN_DIGITS", 50000),
			MaxSpanLength:      getEnvAsInt("PISCAN_MAX_SPAN", 5),
			DiversityWindow:    getEnvAsInt("PISCAN_DIVERSITY_WINDOW", 0),
			AllowRepeats:       getEnvAsBool("PISCAN_ALLOW_REPEATS", true),
			IsolateIntegerPart: getEnvAsBool("PISCAN_ISOLATE_INTEGER_PART", false),
			RejectLeadingZeros: getEnvAsBool("PISCAN_REJECT_LEADING_ZEROS", false),
			OnePerBook:         getEnvAsBool("PISCAN_ONE_PER_BOOK", false),
		},
		Log: LogConfig{
			Level:  getEnv("PISCAN_LOG_LEVEL", "info"),
			Format: getEnv("PISCAN_LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch {
	case c.Corpus.Root == "":
		return fmt.Errorf("%w: PISCAN_CORPUS is required", ErrInvalidConfig)
	case c.Catalog.Path == "":
		return fmt.Errorf("%w: PISCAN_CATALOG is required", ErrInvalidConfig)
	case c.Extract.OutputDir == "":
		return fmt.Errorf("%w: PISCAN_OUTPUT is required", ErrInvalidConfig)
	case c.Extract.Workers < 0:
		return fmt.Errorf("%w: PISCAN_WORKERS must not be negative", ErrInvalidConfig)
	case c.Extract.Margin < 0:
		return fmt.Errorf("%w: PISCAN_MARGIN must not be negative", ErrInvalidConfig)
	case c.Extract.MinConfidence < 0 || c.Extract.MinConfidence > 100:
		return fmt.Errorf("%w: PISCAN_MIN_CONFIDENCE must be within 0-100", ErrInvalidConfig)
	case c.Extract.TargetHeight < 0:
		return fmt.Errorf("%w: PISCAN_TARGET_HEIGHT must not be negative", ErrInvalidConfig)
	case c.Assemble.Digits < 1:
		return fmt.Errorf("%w: PISCAN_DIGITS must be positive", ErrInvalidConfig)
	case c.Assemble.MaxSpanLength < 1 || c.Assemble.MaxSpanLength > 5:
		return fmt.Errorf("%w: PISCAN_MAX_SPAN must be within 1-5", ErrInvalidConfig)
	case c.Assemble.DiversityWindow < 0:
		return fmt.Errorf("%w: PISCAN_DIVERSITY_WINDOW must not be negative", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
