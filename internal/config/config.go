package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/savegress/hl7kit/pkg/hl7"
)

// EnvConfigPath names the variable holding the path of the YAML file.
const EnvConfigPath = "HL7KIT_CONFIG"

// Config holds all configuration for hl7kit
type Config struct {
	Header hl7.HeaderConfig `yaml:"header"`
	Log    LogConfig        `yaml:"log"`
	Batch  BatchConfig      `yaml:"batch"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// BatchConfig holds batch verification configuration
type BatchConfig struct {
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MetricsFile     string        `yaml:"metrics_file"`
	QuarantineDir   string        `yaml:"quarantine_dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Header: hl7.HeaderConfig{
			SendingApplication: "HL7KIT",
			ProcessingID:       "P",
			Version:            "2.5",
			GenerateControlID:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Batch: BatchConfig{
			Workers:         4,
			QueueSize:       64,
			ShutdownTimeout: 30 * time.Second,
		},
	}
}

// Load loads configuration from a YAML file. Keys missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	def := Default()
	return &Config{
		Header: hl7.HeaderConfig{
			SendingApplication:   getEnv("HL7KIT_SENDING_APPLICATION", def.Header.SendingApplication),
			SendingFacility:      getEnv("HL7KIT_SENDING_FACILITY", def.Header.SendingFacility),
			ReceivingApplication: getEnv("HL7KIT_RECEIVING_APPLICATION", def.Header.ReceivingApplication),
			ReceivingFacility:    getEnv("HL7KIT_RECEIVING_FACILITY", def.Header.ReceivingFacility),
			ProcessingID:         getEnv("HL7KIT_PROCESSING_ID", def.Header.ProcessingID),
			Version:              getEnv("HL7KIT_VERSION", def.Header.Version),
			GenerateControlID:    getEnvBool("HL7KIT_GENERATE_CONTROL_ID", def.Header.GenerateControlID),
		},
		Log: LogConfig{
			Level:  getEnv("HL7KIT_LOG_LEVEL", def.Log.Level),
			Format: getEnv("HL7KIT_LOG_FORMAT", def.Log.Format),
		},
		Batch: BatchConfig{
			Workers:         getEnvInt("HL7KIT_BATCH_WORKERS", def.Batch.Workers),
			QueueSize:       getEnvInt("HL7KIT_BATCH_QUEUE_SIZE", def.Batch.QueueSize),
			ShutdownTimeout: getEnvDuration("HL7KIT_BATCH_SHUTDOWN_TIMEOUT", def.Batch.ShutdownTimeout),
			MetricsFile:     getEnv("HL7KIT_BATCH_METRICS_FILE", def.Batch.MetricsFile),
			QuarantineDir:   getEnv("HL7KIT_BATCH_QUARANTINE_DIR", def.Batch.QuarantineDir),
		},
	}
}

// Resolve loads the file named by HL7KIT_CONFIG, or falls back to the
// environment when the variable is unset.
func Resolve() (*Config, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return Load(path)
	}
	cfg := LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that cannot be repaired by defaults.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch workers must be > 0, got %d", c.Batch.Workers)
	}
	if c.Batch.QueueSize < 0 {
		return fmt.Errorf("batch queue size must be >= 0, got %d", c.Batch.QueueSize)
	}
	if c.Batch.ShutdownTimeout < 0 {
		return fmt.Errorf("batch shutdown timeout must be >= 0, got %v", c.Batch.ShutdownTimeout)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
