package config

import (
	"time"

	"github.com/vithaluntold/rai-compliance-client/internal/infra/session"
	"github.com/vithaluntold/rai-compliance-client/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	API       APIConfig       `yaml:"api"`
	Retry     RetryConfig     `yaml:"retry"`
	Polling   PollingConfig   `yaml:"polling"`
	Network   NetworkConfig   `yaml:"network"`
	Session   session.Config  `yaml:"session"`
	Database  postgres.Config `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig holds the default retry policy for network calls.
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries"`
	BaseDelay     time.Duration `yaml:"base_delay"`
	MaxDelay      time.Duration `yaml:"max_delay"`
	BackoffFactor float64       `yaml:"backoff_factor"`
}

// PollingConfig holds the per-step polling ceilings. Metadata polling backs
// off gently because it is waiting for a result, not retrying a failure;
// progress polling is fixed-interval.
type PollingConfig struct {
	MetadataBaseDelay   time.Duration `yaml:"metadata_base_delay"`
	MetadataMaxDelay    time.Duration `yaml:"metadata_max_delay"`
	MetadataMaxAttempts int           `yaml:"metadata_max_attempts"`
	ProgressInterval    time.Duration `yaml:"progress_interval"`
	ProgressMaxAttempts int           `yaml:"progress_max_attempts"`
}

// NetworkConfig holds connectivity monitor settings.
type NetworkConfig struct {
	ProbeInterval time.Duration `yaml:"probe_interval"`
	ProbePath     string        `yaml:"probe_path"`
}

// TelemetryConfig holds the escalation sink for critical pipeline errors.
type TelemetryConfig struct {
	EscalationURL string `yaml:"escalation_url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
