package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "trialguard/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Trial     TrialConfig     `yaml:"trial" split_words:"true"`
	Sources   SourcesConfig   `yaml:"sources" split_words:"true"`
	Backup    BackupConfig    `yaml:"backup" split_words:"true"`
	Logging   LoggingConfig   `yaml:"logging" split_words:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" split_words:"true"`
}

// TrialConfig contains the trial period settings
type TrialConfig struct {
	DurationDays int `yaml:"duration_days" split_words:"true" validate:"gte=0"`
}

// SourcesConfig selects and configures the trial start sources.
// Sources are reconciled in the order install, preferences, file.
type SourcesConfig struct {
	Install     InstallSourceConfig     `yaml:"install" split_words:"true"`
	Preferences PreferencesSourceConfig `yaml:"preferences" split_words:"true"`
	File        FileSourceConfig        `yaml:"file" split_words:"true"`
}

// InstallSourceConfig configures the read-only install time source.
// An empty Path means the running executable.
type InstallSourceConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true"`
}

// PreferencesSourceConfig configures the key-value preferences source
type PreferencesSourceConfig struct {
	Enabled       bool   `yaml:"enabled" split_words:"true"`
	Backend       string `yaml:"backend" split_words:"true" validate:"omitempty,oneof=sqlite redis memory"`
	DatabasePath  string `yaml:"database_path" split_words:"true" validate:"required_if=Enabled true Backend sqlite"`
	RedisURL      string `yaml:"redis_url" split_words:"true" validate:"required_if=Enabled true Backend redis"`
	Namespace     string `yaml:"namespace" split_words:"true" validate:"required_if=Enabled true"`
	Key           string `yaml:"key" split_words:"true" validate:"required_if=Enabled true"`
	TriggerBackup bool   `yaml:"trigger_backup" split_words:"true"`
}

// FileSourceConfig configures the flat file source
type FileSourceConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true" validate:"required_if=Enabled true"`
}

// BackupConfig configures the object storage backup of the preferences store
type BackupConfig struct {
	Enabled     bool          `yaml:"enabled" split_words:"true"`
	Endpoint    string        `yaml:"endpoint" split_words:"true" validate:"required_if=Enabled true"`
	AccessKey   string        `yaml:"access_key" split_words:"true"`
	SecretKey   string        `yaml:"secret_key" split_words:"true"`
	Region      string        `yaml:"region" split_words:"true"`
	Bucket      string        `yaml:"bucket" split_words:"true" validate:"required_if=Enabled true"`
	ObjectKey   string        `yaml:"object_key" split_words:"true" validate:"required_if=Enabled true"`
	UseSSL      bool          `yaml:"use_ssl" split_words:"true"`
	MinInterval time.Duration `yaml:"min_interval" split_words:"true" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" split_words:"true" validate:"gte=0"`
	MaxRetries  uint64        `yaml:"max_retries" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" split_words:"true" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true" validate:"required_unless=Output console"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" split_words:"true"`
	TraceExporter  string `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" split_words:"true" validate:"oneof=prometheus none"`
	MetricsFile    string `yaml:"metrics_file" split_words:"true"`
}

// Defaults returns the configuration used when neither a file nor the
// environment says otherwise. Storage paths live under paths.DataDir.
func Defaults(paths *Paths) Config {
	return Config{
		Trial: TrialConfig{
			DurationDays: DefaultTrialDurationDays,
		},
		Sources: SourcesConfig{
			Install: InstallSourceConfig{
				Enabled: true,
			},
			Preferences: PreferencesSourceConfig{
				Enabled:       true,
				Backend:       "sqlite",
				DatabasePath:  paths.PreferencesDB,
				Namespace:     DefaultPreferencesNamespace,
				Key:           DefaultPreferenceKey,
				TriggerBackup: true,
			},
			File: FileSourceConfig{
				Enabled: true,
				Path:    paths.TrialFile,
			},
		},
		Backup: BackupConfig{
			ObjectKey:   DefaultBackupObjectKey,
			UseSSL:      true,
			MinInterval: DefaultBackupMinInterval,
			Timeout:     DefaultBackupTimeout,
			MaxRetries:  DefaultBackupMaxRetries,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: paths.LogFile,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricExporter: "none",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at
// filePath (if non-empty and present), then TRIALGUARD_* environment variables.
func Load(filePath string) (*Config, error) {
	paths, err := GetPaths()
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}
	return LoadWithPaths(filePath, paths)
}

// LoadWithPaths is Load with explicit base paths.
func LoadWithPaths(filePath string, paths *Paths) (*Config, error) {
	cfg := Defaults(paths)

	if filePath != "" {
		if err := loadFromFile(filePath, &cfg); err != nil {
			return nil, err
		}
	}

	// No default tags on the struct: envconfig leaves unset fields alone.
	// split_words keys avoid envconfig falling back to unprefixed names like PATH.
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; keys absent from the file keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return apperrors.NewNotFoundError("config file "+filePath).WithContext("path", filePath)
		case errors.Is(err, os.ErrPermission):
			return apperrors.NewPermissionError(fmt.Sprintf("cannot read config file %s", filePath), err)
		}
		return apperrors.NewConfigError("failed to read config file", err)
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return apperrors.NewParsingError(fmt.Sprintf("failed to parse config file %s", filePath), err)
	}

	return nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return apperrors.NewValidationError("config validation failed: "+strings.Join(msgs, "; "), err)
		}
		return apperrors.NewValidationError("config validation failed", err)
	}

	if !c.Sources.Install.Enabled && !c.Sources.Preferences.Enabled && !c.Sources.File.Enabled {
		return apperrors.NewValidationError("at least one trial source must be enabled", nil)
	}

	if c.Sources.Preferences.Enabled && c.Sources.Preferences.TriggerBackup && c.Backup.Enabled &&
		c.Sources.Preferences.Backend != "sqlite" {
		return apperrors.NewValidationError("backup is only supported for the sqlite preferences backend", nil)
	}

	return nil
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required_if", "required_unless":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
