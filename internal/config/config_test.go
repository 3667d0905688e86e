package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trialguard/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trialguard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestDefaults verifies the configuration used with no file and no environment
func TestDefaults(t *testing.T) {
	paths := NewPaths(t.TempDir())
	cfg := Defaults(paths)

	assert.Equal(t, DefaultTrialDurationDays, cfg.Trial.DurationDays)

	assert.True(t, cfg.Sources.Install.Enabled)
	assert.Empty(t, cfg.Sources.Install.Path)

	assert.True(t, cfg.Sources.Preferences.Enabled)
	assert.Equal(t, "sqlite", cfg.Sources.Preferences.Backend)
	assert.Equal(t, paths.PreferencesDB, cfg.Sources.Preferences.DatabasePath)
	assert.Equal(t, "simple_trial", cfg.Sources.Preferences.Namespace)
	assert.Equal(t, "trial_start", cfg.Sources.Preferences.Key)

	assert.True(t, cfg.Sources.File.Enabled)
	assert.Equal(t, paths.TrialFile, cfg.Sources.File.Path)

	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, DefaultBackupMinInterval, cfg.Backup.MinInterval)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "none", cfg.Telemetry.MetricExporter)

	require.NoError(t, cfg.Validate())
}

// TestLoadWithPaths tests layering of defaults, file and environment
func TestLoadWithPaths(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		env         map[string]string
		wantErr     bool
		errType     apperrors.ErrorType
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults only",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 14, cfg.Trial.DurationDays)
				assert.Equal(t, "sqlite", cfg.Sources.Preferences.Backend)
			},
		},
		{
			name: "file overlays defaults",
			fileContent: `
trial:
  duration_days: 30
sources:
  preferences:
    backend: memory
  file:
    path: /tmp/custom_trial
logging:
  level: debug
backup:
  min_interval: 10m
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30, cfg.Trial.DurationDays)
				assert.Equal(t, "memory", cfg.Sources.Preferences.Backend)
				assert.Equal(t, "/tmp/custom_trial", cfg.Sources.File.Path)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 10*time.Minute, cfg.Backup.MinInterval)

				// Keys absent from the file keep their defaults
				assert.True(t, cfg.Sources.Install.Enabled)
				assert.Equal(t, "trial_start", cfg.Sources.Preferences.Key)
				assert.Equal(t, DefaultBackupTimeout, cfg.Backup.Timeout)
			},
		},
		{
			name: "environment overrides file",
			fileContent: `
trial:
  duration_days: 30
`,
			env: map[string]string{
				"TRIALGUARD_TRIAL_DURATION_DAYS":           "7",
				"TRIALGUARD_SOURCES_PREFERENCES_BACKEND":   "redis",
				"TRIALGUARD_SOURCES_PREFERENCES_REDIS_URL": "redis://localhost:6379/0",
				"TRIALGUARD_SOURCES_FILE_ENABLED":          "false",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7, cfg.Trial.DurationDays)
				assert.Equal(t, "redis", cfg.Sources.Preferences.Backend)
				assert.Equal(t, "redis://localhost:6379/0", cfg.Sources.Preferences.RedisURL)
				assert.False(t, cfg.Sources.File.Enabled)
			},
		},
		{
			name: "unprefixed variables are ignored",
			env: map[string]string{
				"ENABLED": "false",
				"LEVEL":   "error",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Sources.File.Enabled)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name:        "invalid YAML syntax",
			fileContent: "invalid: yaml: content: [unclosed",
			wantErr:     true,
			errType:     apperrors.ErrTypeParsing,
		},
		{
			name: "unknown keys are rejected",
			fileContent: `
trial:
  duration_weeks: 2
`,
			wantErr: true,
			errType: apperrors.ErrTypeParsing,
		},
		{
			name:    "malformed environment value",
			env:     map[string]string{"TRIALGUARD_TRIAL_DURATION_DAYS": "two weeks"},
			wantErr: true,
			errType: apperrors.ErrTypeConfig,
		},
		{
			name: "negative duration fails validation",
			fileContent: `
trial:
  duration_days: -1
`,
			wantErr: true,
			errType: apperrors.ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			filePath := ""
			if tt.fileContent != "" {
				filePath = writeConfigFile(t, tt.fileContent)
			}

			cfg, err := LoadWithPaths(filePath, NewPaths(t.TempDir()))

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, tt.errType), "unexpected error: %v", err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}

	t.Run("non-existent file", func(t *testing.T) {
		_, err := LoadWithPaths("/non/existent/file.yaml", NewPaths(t.TempDir()))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("unreadable file", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("file permissions are not enforced for root")
		}
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("trial:\n  duration_days: 3\n"), 0000))

		_, err := LoadWithPaths(path, NewPaths(t.TempDir()))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypePermission))
	})
}

// TestValidate tests field and cross-field validation rules
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown preferences backend",
			mutate:  func(c *Config) { c.Sources.Preferences.Backend = "etcd" },
			wantErr: "Sources.Preferences.Backend must be one of",
		},
		{
			name:    "sqlite backend without a database path",
			mutate:  func(c *Config) { c.Sources.Preferences.DatabasePath = "" },
			wantErr: "Sources.Preferences.DatabasePath is required",
		},
		{
			name: "redis backend without a url",
			mutate: func(c *Config) {
				c.Sources.Preferences.Backend = "redis"
			},
			wantErr: "Sources.Preferences.RedisURL is required",
		},
		{
			name: "disabled preferences source needs no settings",
			mutate: func(c *Config) {
				c.Sources.Preferences = PreferencesSourceConfig{}
			},
		},
		{
			name:    "file source without a path",
			mutate:  func(c *Config) { c.Sources.File.Path = "" },
			wantErr: "Sources.File.Path is required",
		},
		{
			name: "no sources enabled",
			mutate: func(c *Config) {
				c.Sources.Install.Enabled = false
				c.Sources.Preferences.Enabled = false
				c.Sources.File.Enabled = false
			},
			wantErr: "at least one trial source must be enabled",
		},
		{
			name: "backup without a bucket",
			mutate: func(c *Config) {
				c.Backup.Enabled = true
				c.Backup.Endpoint = "localhost:9000"
			},
			wantErr: "Backup.Bucket is required",
		},
		{
			name: "backup with a non-sqlite backend",
			mutate: func(c *Config) {
				c.Sources.Preferences.Backend = "memory"
				c.Backup.Enabled = true
				c.Backup.Endpoint = "localhost:9000"
				c.Backup.Bucket = "trials"
			},
			wantErr: "only supported for the sqlite preferences backend",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "Logging.Level must be one of",
		},
		{
			name: "file logging without a path",
			mutate: func(c *Config) {
				c.Logging.Output = "file"
				c.Logging.FilePath = ""
			},
			wantErr: "Logging.FilePath is required",
		},
		{
			name:    "invalid trace exporter",
			mutate:  func(c *Config) { c.Telemetry.TraceExporter = "jaeger" },
			wantErr: "Telemetry.TraceExporter must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults(NewPaths(t.TempDir()))
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
