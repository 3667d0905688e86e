// Package config provides configuration loading and path management for
// trialguard.
//
// # Configuration Sources
//
// Configuration is assembled in layers, each overriding the previous one:
//
//	1. Defaults (lowest priority)
//	2. YAML configuration file
//	3. Environment variables (highest priority)
//
// A key missing from the file or the environment keeps the value of the
// layer below it.
//
// # Environment Variables
//
// All environment variables follow the pattern TRIALGUARD_*, with nested
// sections joined by underscores:
//
//	TRIALGUARD_TRIAL_DURATION_DAYS=30
//	TRIALGUARD_SOURCES_PREFERENCES_BACKEND=redis
//	TRIALGUARD_SOURCES_PREFERENCES_REDIS_URL=redis://localhost:6379/0
//	TRIALGUARD_LOGGING_LEVEL=debug
//
// # Configuration File
//
//	trial:
//	  duration_days: 30
//	sources:
//	  file:
//	    enabled: true
//	    path: /var/lib/myapp/trial_start
//	backup:
//	  enabled: true
//	  endpoint: minio.internal:9000
//	  bucket: trial-backups
//
// Unknown keys are rejected.
//
// # Path Management
//
// Paths are resolved relative to the executable, never the working directory:
//
//	paths, err := config.GetPaths()
//	cfg, err := config.LoadWithPaths("trialguard.yaml", paths)
//
// # Validation
//
// The loaded configuration is validated with go-playground/validator; the
// returned error is a VALIDATION AppError naming every offending field.
package config
