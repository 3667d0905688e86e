package config

import "time"

// Application constants
const (
	// Application Info
	AppName = "trialguard"

	// EnvPrefix namespaces every environment variable, e.g. TRIALGUARD_TRIAL_DURATION_DAYS
	EnvPrefix = "TRIALGUARD"

	// Trial
	DefaultTrialDurationDays = 14

	// Preferences source
	DefaultPreferencesNamespace = "simple_trial"
	DefaultPreferenceKey        = "trial_start"

	// File Paths (relative to executable)
	DefaultDataDir        = "data"
	DefaultLogsDir        = "logs"
	PreferencesDBFileName = "preferences.db"
	TrialFileName         = "trial_start"
	LogFileName           = "trialguard.log"

	// Backup
	DefaultBackupObjectKey   = "trialguard/preferences.db"
	DefaultBackupMinInterval = 5 * time.Minute
	DefaultBackupTimeout     = 30 * time.Second
	DefaultBackupMaxRetries  = 3
)
