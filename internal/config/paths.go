package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// Every path is derived from a single base directory.
type Paths struct {
	ExecutableDir string
	DataDir       string
	LogsDir       string

	// Trial start storage
	PreferencesDB string
	TrialFile     string

	LogFile string
}

// GetPaths returns the application paths relative to the executable location.
// Paths are never resolved against the current working directory.
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// NewPaths lays out the application directories under baseDir:
//
//	baseDir/
//	  ├── data/
//	  │   ├── preferences.db
//	  │   └── trial_start
//	  └── logs/
//	      └── trialguard.log
func NewPaths(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, DefaultDataDir)
	logsDir := filepath.Join(baseDir, DefaultLogsDir)

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		LogsDir:       logsDir,
		PreferencesDB: filepath.Join(dataDir, PreferencesDBFileName),
		TrialFile:     filepath.Join(dataDir, TrialFileName),
		LogFile:       filepath.Join(logsDir, LogFileName),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		logger.Debug("Ensured directory exists",
			slog.String("directory", dir))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		return
	}

	logger.Debug("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("preferences_db", p.PreferencesDB),
			slog.Bool("preferences_db_exists", FileExists(p.PreferencesDB)),
			slog.String("trial_file", p.TrialFile),
			slog.Bool("trial_file_exists", FileExists(p.TrialFile)),
		))
}
