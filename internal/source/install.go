package source

import (
	"context"
	"log/slog"
	"os"

	"trialguard/internal/trial"
)

// InstallName is the name InstallTimeSource reports to the reconciler.
const InstallName = "install"

// InstallTimeSource reports when the application was installed, taken as
// the modification time of a file laid down by the installer. It cannot
// store a value.
type InstallTimeSource struct {
	trial.ReadOnly
	path   string
	logger *slog.Logger
}

var _ trial.Source = (*InstallTimeSource)(nil)

// NewInstallTimeSource returns a source reading the modification time of
// path. An empty path means the running executable.
func NewInstallTimeSource(path string, opts ...Option) *InstallTimeSource {
	o := buildOptions("install_source", opts)
	return &InstallTimeSource{
		path:   path,
		logger: o.logger,
	}
}

func (s *InstallTimeSource) Name() string { return InstallName }

func (s *InstallTimeSource) Read(ctx context.Context) (trial.Timestamp, bool) {
	path := s.path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to locate executable", slog.String("error", err.Error()))
			return trial.Unavailable, false
		}
		path = exe
	}

	info, err := os.Stat(path)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to stat install marker",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return trial.Unavailable, false
	}

	ts := trial.FromTime(info.ModTime())
	if !ts.Valid() {
		return trial.Unavailable, false
	}
	return ts, true
}
