package source

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"trialguard/internal/trial"
)

// FileName is the name FileSource reports to the reconciler.
const FileName = "file"

// FileSource stores the trial start as a decimal millisecond count on the
// first line of a text file. The file can live outside the application's
// data directory so that it survives a reinstall.
type FileSource struct {
	path   string
	logger *slog.Logger
}

var _ trial.Source = (*FileSource)(nil)

// NewFileSource returns a source backed by the file at path.
func NewFileSource(path string, opts ...Option) *FileSource {
	o := buildOptions("file_source", opts)
	return &FileSource{
		path:   path,
		logger: o.logger.With(slog.String("path", path)),
	}
}

func (f *FileSource) Name() string { return FileName }

// Read parses the first line of the file. A missing, unreadable or
// malformed file is reported as unavailable.
func (f *FileSource) Read(ctx context.Context) (trial.Timestamp, bool) {
	file, err := os.Open(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.WarnContext(ctx, "Failed to open trial file", slog.String("error", err.Error()))
		}
		return trial.Unavailable, false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			f.logger.WarnContext(ctx, "Failed to read trial file", slog.String("error", err.Error()))
		}
		return trial.Unavailable, false
	}

	v, err := strconv.ParseInt(strings.TrimSpace(scanner.Text()), 10, 64)
	if err != nil {
		f.logger.WarnContext(ctx, "Trial file is corrupt", slog.String("error", err.Error()))
		return trial.Unavailable, false
	}

	ts := trial.Timestamp(v)
	if !ts.Valid() {
		return trial.Unavailable, false
	}
	return ts, true
}

// Persist replaces the file contents with ts. The write goes through a
// temporary file in the same directory so a crash never leaves a torn value.
func (f *FileSource) Persist(ctx context.Context, ts trial.Timestamp) {
	if err := f.write(ts); err != nil {
		f.logger.WarnContext(ctx, "Failed to persist trial start",
			slog.String("error", err.Error()),
			slog.Int64("value", int64(ts)))
	}
}

func (f *FileSource) write(ts trial.Timestamp) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.FormatInt(int64(ts), 10)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
