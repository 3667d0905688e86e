package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	apperrors "trialguard/internal/errors"
	"trialguard/internal/infrastructure"
)

const MeterName = "trialguard/backup"

// Requester asks for a backup of a store that just changed. It must not block.
type Requester interface {
	RequestBackup(ctx context.Context)
}

// Snapshotter writes a consistent copy of a store to a file that does not yet exist.
type Snapshotter interface {
	Snapshot(ctx context.Context, dst string) error
}

// Uploader ships a local file off-site.
type Uploader interface {
	Upload(ctx context.Context, path string) error
}

// DispatcherConfig tunes a Dispatcher.
type DispatcherConfig struct {
	// MinInterval is the minimum time between backups started by requests. Zero disables throttling.
	MinInterval time.Duration
	// Timeout bounds one snapshot and upload. Zero means no limit.
	Timeout time.Duration
	// TempDir holds snapshots while they upload. Empty means os.TempDir.
	TempDir string
	Logger  *slog.Logger
}

// Dispatcher runs backups in the background, one at a time. A request that
// cannot start right away is remembered, and the store is snapshotted again
// once the running backup finishes or the interval elapses.
type Dispatcher struct {
	snapshotter Snapshotter
	uploader    Uploader
	limiter     *rate.Limiter
	group       errgroup.Group
	timeout     time.Duration
	tempDir     string
	logger      *slog.Logger
	runs        metric.Int64Counter

	mu         sync.Mutex
	running    bool
	pending    bool
	pendingCtx context.Context
	timer      *time.Timer
}

var _ Requester = (*Dispatcher)(nil)

// NewDispatcher returns a Dispatcher that snapshots with s and uploads with u.
func NewDispatcher(s Snapshotter, u Uploader, cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	d := &Dispatcher{
		snapshotter: s,
		uploader:    u,
		limiter:     rate.NewLimiter(limit, 1),
		timeout:     cfg.Timeout,
		tempDir:     cfg.TempDir,
		logger:      infrastructure.WithComponent(logger, "backup_dispatcher"),
	}

	// Instruments from the global provider follow a later SetMeterProvider.
	runs, err := otel.Meter(MeterName).Int64Counter(
		"trial_backups_total",
		metric.WithDescription("Total number of backup requests by outcome"),
	)
	if err == nil {
		d.runs = runs
	}

	return d
}

// RequestBackup starts a backup in the background. While one is running the
// request is folded into a single follow-up run; inside MinInterval it is
// deferred until the interval has elapsed.
func (d *Dispatcher) RequestBackup(ctx context.Context) {
	// The backup outlives the request that triggered it.
	bctx := context.WithoutCancel(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		d.markPending(bctx)
		d.record(ctx, "coalesced")
		d.logger.DebugContext(ctx, "Backup already in progress, request coalesced")
		return
	}

	if d.timer != nil {
		d.markPending(bctx)
		d.record(ctx, "throttled")
		d.logger.DebugContext(ctx, "Backup request throttled, already deferred")
		return
	}

	if delay := d.limiter.Reserve().Delay(); delay > 0 {
		d.markPending(bctx)
		d.timer = time.AfterFunc(delay, d.flushDeferred)
		d.record(ctx, "throttled")
		d.logger.DebugContext(ctx, "Backup request throttled, deferring",
			slog.Duration("delay", delay))
		return
	}

	d.start(bctx)
}

// Wait runs any deferred backup immediately, then blocks until no backup is
// running. It returns the first backup failure seen by this Dispatcher.
func (d *Dispatcher) Wait() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.pending && !d.running {
		d.pending = false
		d.start(d.pendingCtx)
	}
	d.mu.Unlock()

	return d.group.Wait()
}

// markPending and start are called with d.mu held.
func (d *Dispatcher) markPending(ctx context.Context) {
	d.pending = true
	d.pendingCtx = ctx
}

func (d *Dispatcher) start(ctx context.Context) {
	d.running = true
	d.logger.DebugContext(ctx, "Backup started")
	d.group.Go(func() error { return d.loop(ctx) })
}

func (d *Dispatcher) flushDeferred() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.timer = nil
	if !d.pending || d.running {
		return
	}
	d.pending = false
	d.start(d.pendingCtx)
}

// loop runs backups until no request is pending and returns the first failure.
func (d *Dispatcher) loop(ctx context.Context) error {
	var first error
	for {
		if err := d.run(ctx); err != nil && first == nil {
			first = err
		}

		d.mu.Lock()
		if !d.pending {
			d.running = false
			d.mu.Unlock()
			return first
		}
		d.pending = false
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		ctx = d.pendingCtx
		d.mu.Unlock()

		d.logger.DebugContext(ctx, "Running follow-up backup for coalesced requests")
	}
}

func (d *Dispatcher) run(ctx context.Context) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	err := d.snapshotAndUpload(ctx)
	if err != nil {
		d.record(ctx, "failed")
		d.logger.ErrorContext(ctx, "Backup failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return err
	}

	d.record(ctx, "uploaded")
	d.logger.InfoContext(ctx, "Backup uploaded",
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (d *Dispatcher) snapshotAndUpload(ctx context.Context) error {
	dir, err := os.MkdirTemp(d.tempDir, "trialguard-backup-*")
	if err != nil {
		return apperrors.NewBackupError("failed to create snapshot directory", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snapshot.db")
	if err := d.snapshotter.Snapshot(ctx, path); err != nil {
		return apperrors.NewBackupError("failed to snapshot store", err)
	}

	if err := d.uploader.Upload(ctx, path); err != nil {
		return apperrors.NewBackupError(fmt.Sprintf("failed to upload snapshot %s", filepath.Base(path)), err)
	}
	return nil
}

func (d *Dispatcher) record(ctx context.Context, outcome string) {
	if d.runs == nil {
		return
	}
	d.runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
