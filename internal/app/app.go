package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trialguard/internal/backup"
	"trialguard/internal/config"
	apperrors "trialguard/internal/errors"
	"trialguard/internal/infrastructure"
	"trialguard/internal/kv"
	"trialguard/internal/source"
	"trialguard/internal/trial"
	"trialguard/pkg/contracts/domain"
)

// Application wires the configured trial sources together and owns the
// resources behind them.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Trial         *trial.Trial

	clock      trial.Clock
	sources    []trial.Source
	store      kv.Store
	dispatcher *backup.Dispatcher
}

// Options carries dependencies that are not part of the configuration.
type Options struct {
	// Clock defaults to the system clock.
	Clock trial.Clock
}

// New builds every enabled source, reconciles the trial start across them
// and persists the result. Resources opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	clock := opts.Clock
	if clock == nil {
		clock = trial.SystemClock{}
	}

	ctx = infrastructure.EnsureTraceID(ctx)

	a := &Application{
		Config: cfg,
		Logger: logger,
		clock:  clock,
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = otelProviders

	metrics, err := trial.InitializeMetrics(otelProviders.Meter)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to initialize trial metrics: %w", err)
	}

	if err := a.initializeSources(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	trialCfg, err := trial.NewConfig(cfg.Trial.DurationDays, a.sources...)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Trial = trial.New(ctx, trialCfg, clock,
		trial.WithLogger(infrastructure.WithComponent(logger, "trial_reconciler")),
		trial.WithMetrics(metrics),
	)

	logger.InfoContext(ctx, "Trial initialized",
		slog.String("start", a.Trial.StartDate().String()),
		slog.Int("duration_days", cfg.Trial.DurationDays),
		slog.Bool("finished", a.Trial.IsFinishedNow()))

	return a, nil
}

// initializeSources builds the enabled sources in reconciliation order:
// install, preferences, file.
func (a *Application) initializeSources(ctx context.Context) error {
	cfg := a.Config.Sources
	withLogger := source.WithLogger(a.Logger)

	if cfg.Install.Enabled {
		a.sources = append(a.sources, source.NewInstallTimeSource(cfg.Install.Path, withLogger))
	}

	if cfg.Preferences.Enabled {
		prefs, err := a.initializePreferences(ctx, withLogger)
		if err != nil {
			return err
		}
		a.sources = append(a.sources, prefs)
	}

	if cfg.File.Enabled {
		a.sources = append(a.sources, source.NewFileSource(cfg.File.Path, withLogger))
	}

	names := make([]string, 0, len(a.sources))
	for _, s := range a.sources {
		names = append(names, s.Name())
	}
	a.Logger.DebugContext(ctx, "Trial sources configured", slog.Any("sources", names))

	return nil
}

func (a *Application) initializePreferences(ctx context.Context, withLogger source.Option) (*source.PreferencesSource, error) {
	cfg := a.Config.Sources.Preferences

	dsn := cfg.DatabasePath
	if cfg.Backend == "redis" {
		dsn = cfg.RedisURL
	}

	store, err := kv.Open(ctx, cfg.Backend, dsn)
	if err != nil {
		return nil, err
	}
	a.store = store

	prefsCfg := source.PreferencesConfig{
		Namespace: cfg.Namespace,
		Key:       cfg.Key,
	}

	if cfg.TriggerBackup && a.Config.Backup.Enabled {
		dispatcher, err := a.initializeBackup(store)
		if err != nil {
			return nil, err
		}
		a.dispatcher = dispatcher
		prefsCfg.Backup = dispatcher
	}

	return source.NewPreferencesSource(store, prefsCfg, withLogger), nil
}

func (a *Application) initializeBackup(store kv.Store) (*backup.Dispatcher, error) {
	snapshotter, ok := store.(backup.Snapshotter)
	if !ok {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("preferences backend %q does not support backups", a.Config.Sources.Preferences.Backend), nil)
	}

	cfg := a.Config.Backup
	uploader, err := backup.NewObjectStoreUploader(backup.ObjectStoreOptions{
		Endpoint:   cfg.Endpoint,
		AccessKey:  cfg.AccessKey,
		SecretKey:  cfg.SecretKey,
		Region:     cfg.Region,
		UseSSL:     cfg.UseSSL,
		Bucket:     cfg.Bucket,
		ObjectKey:  cfg.ObjectKey,
		MaxRetries: cfg.MaxRetries,
		Logger:     a.Logger,
	})
	if err != nil {
		return nil, err
	}

	return backup.NewDispatcher(snapshotter, uploader, backup.DispatcherConfig{
		MinInterval: cfg.MinInterval,
		Timeout:     cfg.Timeout,
		Logger:      a.Logger,
	}), nil
}

// Status reports the trial as of the application clock.
func (a *Application) Status() domain.TrialStatus {
	return a.Trial.Status(trial.FromTime(a.clock.Now()))
}

// Override sets the trial start to at and persists it to every source.
func (a *Application) Override(ctx context.Context, at time.Time) domain.TrialStatus {
	ctx = infrastructure.EnsureTraceID(ctx)
	a.Trial.UpdateStartDate(ctx, trial.FromTime(at))
	return a.Status()
}

// Close waits for a pending backup, then releases the store, writes the
// metrics file and shuts down telemetry. It is safe to call on a partially
// built Application.
func (a *Application) Close(ctx context.Context) error {
	var errs []error

	if a.dispatcher != nil {
		if err := a.dispatcher.Wait(); err != nil {
			// Already logged by the dispatcher; the trial itself is unaffected.
			a.Logger.WarnContext(ctx, "Backup did not complete", slog.String("error", err.Error()))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, apperrors.NewStorageError("failed to close preferences store", err))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.WriteMetrics(a.Config.Telemetry.MetricsFile); err != nil {
			errs = append(errs, err)
		}
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.Logger.ErrorContext(ctx, "Application shutdown incomplete", slog.String("error", err.Error()))
		return err
	}

	a.Logger.DebugContext(ctx, "Application shutdown complete")
	return nil
}
