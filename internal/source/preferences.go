package source

import (
	"context"
	"log/slog"

	"trialguard/internal/backup"
	"trialguard/internal/kv"
	"trialguard/internal/trial"
)

const (
	// PreferencesName is the name PreferencesSource reports to the reconciler.
	PreferencesName = "preferences"

	DefaultNamespace = "simple_trial"
	DefaultKey       = "trial_start"
)

// PreferencesConfig selects where in the store the timestamp lives.
type PreferencesConfig struct {
	Namespace string
	Key       string
	// Backup, when non-nil, is asked for a backup after every successful write.
	Backup backup.Requester
}

// PreferencesSource keeps the trial start in a namespaced key-value store.
type PreferencesSource struct {
	store  kv.Store
	cfg    PreferencesConfig
	logger *slog.Logger
}

var _ trial.Source = (*PreferencesSource)(nil)

// NewPreferencesSource returns a source over store. Empty Namespace and Key
// fall back to DefaultNamespace and DefaultKey.
func NewPreferencesSource(store kv.Store, cfg PreferencesConfig, opts ...Option) *PreferencesSource {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	o := buildOptions("preferences_source", opts)
	return &PreferencesSource{
		store: store,
		cfg:   cfg,
		logger: o.logger.With(
			slog.String("namespace", cfg.Namespace),
			slog.String("key", cfg.Key)),
	}
}

func (p *PreferencesSource) Name() string { return PreferencesName }

func (p *PreferencesSource) Read(ctx context.Context) (trial.Timestamp, bool) {
	v, ok, err := p.store.Get(ctx, p.cfg.Namespace, p.cfg.Key)
	if err != nil {
		p.logger.WarnContext(ctx, "Failed to read trial start preference", slog.String("error", err.Error()))
		return trial.Unavailable, false
	}
	ts := trial.Timestamp(v)
	if !ok || !ts.Valid() {
		return trial.Unavailable, false
	}
	return ts, true
}

func (p *PreferencesSource) Persist(ctx context.Context, ts trial.Timestamp) {
	if err := p.store.Set(ctx, p.cfg.Namespace, p.cfg.Key, int64(ts)); err != nil {
		p.logger.WarnContext(ctx, "Failed to persist trial start preference",
			slog.String("error", err.Error()),
			slog.Int64("value", int64(ts)))
		return
	}

	if p.cfg.Backup != nil {
		p.cfg.Backup.RequestBackup(ctx)
	}
}
