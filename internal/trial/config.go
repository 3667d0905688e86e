package trial

import (
	"fmt"
	"time"

	apperrors "trialguard/internal/errors"
)

// Config is the construction-time configuration of a trial: an ordered list
// of sources and the trial length in days. It is immutable once built.
type Config struct {
	sources      []Source
	durationDays int
}

// NewConfig validates and captures the trial configuration.
func NewConfig(durationDays int, sources ...Source) (Config, error) {
	if durationDays < 0 {
		return Config{}, apperrors.NewValidationError(
			fmt.Sprintf("trial duration must not be negative, got %d days", durationDays), nil)
	}
	if len(sources) == 0 {
		return Config{}, apperrors.NewValidationError("at least one trial source is required", nil)
	}
	for i, s := range sources {
		if s == nil {
			return Config{}, apperrors.NewValidationError(
				fmt.Sprintf("trial source at position %d is nil", i), nil)
		}
	}

	return Config{
		sources:      append([]Source(nil), sources...),
		durationDays: durationDays,
	}, nil
}

// Sources returns a copy of the configured sources in order.
func (c Config) Sources() []Source {
	return append([]Source(nil), c.sources...)
}

// DurationDays returns the trial length in days.
func (c Config) DurationDays() int {
	return c.durationDays
}

// Duration returns the trial length.
func (c Config) Duration() time.Duration {
	return DaysToDuration(c.durationDays)
}
