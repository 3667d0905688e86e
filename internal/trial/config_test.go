package trial_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trialguard/internal/errors"
	"trialguard/internal/shared/testutil"
	"trialguard/internal/trial"
)

func TestNewConfig(t *testing.T) {
	a := testutil.NewRecordingSource("a")
	b := testutil.NewRecordingSource("b")

	t.Run("valid configuration", func(t *testing.T) {
		cfg, err := trial.NewConfig(14, a, b)
		require.NoError(t, err)

		assert.Equal(t, 14, cfg.DurationDays())
		assert.Equal(t, 14*24*time.Hour, cfg.Duration())
		assert.Equal(t, []trial.Source{a, b}, cfg.Sources())
	})

	t.Run("zero duration is allowed", func(t *testing.T) {
		cfg, err := trial.NewConfig(0, a)
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), cfg.Duration())
	})

	t.Run("sources are copied", func(t *testing.T) {
		sources := []trial.Source{a, b}
		cfg, err := trial.NewConfig(1, sources...)
		require.NoError(t, err)

		sources[0] = b
		got := cfg.Sources()
		got[1] = a

		assert.Equal(t, []trial.Source{a, b}, cfg.Sources())
	})

	errorCases := []struct {
		name    string
		days    int
		sources []trial.Source
		wantMsg string
	}{
		{"negative duration", -1, []trial.Source{a}, "must not be negative"},
		{"no sources", 14, nil, "at least one trial source"},
		{"nil source", 14, []trial.Source{a, nil}, "position 1 is nil"},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := trial.NewConfig(tc.days, tc.sources...)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}
