// Package domain contains the data contracts shared between trialguard and
// host applications.
package domain

import (
	"time"
)

// TrialStatus is a point-in-time view of a trial.
type TrialStatus struct {
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	DurationDays int       `json:"duration_days"`
	DaysLeft     int       `json:"days_left"`
	Finished     bool      `json:"finished"`
	CheckedAt    time.Time `json:"checked_at"`
}

// State returns "finished" or "active".
func (s TrialStatus) State() TrialState {
	if s.Finished {
		return TrialStateFinished
	}
	return TrialStateActive
}

// TrialState is the coarse state of a trial.
type TrialState string

const (
	TrialStateActive   TrialState = "active"
	TrialStateFinished TrialState = "finished"
)
