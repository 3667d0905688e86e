package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"trialguard/internal/trial"
)

// FixedClock is a trial.Clock that always returns the same instant.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock returns a clock stopped at now.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// NewFixedClockAt returns a clock stopped at the given Timestamp.
func NewFixedClockAt(ts trial.Timestamp) *FixedClock {
	return NewFixedClock(ts.Time())
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// PersistCall records one Persist on a RecordingSource.
type PersistCall struct {
	Source string
	Value  trial.Timestamp
}

// CallLog collects Persist calls across several sources in call order.
type CallLog struct {
	mu    sync.Mutex
	calls []PersistCall
}

func (l *CallLog) add(c PersistCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

// Calls returns a copy of the recorded calls.
func (l *CallLog) Calls() []PersistCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]PersistCall(nil), l.calls...)
}

// RecordingSource is an in-memory trial.Source that remembers what was
// persisted to it. A read-only RecordingSource ignores Persist for storage
// but still records the call.
type RecordingSource struct {
	mu       sync.Mutex
	name     string
	value    trial.Timestamp
	ok       bool
	readOnly bool
	reads    int
	persists []trial.Timestamp
	log      *CallLog
}

// NewRecordingSource returns a source with no stored value.
func NewRecordingSource(name string) *RecordingSource {
	return &RecordingSource{name: name, value: trial.Unavailable}
}

// WithValue stores ts as the current value.
func (s *RecordingSource) WithValue(ts trial.Timestamp) *RecordingSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.ok = ts, true
	return s
}

// ReadOnly makes Persist leave the stored value untouched.
func (s *RecordingSource) ReadOnly() *RecordingSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = true
	return s
}

// LogTo appends every Persist call to log.
func (s *RecordingSource) LogTo(log *CallLog) *RecordingSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = log
	return s
}

func (s *RecordingSource) Name() string { return s.name }

func (s *RecordingSource) Read(context.Context) (trial.Timestamp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.value, s.ok
}

func (s *RecordingSource) Persist(_ context.Context, ts trial.Timestamp) {
	s.mu.Lock()
	s.persists = append(s.persists, ts)
	if !s.readOnly {
		s.value, s.ok = ts, true
	}
	log := s.log
	s.mu.Unlock()

	if log != nil {
		log.add(PersistCall{Source: s.name, Value: ts})
	}
}

// Value returns the stored value and whether one is set.
func (s *RecordingSource) Value() (trial.Timestamp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.ok
}

// Reads returns how many times Read was called.
func (s *RecordingSource) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Persists returns every value passed to Persist, in order.
func (s *RecordingSource) Persists() []trial.Timestamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]trial.Timestamp(nil), s.persists...)
}

// MockSource is a testify mock for trial.Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSource) Read(ctx context.Context) (trial.Timestamp, bool) {
	args := m.Called(ctx)
	return args.Get(0).(trial.Timestamp), args.Bool(1)
}

func (m *MockSource) Persist(ctx context.Context, ts trial.Timestamp) {
	m.Called(ctx, ts)
}

// MockBackupRequester is a testify mock for backup.Requester
type MockBackupRequester struct {
	mock.Mock
}

func (m *MockBackupRequester) RequestBackup(ctx context.Context) {
	m.Called(ctx)
}
