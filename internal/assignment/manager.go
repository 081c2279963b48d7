package assignment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrInvalidTransition is returned when an operation does not match the
	// assignment's current status. The assignment is left unchanged.
	ErrInvalidTransition = errors.New("invalid assignment transition")
	// ErrReassignInFlight is returned when reassigning an in-progress
	// assignment without the force flag, guarding against silently losing
	// a candidate's in-flight work.
	ErrReassignInFlight = errors.New("assignment is in progress; reassign requires force")
)

// Event describes one observed transition. Events are delivered to sinks
// synchronously, in transition order per assignment.
type Event struct {
	ApplicationID string
	EvaluationID  string
	From          Status
	To            Status
	Score         *float64
	Forced        bool
	At            time.Time
}

// Sink consumes transition events. The persistence collaborator is the
// primary sink; a ranking trigger can be another.
type Sink interface {
	AssignmentTransitioned(e Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event) error

func (f SinkFunc) AssignmentTransitioned(e Event) error { return f(e) }

// Manager applies lifecycle transitions to assignments. Transitions on the
// same (application, evaluation) pair are serialized with a keyed mutex so
// a candidate finishing and an evaluator reassigning cannot interleave.
type Manager struct {
	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	sinks  []Sink
	logger *zap.Logger
}

// NewManager builds a manager delivering events to the given sinks.
func NewManager(logger *zap.Logger, sinks ...Sink) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Manager{
		locks:  make(map[string]*sync.Mutex),
		sinks:  sinks,
		logger: logger,
	}
}

// AddSink registers an additional event consumer.
func (m *Manager) AddSink(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sinks = append(m.sinks, s)
}

// Begin moves a pending assignment to In Progress.
func (m *Manager) Begin(applicationID string, a *Assignment) error {
	lock := m.lockFor(applicationID, a.EvaluationID)
	lock.Lock()
	defer lock.Unlock()

	if a.Status != StatusPending {
		return fmt.Errorf("%w: begin from %q", ErrInvalidTransition, a.Status)
	}

	from := a.Status
	a.Status = StatusInProgress

	return m.emit(applicationID, a, from, false)
}

// Complete moves an in-progress assignment to Completed, attaching the
// score when the evaluation supports automated scoring. A nil score is the
// explicit absence used for human-graded evaluations.
func (m *Manager) Complete(applicationID string, a *Assignment, score *float64) error {
	lock := m.lockFor(applicationID, a.EvaluationID)
	lock.Lock()
	defer lock.Unlock()

	if a.Status != StatusInProgress {
		return fmt.Errorf("%w: complete from %q", ErrInvalidTransition, a.Status)
	}
	if score != nil && (*score < 0 || *score > 100) {
		return fmt.Errorf("score %.2f outside [0, 100]", *score)
	}

	from := a.Status
	a.Status = StatusCompleted
	a.Score = score

	return m.emit(applicationID, a, from, false)
}

// Reassign resets the assignment to Pending, clearing any score. An
// in-progress assignment is only reset when force is set.
func (m *Manager) Reassign(applicationID string, a *Assignment, force bool) error {
	lock := m.lockFor(applicationID, a.EvaluationID)
	lock.Lock()
	defer lock.Unlock()

	if a.Status == StatusInProgress && !force {
		return ErrReassignInFlight
	}

	from := a.Status
	a.Status = StatusPending
	a.Score = nil

	return m.emit(applicationID, a, from, force)
}

func (m *Manager) lockFor(applicationID, evaluationID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := applicationID + "/" + evaluationID
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

func (m *Manager) emit(applicationID string, a *Assignment, from Status, forced bool) error {
	e := Event{
		ApplicationID: applicationID,
		EvaluationID:  a.EvaluationID,
		From:          from,
		To:            a.Status,
		Score:         a.Score,
		Forced:        forced,
		At:            time.Now().UTC(),
	}

	m.logger.Info("assignment transition",
		zap.String("application_id", e.ApplicationID),
		zap.String("evaluation_id", e.EvaluationID),
		zap.String("from", string(e.From)),
		zap.String("to", string(e.To)),
		zap.Bool("forced", e.Forced),
	)

	m.mu.Lock()
	sinks := make([]Sink, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.AssignmentTransitioned(e); err != nil {
			return fmt.Errorf("delivering assignment event: %w", err)
		}
	}

	return nil
}
