package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/evaluation"
)

// Session is one candidate's live run through one evaluation. The timer
// goroutine's lifetime is tied to the session: closing the session cancels
// the countdown.
type Session struct {
	ID           string
	CandidateID  string
	EvaluationID string
	Controller   *Controller

	cancel context.CancelFunc
}

// Manager owns the active sessions, keyed by session id. It enforces one
// session per (candidate, evaluation) pair; concurrent candidates share
// only the immutable registry and evaluation definitions.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	byPair    map[string]string
	registry  *evaluation.Registry
	logger    *zap.Logger
	interval  time.Duration
	runTimers bool
}

// NewManager builds a session manager. When interval is zero the default
// one-second tick is used. Timers can be disabled for callers that drive
// Tick themselves.
func NewManager(registry *evaluation.Registry, logger *zap.Logger, interval time.Duration, runTimers bool) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	return &Manager{
		sessions:  make(map[string]*Session),
		byPair:    make(map[string]string),
		registry:  registry,
		logger:    logger,
		interval:  interval,
		runTimers: runTimers,
	}
}

// Open starts a new session for the candidate over the evaluation and, when
// timers are enabled, launches its countdown runner.
func (m *Manager) Open(ctx context.Context, candidateID string, eval *evaluation.Evaluation) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair := pairKey(candidateID, eval.ID)
	if existing, ok := m.byPair[pair]; ok {
		return nil, fmt.Errorf("candidate %s already has session %s for evaluation %s", candidateID, existing, eval.ID)
	}

	controller := NewController(eval, m.registry, m.logger.With(
		zap.String("candidate_id", candidateID),
		zap.String("evaluation_id", eval.ID),
	))
	if err := controller.Start(); err != nil {
		return nil, err
	}

	timerCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:           uuid.NewString(),
		CandidateID:  candidateID,
		EvaluationID: eval.ID,
		Controller:   controller,
		cancel:       cancel,
	}

	m.sessions[s.ID] = s
	m.byPair[pair] = s.ID

	if m.runTimers {
		go RunTimer(timerCtx, controller, m.interval)
	}

	m.logger.Info("session opened",
		zap.String("session_id", s.ID),
		zap.String("candidate_id", candidateID),
		zap.String("evaluation_id", eval.ID),
	)

	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return s, nil
}

// Close cancels the session's timer and removes it from the arena. Closing
// an unknown session is a no-op.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return
	}

	s.cancel()
	delete(m.sessions, id)
	delete(m.byPair, pairKey(s.CandidateID, s.EvaluationID))

	m.logger.Info("session closed", zap.String("session_id", id))
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

func pairKey(candidateID, evaluationID string) string {
	return candidateID + "/" + evaluationID
}
