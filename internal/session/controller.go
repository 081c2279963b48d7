package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/evaluation"
)

var (
	// ErrEmptyEvaluation is returned when starting a session over an
	// evaluation with no questions.
	ErrEmptyEvaluation = errors.New("evaluation has no questions")
	// ErrQuestionLocked is returned when recording an answer to a question
	// whose timer already expired.
	ErrQuestionLocked = errors.New("question is locked after timeout")
	// ErrIncompleteEvaluation is returned by Finish when the session is not
	// at the last question or the last question is neither answered nor
	// expired.
	ErrIncompleteEvaluation = errors.New("evaluation is not complete")
	// ErrSessionFinished is returned for operations on a finished session.
	ErrSessionFinished = errors.New("session is already finished")
	// ErrSessionNotStarted is returned for operations before Start.
	ErrSessionNotStarted = errors.New("session is not started")
)

// State is the controller lifecycle state.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
)

// Result is the output of a finished session.
type Result struct {
	Answers map[string]evaluation.Answer
	// ElapsedSeconds counts ticks consumed on timed questions. Untimed
	// questions contribute nothing.
	ElapsedSeconds int
}

// View is a read-only snapshot of the controller for the presentation
// collaborator.
type View struct {
	State            State
	Index            int
	QuestionID       string
	RemainingSeconds int
	Answered         bool
	Locked           bool
}

// Controller drives one candidate through the ordered question sequence of
// one evaluation. All methods are safe for concurrent use; the countdown
// runner and user navigation serialize on the same mutex, so a timer expiry
// and a manual advance can never both move the session forward.
type Controller struct {
	mu       sync.Mutex
	eval     *evaluation.Evaluation
	registry *evaluation.Registry
	logger   *zap.Logger

	state     State
	index     int
	remaining int
	elapsed   int
	answers   map[string]evaluation.Answer
	// locked marks questions whose countdown expired; late answers to
	// them are rejected and a revisit gets no fresh countdown.
	locked map[string]bool
	// flagged marks questions skipped because no handler recognized
	// their kind.
	flagged map[string]bool
	result  *Result
}

// NewController builds a controller for the given evaluation.
func NewController(eval *evaluation.Evaluation, registry *evaluation.Registry, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		eval:     eval,
		registry: registry,
		logger:   logger,
		state:    StateNotStarted,
		answers:  make(map[string]evaluation.Answer),
		locked:   make(map[string]bool),
		flagged:  make(map[string]bool),
	}
}

// Start moves the session to the first question and loads its countdown.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNotStarted {
		return fmt.Errorf("start: session is %s", c.state)
	}
	if c.eval.Len() == 0 {
		return ErrEmptyEvaluation
	}

	c.state = StateInProgress
	c.index = 0
	c.loadQuestion()
	c.skipFlaggedForward()

	c.logger.Info("session started",
		zap.String("evaluation_id", c.eval.ID),
		zap.Int("questions", c.eval.Len()),
	)

	return nil
}

// Tick consumes one second of the current question's countdown. Reaching
// zero locks the question and advances exactly once; the advance is
// indistinguishable from a manual one downstream. Ticks are no-ops for
// untimed questions and outside InProgress.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateInProgress || c.remaining <= 0 {
		return false
	}

	c.remaining--
	c.elapsed++

	if c.remaining > 0 {
		return false
	}

	q := &c.eval.Questions[c.index]
	c.locked[q.ID] = true
	c.logger.Info("question timed out",
		zap.String("evaluation_id", c.eval.ID),
		zap.String("question_id", q.ID),
		zap.Int("position", c.index),
	)
	c.advanceLocked()

	return true
}

// Advance moves forward one question. Advancing past the last question
// finishes the session.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireInProgress(); err != nil {
		return err
	}
	c.advanceLocked()

	return nil
}

// AdvanceFrom moves forward only when the session is still at the given
// position. A stale position means the countdown advanced first; the
// caller's action becomes a no-op, not an error.
func (c *Controller) AdvanceFrom(index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireInProgress(); err != nil {
		return false, err
	}
	if index != c.index {
		return false, nil
	}
	c.advanceLocked()

	return true, nil
}

// Retreat moves back one question, clamped at the first.
func (c *Controller) Retreat() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireInProgress(); err != nil {
		return err
	}
	if c.index == 0 {
		return nil
	}

	c.index--
	c.loadQuestion()
	for c.index > 0 && c.isFlaggedCurrent() {
		c.index--
		c.loadQuestion()
	}

	return nil
}

// RecordAnswer upserts the candidate's answer for the given question. The
// answer is validated through the question's handler. Answers to timed-out
// questions are rejected.
func (c *Controller) RecordAnswer(questionID string, a evaluation.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateFinished {
		return ErrSessionFinished
	}
	if c.state == StateNotStarted {
		return ErrSessionNotStarted
	}

	q := c.eval.QuestionByID(questionID)
	if q == nil {
		return fmt.Errorf("question %s not part of evaluation %s", questionID, c.eval.ID)
	}
	if c.locked[questionID] {
		return fmt.Errorf("%w: %s", ErrQuestionLocked, questionID)
	}

	if _, err := c.registry.Score(q, a); err != nil {
		return err
	}

	c.answers[questionID] = a

	return nil
}

// Finish completes the session. It is valid only at the last question when
// that question is answered or its timer has expired.
func (c *Controller) Finish() (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateFinished {
		return c.result, nil
	}
	if err := c.requireInProgress(); err != nil {
		return nil, err
	}

	last := c.eval.Len() - 1
	if c.index != last {
		return nil, fmt.Errorf("%w: at question %d of %d", ErrIncompleteEvaluation, c.index+1, c.eval.Len())
	}

	q := &c.eval.Questions[last]
	_, answered := c.answers[q.ID]
	expired := c.locked[q.ID] || (q.TimeLimit > 0 && c.remaining == 0)
	if !answered && !expired && !c.flagged[q.ID] {
		return nil, fmt.Errorf("%w: last question is unanswered and not expired", ErrIncompleteEvaluation)
	}

	c.finishLocked()

	return c.result, nil
}

// Result returns the session output once finished.
func (c *Controller) Result() (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateFinished {
		return nil, fmt.Errorf("session is %s, no result yet", c.state)
	}
	return c.result, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Snapshot returns the current position for rendering.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := View{State: c.state, Index: c.index}
	if c.state == StateInProgress {
		q := &c.eval.Questions[c.index]
		view.QuestionID = q.ID
		view.RemainingSeconds = c.remaining
		_, view.Answered = c.answers[q.ID]
		view.Locked = c.locked[q.ID]
	}

	return view
}

// CurrentShape returns the render shape of the current question.
func (c *Controller) CurrentShape() (*evaluation.Shape, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireInProgress(); err != nil {
		return nil, err
	}

	return c.registry.Shape(&c.eval.Questions[c.index])
}

// TimedOut reports whether the question's countdown expired.
func (c *Controller) TimedOut(questionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.locked[questionID]
}

// Flagged returns the identifiers of questions skipped because their kind
// was not recognized.
func (c *Controller) Flagged() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	flagged := make([]string, 0, len(c.flagged))
	for i := range c.eval.Questions {
		if c.flagged[c.eval.Questions[i].ID] {
			flagged = append(flagged, c.eval.Questions[i].ID)
		}
	}
	return flagged
}

func (c *Controller) requireInProgress() error {
	switch c.state {
	case StateInProgress:
		return nil
	case StateFinished:
		return ErrSessionFinished
	default:
		return ErrSessionNotStarted
	}
}

// advanceLocked moves one position forward, finishing the session when the
// sequence is exhausted. Callers must hold the mutex.
func (c *Controller) advanceLocked() {
	c.index++
	if c.index >= c.eval.Len() {
		c.finishLocked()
		return
	}

	c.loadQuestion()
	c.skipFlaggedForward()
}

// skipFlaggedForward skips questions with unrecognized kinds, flagging each
// one. An unrecognized kind is fatal for that question only: it is never
// scored, never defaulted to correct.
func (c *Controller) skipFlaggedForward() {
	for c.state == StateInProgress && c.isFlaggedCurrent() {
		c.index++
		if c.index >= c.eval.Len() {
			c.finishLocked()
			return
		}
		c.loadQuestion()
	}
}

func (c *Controller) isFlaggedCurrent() bool {
	q := &c.eval.Questions[c.index]
	if _, err := c.registry.Handler(q.Kind); err != nil {
		if !c.flagged[q.ID] {
			c.flagged[q.ID] = true
			c.logger.Warn("skipping question with unsupported kind",
				zap.String("evaluation_id", c.eval.ID),
				zap.String("question_id", q.ID),
				zap.String("kind", string(q.Kind)),
			)
		}
		return true
	}
	return false
}

// loadQuestion reloads the countdown for the question at the current index.
// A previously expired question gets no fresh countdown on revisit.
func (c *Controller) loadQuestion() {
	q := &c.eval.Questions[c.index]
	if c.locked[q.ID] {
		c.remaining = 0
		return
	}
	c.remaining = q.TimeLimit
}

func (c *Controller) finishLocked() {
	c.state = StateFinished

	answers := make(map[string]evaluation.Answer, len(c.answers))
	for id, a := range c.answers {
		answers[id] = a
	}
	c.result = &Result{Answers: answers, ElapsedSeconds: c.elapsed}

	c.logger.Info("session finished",
		zap.String("evaluation_id", c.eval.ID),
		zap.Int("answered", len(answers)),
		zap.Int("elapsed_seconds", c.elapsed),
	)
}
