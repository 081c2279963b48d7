package evaluation

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedQuestionType is returned when a question carries a kind tag
// no registered handler recognizes. Callers must treat the question as
// flagged, never as silently correct.
var ErrUnsupportedQuestionType = errors.New("unsupported question type")

// Shape is the render/interaction contract handed to the presentation
// collaborator. Correctness flags are deliberately not part of it.
type Shape struct {
	Kind      QuestionKind
	Prompt    string
	TimeLimit int
	// Choices holds selectable items: options for multiple choice,
	// trait statements for forced choice. Empty for open-ended items.
	Choices []Choice
	// PairSelection is set for forced-choice items, where the candidate
	// must pick a (most-like, least-like) pair instead of one choice.
	PairSelection bool
	// FreeForm is set for open-ended items.
	FreeForm bool
}

// Choice is one selectable item in a question shape.
type Choice struct {
	ID   string
	Text string
}

// Outcome is the scoring result for a single answered question.
type Outcome struct {
	// Automated reports whether the handler produced a machine verdict.
	// Forced-choice and open-ended items never do: ipsative instruments
	// have no correct answer and free text needs a human grader.
	Automated bool
	// Correct is meaningful only when Automated is set.
	Correct bool
}

// Handler defines the structural shape and scoring contract for one
// question kind.
type Handler interface {
	Kind() QuestionKind
	Shape(q *Question) (*Shape, error)
	Score(q *Question, a Answer) (*Outcome, error)
}

// Registry resolves question kinds to their handlers. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	handlers map[QuestionKind]Handler
}

// NewRegistry returns a registry with the three built-in question kinds.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[QuestionKind]Handler)}
	for _, h := range []Handler{
		forcedChoiceHandler{},
		multipleChoiceHandler{},
		openEndedHandler{},
	} {
		r.handlers[h.Kind()] = h
	}
	return r
}

// Handler returns the handler for the given kind.
func (r *Registry) Handler(kind QuestionKind) (Handler, error) {
	h, ok := r.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedQuestionType, kind)
	}
	return h, nil
}

// Shape resolves the question's handler and returns its render shape.
func (r *Registry) Shape(q *Question) (*Shape, error) {
	h, err := r.Handler(q.Kind)
	if err != nil {
		return nil, err
	}
	return h.Shape(q)
}

// Score resolves the question's handler and scores the answer.
func (r *Registry) Score(q *Question, a Answer) (*Outcome, error) {
	h, err := r.Handler(q.Kind)
	if err != nil {
		return nil, err
	}
	return h.Score(q, a)
}

// ScoreEvaluation computes the automated evaluation score on a 0-100 scale
// from the recorded answers. The score covers multiple-choice questions
// only; an unanswered question counts as wrong. When the evaluation has no
// automatically scorable questions the result is nil, not zero: absence of
// a score is explicit.
func (r *Registry) ScoreEvaluation(e *Evaluation, answers map[string]Answer) (*float64, error) {
	scorable := 0
	correct := 0

	for i := range e.Questions {
		q := &e.Questions[i]
		h, err := r.Handler(q.Kind)
		if err != nil {
			return nil, err
		}
		if q.Kind != KindMultipleChoice {
			continue
		}
		scorable++

		a, ok := answers[q.ID]
		if !ok {
			continue
		}
		outcome, err := h.Score(q, a)
		if err != nil {
			return nil, err
		}
		if outcome.Automated && outcome.Correct {
			correct++
		}
	}

	if scorable == 0 {
		return nil, nil
	}

	score := math.Round(float64(correct)/float64(scorable)*10000) / 100
	return &score, nil
}

type forcedChoiceHandler struct{}

func (forcedChoiceHandler) Kind() QuestionKind { return KindForcedChoice }

func (forcedChoiceHandler) Shape(q *Question) (*Shape, error) {
	if len(q.Traits) < 2 {
		return nil, fmt.Errorf("forced-choice question %s needs at least two trait statements", q.ID)
	}

	choices := make([]Choice, 0, len(q.Traits))
	for _, t := range q.Traits {
		choices = append(choices, Choice{ID: t.ID, Text: t.Text})
	}

	return &Shape{
		Kind:          KindForcedChoice,
		Prompt:        q.Text,
		TimeLimit:     q.TimeLimit,
		Choices:       choices,
		PairSelection: true,
	}, nil
}

func (forcedChoiceHandler) Score(q *Question, a Answer) (*Outcome, error) {
	if a.MostLikeID == "" || a.LeastLikeID == "" {
		return nil, fmt.Errorf("forced-choice question %s requires a most/least pair", q.ID)
	}
	if a.MostLikeID == a.LeastLikeID {
		return nil, fmt.Errorf("forced-choice question %s: most and least statements must differ", q.ID)
	}
	for _, id := range []string{a.MostLikeID, a.LeastLikeID} {
		if !hasTrait(q, id) {
			return nil, fmt.Errorf("forced-choice question %s: unknown statement %s", q.ID, id)
		}
	}

	// Ipsative items rank traits against each other; no machine verdict.
	return &Outcome{Automated: false}, nil
}

func hasTrait(q *Question, id string) bool {
	for _, t := range q.Traits {
		if t.ID == id {
			return true
		}
	}
	return false
}

type multipleChoiceHandler struct{}

func (multipleChoiceHandler) Kind() QuestionKind { return KindMultipleChoice }

func (multipleChoiceHandler) Shape(q *Question) (*Shape, error) {
	if err := validateOptions(q); err != nil {
		return nil, err
	}

	choices := make([]Choice, 0, len(q.Options))
	for _, o := range q.Options {
		choices = append(choices, Choice{ID: o.ID, Text: o.Text})
	}

	return &Shape{
		Kind:      KindMultipleChoice,
		Prompt:    q.Text,
		TimeLimit: q.TimeLimit,
		Choices:   choices,
	}, nil
}

func (multipleChoiceHandler) Score(q *Question, a Answer) (*Outcome, error) {
	if err := validateOptions(q); err != nil {
		return nil, err
	}
	if a.OptionID == "" {
		return nil, fmt.Errorf("multiple-choice question %s requires a selected option", q.ID)
	}

	for _, o := range q.Options {
		if o.ID == a.OptionID {
			return &Outcome{Automated: true, Correct: o.Correct}, nil
		}
	}

	return nil, fmt.Errorf("multiple-choice question %s: unknown option %s", q.ID, a.OptionID)
}

func validateOptions(q *Question) error {
	if len(q.Options) < 2 {
		return fmt.Errorf("multiple-choice question %s needs at least two options", q.ID)
	}

	correct := 0
	for _, o := range q.Options {
		if o.Correct {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("multiple-choice question %s must mark exactly one option correct, got %d", q.ID, correct)
	}

	return nil
}

type openEndedHandler struct{}

func (openEndedHandler) Kind() QuestionKind { return KindOpenEnded }

func (openEndedHandler) Shape(q *Question) (*Shape, error) {
	return &Shape{
		Kind:      KindOpenEnded,
		Prompt:    q.Text,
		TimeLimit: q.TimeLimit,
		FreeForm:  true,
	}, nil
}

func (openEndedHandler) Score(q *Question, a Answer) (*Outcome, error) {
	if a.Text == "" {
		return nil, fmt.Errorf("open-ended question %s requires a text response", q.ID)
	}

	return &Outcome{Automated: false}, nil
}
