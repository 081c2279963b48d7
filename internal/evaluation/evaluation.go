package evaluation

import (
	"fmt"
)

// Category classifies an evaluation by what it measures.
type Category string

const (
	CategoryPsychometric Category = "psychometric"
	CategoryTechnical    Category = "technical"
	CategoryLanguage     Category = "language"
)

// QuestionKind tags the structural variant of a question.
type QuestionKind string

const (
	// KindForcedChoice is an ipsative trait inventory item: the candidate
	// picks a (most-like, least-like) pair from a set of statements. There
	// is no correct answer.
	KindForcedChoice QuestionKind = "forced_choice"
	// KindMultipleChoice is a single-answer item with exactly one option
	// marked correct.
	KindMultipleChoice QuestionKind = "multiple_choice"
	// KindOpenEnded is a free text or code response. The reference answer
	// exists for human grading only.
	KindOpenEnded QuestionKind = "open_ended"
)

// Evaluation is an immutable test definition. It is created by catalog load
// and never mutated at runtime; many assignments reference one evaluation.
type Evaluation struct {
	ID              string     `mapstructure:"id"`
	Name            string     `mapstructure:"name"`
	Category        Category   `mapstructure:"category"`
	DurationMinutes int        `mapstructure:"duration-minutes"`
	Questions       []Question `mapstructure:"questions"`
}

// Question is a tagged variant. Only the fields matching Kind are populated.
type Question struct {
	ID   string       `mapstructure:"id"`
	Kind QuestionKind `mapstructure:"kind"`
	Text string       `mapstructure:"text"`
	// TimeLimit is the countdown for this question in seconds.
	// Zero means the question is untimed.
	TimeLimit int `mapstructure:"time-limit"`

	// Traits is the statement set for forced-choice items.
	Traits []TraitStatement `mapstructure:"traits"`
	// Options is the choice set for multiple-choice items.
	Options []Option `mapstructure:"options"`
	// ReferenceAnswer is the grader-facing model answer for open-ended items.
	ReferenceAnswer string `mapstructure:"reference-answer"`
}

// TraitStatement is one statement in a forced-choice inventory item.
type TraitStatement struct {
	ID        string `mapstructure:"id"`
	Text      string `mapstructure:"text"`
	Dimension string `mapstructure:"dimension"`
}

// Option is one choice in a multiple-choice item.
type Option struct {
	ID      string `mapstructure:"id"`
	Text    string `mapstructure:"text"`
	Correct bool   `mapstructure:"correct"`
}

// Answer is a recorded response to one question. Like Question it is a
// variant: the controller stores whatever the candidate submitted and the
// registry interprets it per kind.
type Answer struct {
	// OptionID is the selected option for multiple-choice items.
	OptionID string `json:"option_id,omitempty"`
	// MostLikeID and LeastLikeID form the forced-choice pair.
	MostLikeID  string `json:"most_like_id,omitempty"`
	LeastLikeID string `json:"least_like_id,omitempty"`
	// Text is the free-form response for open-ended items.
	Text string `json:"text,omitempty"`
}

// Len returns the number of questions in the evaluation.
func (e *Evaluation) Len() int {
	return len(e.Questions)
}

// QuestionAt returns the question at the given 0-based position.
func (e *Evaluation) QuestionAt(i int) (*Question, error) {
	if i < 0 || i >= len(e.Questions) {
		return nil, fmt.Errorf("question index %d out of range [0, %d)", i, len(e.Questions))
	}
	return &e.Questions[i], nil
}

// QuestionByID returns the question with the given identifier, or nil.
func (e *Evaluation) QuestionByID(id string) *Question {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i]
		}
	}
	return nil
}

// Validate checks the evaluation invariants: a non-empty identifier and
// unique question identifiers within the ordered sequence.
func (e *Evaluation) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("evaluation id is required")
	}

	seen := make(map[string]struct{}, len(e.Questions))
	for i := range e.Questions {
		q := &e.Questions[i]
		if q.ID == "" {
			return fmt.Errorf("evaluation %s: question at position %d has no id", e.ID, i)
		}
		if _, ok := seen[q.ID]; ok {
			return fmt.Errorf("evaluation %s: duplicate question id %s", e.ID, q.ID)
		}
		seen[q.ID] = struct{}{}
	}

	return nil
}
