package ranking

import (
	"fmt"
	"sort"

	"github.com/talentgate/talentgate/internal/store"
)

// Signal is one extracted contribution to a candidate's suitability. A nil
// Score marks a non-numeric signal: it never ranks a candidate on its own
// but still enriches the justification.
type Signal struct {
	Name        string
	Score       *float64
	Explanation string
}

// Source extracts one signal kind from an application. Returning nil means
// the signal is absent for that candidate, which is never an error.
type Source interface {
	Name() string
	Extract(app *store.Application) *Signal
}

type assessmentSource struct{}

// NewAssessmentSource extracts the mean of completed assignment scores.
func NewAssessmentSource() Source {
	return assessmentSource{}
}

func (assessmentSource) Name() string { return "assessments" }

func (assessmentSource) Extract(app *store.Application) *Signal {
	scores := app.CompletedScores()
	if len(scores) == 0 {
		return nil
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	return &Signal{
		Name:        "assessments",
		Score:       &mean,
		Explanation: fmt.Sprintf("based on assessment performance: average score %.1f across %d completed evaluations", mean, len(scores)),
	}
}

type profileFitSource struct {
	language string
}

// NewProfileFitSource extracts the AI profile-fit analysis, preferring the
// given output language and falling back to the lexicographically first
// available one so repeated runs read the same analysis.
func NewProfileFitSource(language string) Source {
	return profileFitSource{language: language}
}

func (profileFitSource) Name() string { return "profile_fit" }

func (s profileFitSource) Extract(app *store.Application) *Signal {
	if len(app.Analysis) == 0 {
		return nil
	}

	analysis, ok := app.Analysis[s.language]
	if !ok {
		languages := make([]string, 0, len(app.Analysis))
		for lang := range app.Analysis {
			languages = append(languages, lang)
		}
		sort.Strings(languages)
		analysis = app.Analysis[languages[0]]
	}

	score := analysis.SuitabilityScore
	explanation := analysis.Summary
	if explanation == "" {
		explanation = fmt.Sprintf("profile fit score %.0f", score)
	}

	return &Signal{
		Name:        "profile_fit",
		Score:       &score,
		Explanation: explanation,
	}
}

type feedbackSource struct{}

// NewFeedbackSource extracts the presence of interview feedback.
func NewFeedbackSource() Source {
	return feedbackSource{}
}

func (feedbackSource) Name() string { return "interview_feedback" }

func (feedbackSource) Extract(app *store.Application) *Signal {
	if app.InterviewFeedback == "" {
		return nil
	}

	return &Signal{
		Name:        "interview_feedback",
		Explanation: "interviewer feedback on record",
	}
}
