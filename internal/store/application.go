package store

import (
	"time"

	"github.com/talentgate/talentgate/internal/ai"
	"github.com/talentgate/talentgate/internal/assignment"
)

// Job is a job posting candidates apply to.
type Job struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Application is one candidate's application to one job. It owns the
// candidate's assignments, the optional profile-fit analyses keyed by
// output language, and optional interview feedback.
type Application struct {
	ID                string                           `json:"id"`
	JobID             string                           `json:"job_id"`
	CandidateID       string                           `json:"candidate_id"`
	CandidateName     string                           `json:"candidate_name,omitempty"`
	AppliedAt         time.Time                        `json:"applied_at"`
	Profile           string                           `json:"profile,omitempty"`
	InterviewFeedback string                           `json:"interview_feedback,omitempty"`
	Analysis          map[string]ai.ProfileFitAnalysis `json:"analysis,omitempty"`
	Assignments       []assignment.Assignment          `json:"assigned_evaluations,omitempty"`
}

// AssignmentFor returns the assignment for the given evaluation, or nil.
func (a *Application) AssignmentFor(evaluationID string) *assignment.Assignment {
	for i := range a.Assignments {
		if a.Assignments[i].EvaluationID == evaluationID {
			return &a.Assignments[i]
		}
	}
	return nil
}

// CompletedScores returns the scores of completed assignments that carry
// one. Human-graded evaluations complete without a score and are skipped.
func (a *Application) CompletedScores() []float64 {
	scores := make([]float64, 0, len(a.Assignments))
	for i := range a.Assignments {
		asn := &a.Assignments[i]
		if asn.Completed() && asn.Score != nil {
			scores = append(scores, *asn.Score)
		}
	}
	return scores
}

// Clone returns a deep copy of the application.
func (a *Application) Clone() *Application {
	clone := *a

	if a.Analysis != nil {
		clone.Analysis = make(map[string]ai.ProfileFitAnalysis, len(a.Analysis))
		for lang, analysis := range a.Analysis {
			copied := analysis
			copied.SkillMatches = append([]string(nil), analysis.SkillMatches...)
			copied.SkillGaps = append([]string(nil), analysis.SkillGaps...)
			copied.Suggestions = append([]string(nil), analysis.Suggestions...)
			copied.RecommendedQuestions = append([]string(nil), analysis.RecommendedQuestions...)
			clone.Analysis[lang] = copied
		}
	}

	if a.Assignments != nil {
		clone.Assignments = make([]assignment.Assignment, len(a.Assignments))
		for i, asn := range a.Assignments {
			copied := asn
			if asn.Score != nil {
				score := *asn.Score
				copied.Score = &score
			}
			clone.Assignments[i] = copied
		}
	}

	return &clone
}
