package ai

import (
	"context"
)

// ProfileFitAnalysis is the structured output of the profile-fit service.
// The ranking aggregator consumes it read-only.
type ProfileFitAnalysis struct {
	// SuitabilityScore is a normalized 0-100 measure of candidate-job fit.
	SuitabilityScore     float64  `json:"suitability_score" mapstructure:"suitability_score"`
	SkillMatches         []string `json:"skill_matches" mapstructure:"skill_matches"`
	SkillGaps            []string `json:"skill_gaps" mapstructure:"skill_gaps"`
	Summary              string   `json:"summary" mapstructure:"summary"`
	Suggestions          []string `json:"suggestions" mapstructure:"suggestions"`
	RecommendedQuestions []string `json:"recommended_questions" mapstructure:"recommended_questions"`
}

// Analyzer produces a profile-fit analysis for a candidate against a job
// description, written in the requested output language. A failed analysis
// means the signal is absent; callers never treat it as fatal.
type Analyzer interface {
	Analyze(ctx context.Context, candidateProfile, jobDescription, outputLanguage string) (*ProfileFitAnalysis, error)
}
