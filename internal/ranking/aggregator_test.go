package ranking

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/talentgate/talentgate/internal/ai"
	"github.com/talentgate/talentgate/internal/assignment"
	"github.com/talentgate/talentgate/internal/store"
)

func floatPtr(v float64) *float64 { return &v }

func appliedAt(day int) time.Time {
	return time.Date(2026, 4, day, 0, 0, 0, 0, time.UTC)
}

func appWithAssessment(id, candidateID string, day int, scores ...float64) *store.Application {
	app := &store.Application{
		ID:          id,
		JobID:       "job-1",
		CandidateID: candidateID,
		AppliedAt:   appliedAt(day),
	}
	for i, s := range scores {
		app.Assignments = append(app.Assignments, assignment.Assignment{
			EvaluationID: "eval-" + string(rune('a'+i)),
			Status:       assignment.StatusCompleted,
			Score:        floatPtr(s),
		})
	}
	return app
}

func TestRankExcludesCandidatesWithoutNumericSignals(t *testing.T) {
	g := NewAggregator("English", nil)

	apps := []*store.Application{
		appWithAssessment("app-a", "cand-a", 1, 85),
		appWithAssessment("app-b", "cand-b", 2, 95),
		{
			// No completed scores, no analysis: excluded, not ranked last.
			ID:          "app-c",
			JobID:       "job-1",
			CandidateID: "cand-c",
			AppliedAt:   appliedAt(3),
			Assignments: []assignment.Assignment{
				{EvaluationID: "eval-a", Status: assignment.StatusInProgress},
			},
		},
	}

	ranked := g.Rank(apps)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].CandidateID != "cand-b" || ranked[0].Rank != 1 {
		t.Fatalf("expected cand-b first, got %+v", ranked[0])
	}
	if ranked[1].CandidateID != "cand-a" || ranked[1].Rank != 2 {
		t.Fatalf("expected cand-a second, got %+v", ranked[1])
	}
	if ranked[0].SuitabilityScore != 95 {
		t.Fatalf("expected a single-signal composite of 95, got %v", ranked[0].SuitabilityScore)
	}
}

func TestRankAveragesProfileFitAndAssessments(t *testing.T) {
	g := NewAggregator("English", nil)

	app := appWithAssessment("app-a", "cand-a", 1, 70, 90)
	app.Analysis = map[string]ai.ProfileFitAnalysis{
		"English": {SuitabilityScore: 90, Summary: "Strong match for the stack"},
	}

	ranked := g.Rank([]*store.Application{app})
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked candidate, got %d", len(ranked))
	}

	// Assessment mean 80, profile fit 90, equal weight.
	if ranked[0].SuitabilityScore != 85 {
		t.Fatalf("expected composite 85, got %v", ranked[0].SuitabilityScore)
	}

	// The strongest signal carries the justification.
	if ranked[0].Justification != "Strong match for the stack" {
		t.Fatalf("unexpected justification: %q", ranked[0].Justification)
	}
}

func TestRankTieBreaks(t *testing.T) {
	g := NewAggregator("English", nil)

	// Same score, later application first in the input.
	later := appWithAssessment("app-later", "cand-x", 5, 80)
	earlier := appWithAssessment("app-earlier", "cand-y", 1, 80)
	sameDay := appWithAssessment("app-same", "cand-a", 5, 80)

	ranked := g.Rank([]*store.Application{later, earlier, sameDay})
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].ApplicationID != "app-earlier" {
		t.Fatalf("expected the earlier application first, got %s", ranked[0].ApplicationID)
	}
	// Equal score and date: the lower candidate id wins.
	if ranked[1].CandidateID != "cand-a" || ranked[2].CandidateID != "cand-x" {
		t.Fatalf("expected candidate id order, got %s, %s", ranked[1].CandidateID, ranked[2].CandidateID)
	}
}

func TestRankIsIdempotent(t *testing.T) {
	g := NewAggregator("English", nil)

	apps := []*store.Application{
		appWithAssessment("app-a", "cand-a", 1, 62, 88),
		appWithAssessment("app-b", "cand-b", 2, 75),
		appWithAssessment("app-c", "cand-c", 3, 75),
	}
	apps[1].InterviewFeedback = "great communicator"

	first := g.Rank(apps)
	second := g.Rank(apps)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical rankings for identical input:\n%+v\n%+v", first, second)
	}
}

func TestFeedbackNeverRanksAloneButEnrichesJustification(t *testing.T) {
	g := NewAggregator("English", nil)

	feedbackOnly := &store.Application{
		ID:                "app-f",
		JobID:             "job-1",
		CandidateID:       "cand-f",
		AppliedAt:         appliedAt(1),
		InterviewFeedback: "thoughtful answers",
	}
	scored := appWithAssessment("app-s", "cand-s", 2, 90)
	scored.InterviewFeedback = "thoughtful answers"

	ranked := g.Rank([]*store.Application{feedbackOnly, scored})
	if len(ranked) != 1 {
		t.Fatalf("feedback alone must not rank a candidate, got %d entries", len(ranked))
	}
	if !strings.Contains(ranked[0].Justification, "interviewer feedback on record") {
		t.Fatalf("expected the justification to mention feedback: %q", ranked[0].Justification)
	}
}

func TestProfileFitLanguageFallback(t *testing.T) {
	source := NewProfileFitSource("English")

	app := &store.Application{
		ID: "app-a",
		Analysis: map[string]ai.ProfileFitAnalysis{
			"Spanish": {SuitabilityScore: 40, Summary: "resumen"},
			"German":  {SuitabilityScore: 60, Summary: "zusammenfassung"},
		},
	}

	signal := source.Extract(app)
	if signal == nil {
		t.Fatalf("expected a signal from the fallback analysis")
	}
	// The lexicographically first language keeps repeated runs stable.
	if *signal.Score != 60 || signal.Explanation != "zusammenfassung" {
		t.Fatalf("expected the German analysis, got %+v", signal)
	}
}

func TestRankByJob(t *testing.T) {
	m := store.NewMemory()
	m.PutJob(&store.Job{ID: "job-1", Title: "Backend Engineer"})
	m.PutJob(&store.Job{ID: "job-2", Title: "Data Engineer"})

	a := appWithAssessment("app-a", "cand-a", 1, 80)
	m.PutApplication(a)
	b := appWithAssessment("app-b", "cand-b", 2, 90)
	b.JobID = "job-2"
	m.PutApplication(b)

	g := NewAggregator("English", nil)
	results, err := g.RankByJob(context.Background(), m, []string{"job-1", "job-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for 2 jobs, got %d", len(results))
	}
	if len(results["job-1"]) != 1 || results["job-1"][0].CandidateID != "cand-a" {
		t.Fatalf("unexpected job-1 ranking: %+v", results["job-1"])
	}
	if len(results["job-2"]) != 1 || results["job-2"][0].CandidateID != "cand-b" {
		t.Fatalf("unexpected job-2 ranking: %+v", results["job-2"])
	}
}

func TestRecomputerDeliversFreshRankings(t *testing.T) {
	m := store.NewMemory()
	m.PutJob(&store.Job{ID: "job-1", Title: "Backend Engineer"})
	m.PutApplication(appWithAssessment("app-a", "cand-a", 1, 70))

	var gotJob string
	var gotRanked []RankedCandidate
	r := NewRecomputer(m, NewAggregator("English", nil), nil, func(jobID string, ranked []RankedCandidate) {
		gotJob = jobID
		gotRanked = ranked
	})

	err := r.AssignmentTransitioned(assignment.Event{
		ApplicationID: "app-a",
		EvaluationID:  "eval-a",
		From:          assignment.StatusInProgress,
		To:            assignment.StatusCompleted,
		Score:         floatPtr(70),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotJob != "job-1" {
		t.Fatalf("expected a re-rank for job-1, got %q", gotJob)
	}
	if len(gotRanked) != 1 || gotRanked[0].CandidateID != "cand-a" {
		t.Fatalf("unexpected ranking: %+v", gotRanked)
	}

	if err := r.AssignmentTransitioned(assignment.Event{ApplicationID: "missing"}); err == nil {
		t.Fatalf("expected an error for an unknown application")
	}
}
