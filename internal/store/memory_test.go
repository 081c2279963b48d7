package store

import (
	"testing"
	"time"

	"github.com/talentgate/talentgate/internal/ai"
	"github.com/talentgate/talentgate/internal/assignment"
)

func floatPtr(v float64) *float64 { return &v }

func seedStore() *Memory {
	m := NewMemory()
	m.PutJob(&Job{ID: "job-1", Title: "Backend Engineer", Description: "Go services"})
	m.PutJob(&Job{ID: "job-2", Title: "Data Engineer", Description: "Pipelines"})
	m.PutApplication(&Application{
		ID:          "app-2",
		JobID:       "job-1",
		CandidateID: "cand-2",
		AppliedAt:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	m.PutApplication(&Application{
		ID:          "app-1",
		JobID:       "job-1",
		CandidateID: "cand-1",
		AppliedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Assignments: []assignment.Assignment{
			{EvaluationID: "eval-1", Status: assignment.StatusCompleted, Score: floatPtr(80)},
		},
	})
	return m
}

func TestReadsReturnDeepCopies(t *testing.T) {
	m := seedStore()

	a, err := m.Application("app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the returned copy must not leak into the store.
	a.Assignments[0].Status = assignment.StatusPending
	*a.Assignments[0].Score = 0

	again, err := m.Application("app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	asn := again.AssignmentFor("eval-1")
	if asn.Status != assignment.StatusCompleted || *asn.Score != 80 {
		t.Fatalf("store data was mutated through a read copy: %+v", asn)
	}
}

func TestApplicationsByJobIsOrdered(t *testing.T) {
	m := seedStore()

	apps, err := m.ApplicationsByJob("job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(apps))
	}
	if apps[0].ID != "app-1" || apps[1].ID != "app-2" {
		t.Fatalf("expected id order, got %s, %s", apps[0].ID, apps[1].ID)
	}

	jobs := m.Jobs()
	if len(jobs) != 2 || jobs[0].ID != "job-1" || jobs[1].ID != "job-2" {
		t.Fatalf("expected ordered jobs, got %+v", jobs)
	}
}

func TestMergeAssignment(t *testing.T) {
	m := seedStore()

	// Replacing the existing entry for the same evaluation.
	err := m.MergeAssignment("app-1", assignment.Assignment{
		EvaluationID: "eval-1",
		Status:       assignment.StatusPending,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Appending a new evaluation.
	err = m.MergeAssignment("app-1", assignment.Assignment{
		EvaluationID: "eval-2",
		Status:       assignment.StatusInProgress,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := m.Application("app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(a.Assignments))
	}
	if asn := a.AssignmentFor("eval-1"); asn.Status != assignment.StatusPending || asn.Score != nil {
		t.Fatalf("expected the eval-1 entry to be replaced, got %+v", asn)
	}

	if err := m.MergeAssignment("missing", assignment.Assignment{EvaluationID: "eval-1"}); err == nil {
		t.Fatalf("expected an error for an unknown application")
	}
}

func TestAssignmentTransitionedPersistsEvents(t *testing.T) {
	m := seedStore()

	err := m.AssignmentTransitioned(assignment.Event{
		ApplicationID: "app-2",
		EvaluationID:  "eval-9",
		From:          assignment.StatusInProgress,
		To:            assignment.StatusCompleted,
		Score:         floatPtr(66.5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := m.Application("app-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	asn := a.AssignmentFor("eval-9")
	if asn == nil || asn.Status != assignment.StatusCompleted || *asn.Score != 66.5 {
		t.Fatalf("expected the transition to be persisted, got %+v", asn)
	}
}

func TestSaveAnalysis(t *testing.T) {
	m := seedStore()

	analysis := ai.ProfileFitAnalysis{
		SuitabilityScore: 72,
		SkillMatches:     []string{"Go"},
		Summary:          "Solid backend background",
	}
	if err := m.SaveAnalysis("app-1", "English", analysis); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := m.Application("app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	saved, ok := a.Analysis["English"]
	if !ok {
		t.Fatalf("expected an analysis keyed by language")
	}
	if saved.SuitabilityScore != 72 || saved.Summary != "Solid backend background" {
		t.Fatalf("unexpected analysis: %+v", saved)
	}

	if err := m.SaveAnalysis("missing", "English", analysis); err == nil {
		t.Fatalf("expected an error for an unknown application")
	}
}

func TestCompletedScoresSkipsUnscoredAssignments(t *testing.T) {
	a := &Application{
		Assignments: []assignment.Assignment{
			{EvaluationID: "eval-1", Status: assignment.StatusCompleted, Score: floatPtr(80)},
			{EvaluationID: "eval-2", Status: assignment.StatusCompleted},
			{EvaluationID: "eval-3", Status: assignment.StatusInProgress, Score: floatPtr(50)},
		},
	}

	scores := a.CompletedScores()
	if len(scores) != 1 || scores[0] != 80 {
		t.Fatalf("expected only the scored completed assignment, got %v", scores)
	}
}
