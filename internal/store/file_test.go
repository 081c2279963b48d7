package store

import (
	"path/filepath"
	"testing"

	"github.com/talentgate/talentgate/internal/assignment"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")

	m := seedStore()
	if err := m.DumpSnapshot(path); err != nil {
		t.Fatalf("dumping snapshot: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("loading snapshot: %v", err)
	}

	jobs := loaded.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	a, err := loaded.Application("app-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	asn := a.AssignmentFor("eval-1")
	if asn == nil || asn.Status != assignment.StatusCompleted {
		t.Fatalf("expected the completed assignment to survive the round trip, got %+v", asn)
	}
	if asn.Score == nil || *asn.Score != 80 {
		t.Fatalf("expected the score to survive the round trip, got %v", asn.Score)
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
