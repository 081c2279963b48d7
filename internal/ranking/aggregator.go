package ranking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talentgate/talentgate/internal/store"
)

// RankedCandidate is the derived, non-persisted ranking entry for one
// candidate. It is recomputed from application state on every run, never
// patched incrementally.
type RankedCandidate struct {
	Rank             int     `json:"rank"`
	ApplicationID    string  `json:"application_id"`
	CandidateID      string  `json:"candidate_id"`
	CandidateName    string  `json:"candidate_name,omitempty"`
	SuitabilityScore float64 `json:"suitability_score"`
	Justification    string  `json:"justification"`
}

// Aggregator fuses per-candidate signals into an ordered, justified
// ranking. It is stateless across runs: identical input yields an identical
// ranking, including justification text.
type Aggregator struct {
	sources []Source
	logger  *zap.Logger
}

// NewAggregator builds an aggregator with the standard signal sources.
// The language selects which profile-fit analysis to read.
func NewAggregator(language string, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		sources: []Source{
			NewAssessmentSource(),
			NewProfileFitSource(language),
			NewFeedbackSource(),
		},
		logger: logger,
	}
}

// Rank computes the ordered candidate list for one job's applications.
// Candidates with no numeric signal are excluded, not scored as zero.
func (g *Aggregator) Rank(apps []*store.Application) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(apps))
	excluded := 0

	for _, app := range apps {
		entry, ok := g.score(app)
		if !ok {
			excluded++
			continue
		}
		ranked = append(ranked, entry)
	}

	// Descending by composite; ties go to the earlier application, then
	// to the lower candidate id, so the order is total and reproducible.
	sort.SliceStable(ranked, func(i, k int) bool {
		a, b := ranked[i], ranked[k]
		if a.SuitabilityScore != b.SuitabilityScore {
			return a.SuitabilityScore > b.SuitabilityScore
		}
		appA, appB := findApp(apps, a.ApplicationID), findApp(apps, b.ApplicationID)
		if !appA.AppliedAt.Equal(appB.AppliedAt) {
			return appA.AppliedAt.Before(appB.AppliedAt)
		}
		return a.CandidateID < b.CandidateID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	g.logger.Debug("ranking computed",
		zap.Int("ranked", len(ranked)),
		zap.Int("excluded", excluded),
	)

	return ranked
}

// RankByJob ranks candidates for every requested job concurrently. Each job
// reads its own consistent snapshot from the store.
func (g *Aggregator) RankByJob(ctx context.Context, st store.Store, jobIDs []string) (map[string][]RankedCandidate, error) {
	results := make(map[string][]RankedCandidate, len(jobIDs))
	var mu sync.Mutex

	eg, _ := errgroup.WithContext(ctx)
	for _, jobID := range jobIDs {
		eg.Go(func() error {
			apps, err := st.ApplicationsByJob(jobID)
			if err != nil {
				return fmt.Errorf("loading applications for job %s: %w", jobID, err)
			}

			ranked := g.Rank(apps)

			mu.Lock()
			results[jobID] = ranked
			mu.Unlock()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// score computes one candidate's composite and justification. The second
// return is false when the candidate carries no numeric signal.
func (g *Aggregator) score(app *store.Application) (RankedCandidate, bool) {
	numeric := make([]*Signal, 0, len(g.sources))
	var feedback *Signal

	for _, source := range g.sources {
		signal := source.Extract(app)
		if signal == nil {
			continue
		}
		if signal.Score == nil {
			feedback = signal
			continue
		}
		numeric = append(numeric, signal)
	}

	if len(numeric) == 0 {
		return RankedCandidate{}, false
	}

	// Equal weight across the present numeric signals: the average of the
	// AI fit score and the mean assessment score when both exist, or the
	// single available one.
	sum := 0.0
	strongest := numeric[0]
	for _, signal := range numeric {
		sum += *signal.Score
		if *signal.Score > *strongest.Score {
			strongest = signal
		}
	}
	composite := sum / float64(len(numeric))

	justification := strongest.Explanation
	if feedback != nil {
		justification = justification + "; " + feedback.Explanation
	}

	return RankedCandidate{
		ApplicationID:    app.ID,
		CandidateID:      app.CandidateID,
		CandidateName:    app.CandidateName,
		SuitabilityScore: composite,
		Justification:    justification,
	}, true
}

func findApp(apps []*store.Application, id string) *store.Application {
	for _, app := range apps {
		if app.ID == id {
			return app
		}
	}
	return nil
}
