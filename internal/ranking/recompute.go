package ranking

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/assignment"
	"github.com/talentgate/talentgate/internal/store"
)

// Recomputer re-ranks a job whenever one of its assignments transitions.
// It implements assignment.Sink; wiring it into the assignment manager
// makes rankings follow new signals as they arrive.
type Recomputer struct {
	store      store.Store
	aggregator *Aggregator
	logger     *zap.Logger
	deliver    func(jobID string, ranked []RankedCandidate)
}

// NewRecomputer builds a recompute sink delivering fresh rankings to the
// given callback.
func NewRecomputer(st store.Store, aggregator *Aggregator, logger *zap.Logger, deliver func(jobID string, ranked []RankedCandidate)) *Recomputer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Recomputer{
		store:      st,
		aggregator: aggregator,
		logger:     logger,
		deliver:    deliver,
	}
}

// AssignmentTransitioned recomputes the ranking of the job the transitioned
// assignment belongs to.
func (r *Recomputer) AssignmentTransitioned(e assignment.Event) error {
	app, err := r.store.Application(e.ApplicationID)
	if err != nil {
		return fmt.Errorf("resolving application for re-rank: %w", err)
	}

	apps, err := r.store.ApplicationsByJob(app.JobID)
	if err != nil {
		return fmt.Errorf("loading applications for re-rank: %w", err)
	}

	ranked := r.aggregator.Rank(apps)

	r.logger.Debug("ranking recomputed after assignment transition",
		zap.String("job_id", app.JobID),
		zap.String("application_id", e.ApplicationID),
		zap.Int("ranked", len(ranked)),
	)

	if r.deliver != nil {
		r.deliver(app.JobID, ranked)
	}

	return nil
}
