package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/talentgate/talentgate/internal/ai"
	"github.com/talentgate/talentgate/internal/assignment"
)

// Store is the persistence contract the engine writes through. Assignment
// writes flow only through lifecycle transitions, never ad hoc field edits.
type Store interface {
	Job(id string) (*Job, error)
	Jobs() []*Job
	Application(id string) (*Application, error)
	ApplicationsByJob(jobID string) ([]*Application, error)
	MergeAssignment(applicationID string, a assignment.Assignment) error
	SaveAnalysis(applicationID, language string, analysis ai.ProfileFitAnalysis) error
}

// Memory is an in-memory Store. Reads return deep copies, so an aggregation
// running over a returned slice sees a consistent snapshot regardless of
// concurrent transitions.
type Memory struct {
	mu           sync.RWMutex
	jobs         map[string]*Job
	applications map[string]*Application
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		jobs:         make(map[string]*Job),
		applications: make(map[string]*Application),
	}
}

// PutJob inserts or replaces a job posting.
func (m *Memory) PutJob(j *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *j
	m.jobs[j.ID] = &copied
}

// PutApplication inserts or replaces an application record.
func (m *Memory) PutApplication(a *Application) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.applications[a.ID] = a.Clone()
}

// Job returns the job with the given id.
func (m *Memory) Job(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s not found", id)
	}
	copied := *j
	return &copied, nil
}

// Jobs returns all jobs ordered by id.
func (m *Memory) Jobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		copied := *j
		jobs = append(jobs, &copied)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })

	return jobs
}

// Application returns a deep copy of the application with the given id.
func (m *Memory) Application(id string) (*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.applications[id]
	if !ok {
		return nil, fmt.Errorf("application %s not found", id)
	}
	return a.Clone(), nil
}

// ApplicationsByJob returns deep copies of the job's applications, ordered
// by application id for reproducible iteration.
func (m *Memory) ApplicationsByJob(jobID string) ([]*Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Application, 0)
	for _, a := range m.applications {
		if a.JobID == jobID {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, k int) bool { return result[i].ID < result[k].ID })

	return result, nil
}

// MergeAssignment writes one assignment's state into the application,
// replacing the entry for the same evaluation or appending a new one.
func (m *Memory) MergeAssignment(applicationID string, asn assignment.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.applications[applicationID]
	if !ok {
		return fmt.Errorf("application %s not found", applicationID)
	}

	if asn.Score != nil {
		score := *asn.Score
		asn.Score = &score
	}

	for i := range a.Assignments {
		if a.Assignments[i].EvaluationID == asn.EvaluationID {
			a.Assignments[i] = asn
			return nil
		}
	}
	a.Assignments = append(a.Assignments, asn)

	return nil
}

// SaveAnalysis stores a profile-fit analysis under the output language it
// was produced in.
func (m *Memory) SaveAnalysis(applicationID, language string, analysis ai.ProfileFitAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.applications[applicationID]
	if !ok {
		return fmt.Errorf("application %s not found", applicationID)
	}

	if a.Analysis == nil {
		a.Analysis = make(map[string]ai.ProfileFitAnalysis)
	}
	a.Analysis[language] = analysis

	return nil
}

// AssignmentTransitioned implements assignment.Sink, persisting every
// lifecycle transition as a merge.
func (m *Memory) AssignmentTransitioned(e assignment.Event) error {
	return m.MergeAssignment(e.ApplicationID, assignment.Assignment{
		EvaluationID: e.EvaluationID,
		Status:       e.To,
		Score:        e.Score,
	})
}
