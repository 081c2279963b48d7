package assignment

// Status is the lifecycle state of an assignment. Transitions move forward
// only; Reassign is the single explicit way back to Pending.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Assignment links one candidate's job application to one evaluation. It is
// owned by the application record and mutated exclusively through the
// Manager. A score is only meaningful when Status is Completed, and only
// for evaluations with automated scoring.
type Assignment struct {
	EvaluationID string   `json:"evaluation_id" mapstructure:"evaluation_id"`
	Status       Status   `json:"status" mapstructure:"status"`
	Score        *float64 `json:"score,omitempty" mapstructure:"score"`
}

// Completed reports whether the assignment has been finished by the
// candidate.
func (a *Assignment) Completed() bool {
	return a.Status == StatusCompleted
}
