package task

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the lifecycle of a step or plan. Transitions only move
// forward: pending -> in_progress -> (retrying -> in_progress)* -> terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusRetrying   Status = "retrying"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DefaultMaxRetries is how many repair attempts a step gets after its first
// failure before it is marked failed.
const DefaultMaxRetries = 2

// Step is a single tool invocation within a plan. A step belongs to exactly
// one plan and is only ever mutated by the engine executing that plan.
type Step struct {
	Number      int     `json:"step"`
	Description string  `json:"description"`
	Tool        string  `json:"tool"`
	Params      *Params `json:"params"`
	Status      Status  `json:"status"`
	Result      string  `json:"result,omitempty"`
	Error       string  `json:"error,omitempty"`
	RetryCount  int     `json:"retry_count"`
	MaxRetries  int     `json:"max_retries"`
}

// Plan is an ordered sequence of steps derived from one user request.
type Plan struct {
	ID        string    `json:"id"`
	Request   string    `json:"request"`
	Title     string    `json:"plan,omitempty"`
	Steps     []*Step   `json:"steps"`
	Status    Status    `json:"status"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewPlan(request string) *Plan {
	return &Plan{
		ID:        uuid.NewString(),
		Request:   request,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// AddStep appends a pending step with the default retry budget.
func (p *Plan) AddStep(description, tool string, params *Params) *Step {
	if params == nil {
		params = NewParams()
	}
	s := &Step{
		Number:      len(p.Steps) + 1,
		Description: description,
		Tool:        tool,
		Params:      params,
		Status:      StatusPending,
		MaxRetries:  DefaultMaxRetries,
	}
	p.Steps = append(p.Steps, s)
	return s
}

// Start moves the step into in_progress. Terminal steps stay put.
func (s *Step) Start() {
	if s.Status.Terminal() {
		return
	}
	s.Status = StatusInProgress
}

// Retry consumes one retry and moves the step into retrying. It reports
// whether a retry was actually available.
func (s *Step) Retry() bool {
	if s.Status.Terminal() || s.RetryCount >= s.MaxRetries {
		return false
	}
	s.RetryCount++
	s.Status = StatusRetrying
	return true
}

// Complete marks the step successful and records its result.
func (s *Step) Complete(result string) {
	if s.Status.Terminal() {
		return
	}
	s.Status = StatusCompleted
	s.Result = result
	s.Error = ""
}

// Fail marks the step failed and records the final error.
func (s *Step) Fail(msg string) {
	if s.Status.Terminal() {
		return
	}
	s.Status = StatusFailed
	s.Error = msg
	s.Result = ""
}

// Outcome returns the step's result or error, whichever is set.
func (s *Step) Outcome() string {
	if s.Error != "" {
		return s.Error
	}
	return s.Result
}

// Completed reports whether at least one step finished successfully.
func (p *Plan) Completed() bool {
	for _, s := range p.Steps {
		if s.Status == StatusCompleted {
			return true
		}
	}
	return false
}

// Finish settles the aggregate plan status from its steps: completed if any
// step completed, failed otherwise. A plan with no steps fails.
func (p *Plan) Finish() {
	if p.Completed() {
		p.Status = StatusCompleted
		return
	}
	p.Status = StatusFailed
}
