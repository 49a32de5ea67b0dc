// Package jobs tracks asynchronous acquisition runs requested over the API.
package jobs

import (
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
)

// Status is the lifecycle state of a job.
type Status string

// Job statuses. A job moves pending -> running -> completed|failed.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning || next == StatusFailed
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	}
	return false
}

// CompanyResult summarizes acquisition for one company of a job.
type CompanyResult struct {
	Company string   `json:"company"`
	Count   int      `json:"incident_count"`
	Sources []string `json:"sources"`
	Error   string   `json:"error,omitempty"`
}

// Job is one acquisition request and its result.
type Job struct {
	ID         string           `json:"id"`
	Status     Status           `json:"status"`
	Companies  []domain.Company `json:"companies"`
	Timeframe  domain.Timeframe `json:"-"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Results    []CompanyResult  `json:"results"`
	Error      string           `json:"error,omitempty"`

	incidents []domain.Incident
}

// Incidents returns the acquired incidents of a completed job.
func (j *Job) Incidents() []domain.Incident {
	return j.incidents
}

// Count returns the total number of acquired incidents.
func (j *Job) Count() int {
	return len(j.incidents)
}

func (j *Job) clone() Job {
	c := *j
	c.Companies = append([]domain.Company(nil), j.Companies...)
	c.Results = append([]CompanyResult(nil), j.Results...)
	return c
}
