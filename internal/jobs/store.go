package jobs

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/google/uuid"
)

// Store keeps jobs in memory keyed by id. Each job is owned by the single
// runner goroutine that moved it to running.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	now  func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a pending job.
func (s *Store) Create(companies []domain.Company, tf domain.Timeframe) Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Companies: slices.Clone(companies),
		Timeframe: tf,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return job.clone()
}

// Get returns a snapshot of the job.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return job.clone(), nil
}

// List returns snapshots of all jobs, newest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Job) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

// Start moves a pending job to running.
func (s *Store) Start(id string) error {
	return s.update(id, StatusRunning, func(job *Job, now time.Time) {
		job.StartedAt = &now
	})
}

// Complete moves a running job to completed with its results.
func (s *Store) Complete(id string, results []CompanyResult, incidents []domain.Incident) error {
	return s.update(id, StatusCompleted, func(job *Job, now time.Time) {
		job.FinishedAt = &now
		job.Results = results
		job.incidents = incidents
	})
}

// Fail moves a pending or running job to failed.
func (s *Store) Fail(id string, cause error) error {
	return s.update(id, StatusFailed, func(job *Job, now time.Time) {
		job.FinishedAt = &now
		if cause != nil {
			job.Error = cause.Error()
		}
	})
}

func (s *Store) update(id string, next Status, apply func(*Job, time.Time)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if !job.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, next)
	}

	job.Status = next
	apply(job, s.now())
	return nil
}
