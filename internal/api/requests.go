package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/jobs"
)

// DefaultDays is the acquisition window when a request names no start date.
const DefaultDays = 30

// Pagination limits for stored incident listings.
const (
	DefaultIncidentsLimit = 500
	MaxIncidentsLimit     = 5000
)

var errInvalidDate = errors.New("invalid date")

// CreateAcquisitionRequest represents the request body for starting an acquisition.
type CreateAcquisitionRequest struct {
	Companies []CompanyRequest `json:"companies" validate:"required,min=1,max=50,dive"`
	StartDate string           `json:"start_date,omitempty"`
	EndDate   string           `json:"end_date,omitempty"`
}

// CompanyRequest names one status page to acquire.
type CompanyRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	URL      string `json:"url" validate:"required,url"`
	IsTarget bool   `json:"is_target"`
}

// ToDomain converts the request companies to domain models.
func (r *CreateAcquisitionRequest) ToDomain() []domain.Company {
	companies := make([]domain.Company, len(r.Companies))
	for i, c := range r.Companies {
		companies[i] = domain.Company{Name: c.Name, URL: c.URL, IsTarget: c.IsTarget}
	}
	return companies
}

// Timeframe resolves the requested window relative to now.
func (r *CreateAcquisitionRequest) Timeframe(now time.Time) (domain.Timeframe, error) {
	return parseWindow(r.StartDate, r.EndDate, now, DefaultDays)
}

// parseWindow parses start and end query or body values. A missing end is
// now; a missing start is defaultDays before the end (zero means unbounded).
func parseWindow(startRaw, endRaw string, now time.Time, defaultDays int) (domain.Timeframe, error) {
	var tf domain.Timeframe

	end, err := parseDate(endRaw, true)
	if err != nil {
		return tf, fmt.Errorf("end_date: %w", err)
	}
	if end.IsZero() {
		end = now
	}

	start, err := parseDate(startRaw, false)
	if err != nil {
		return tf, fmt.Errorf("start_date: %w", err)
	}
	if start.IsZero() && defaultDays > 0 {
		start = end.AddDate(0, 0, -defaultDays)
	}

	if !start.IsZero() && end.Before(start) {
		return tf, fmt.Errorf("%w: end_date is before start_date", errInvalidDate)
	}
	return domain.Timeframe{Start: start, End: end}, nil
}

// parseDate accepts RFC 3339 or YYYY-MM-DD. Date-only end values cover the
// whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", errInvalidDate, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// JobResponse is the API view of an acquisition job.
type JobResponse struct {
	ID            string               `json:"id"`
	Status        jobs.Status          `json:"status"`
	Companies     []domain.Company     `json:"companies"`
	StartDate     *time.Time           `json:"start_date"`
	EndDate       *time.Time           `json:"end_date"`
	CreatedAt     time.Time            `json:"created_at"`
	StartedAt     *time.Time           `json:"started_at"`
	FinishedAt    *time.Time           `json:"finished_at"`
	IncidentCount int                  `json:"incident_count"`
	Results       []jobs.CompanyResult `json:"results"`
	Error         *string              `json:"error"`
}

func newJobResponse(job *jobs.Job) JobResponse {
	resp := JobResponse{
		ID:            job.ID,
		Status:        job.Status,
		Companies:     job.Companies,
		CreatedAt:     job.CreatedAt,
		StartedAt:     job.StartedAt,
		FinishedAt:    job.FinishedAt,
		IncidentCount: job.Count(),
		Results:       job.Results,
	}
	if resp.Companies == nil {
		resp.Companies = []domain.Company{}
	}
	if resp.Results == nil {
		resp.Results = []jobs.CompanyResult{}
	}
	for i := range resp.Results {
		if resp.Results[i].Sources == nil {
			resp.Results[i].Sources = []string{}
		}
	}
	if !job.Timeframe.Start.IsZero() {
		start := job.Timeframe.Start
		resp.StartDate = &start
	}
	if !job.Timeframe.End.IsZero() {
		end := job.Timeframe.End
		resp.EndDate = &end
	}
	if job.Error != "" {
		msg := job.Error
		resp.Error = &msg
	}
	return resp
}
