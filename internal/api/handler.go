// Package api provides HTTP handlers for acquisition jobs, stored incidents
// and reports.
package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/jobs"
	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
	"github.com/bissquit/reliability-reporter/internal/pkg/httputil"
	"github.com/bissquit/reliability-reporter/internal/report"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/bissquit/reliability-reporter/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// JobRunner queues acquisition jobs.
type JobRunner interface {
	Submit(companies []domain.Company, tf domain.Timeframe) (jobs.Job, error)
}

// JobReader reads acquisition jobs.
type JobReader interface {
	Get(id string) (jobs.Job, error)
	List() []jobs.Job
}

// IncidentReader reads stored companies and incidents.
type IncidentReader interface {
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	ListIncidents(ctx context.Context, filter store.IncidentFilter) ([]domain.Incident, error)
}

// Discoverer probes a status page for its capabilities.
type Discoverer interface {
	DiscoverStatusPage(ctx context.Context, baseURL string) domain.StatusPage
}

var errStorageDisabled = errors.New("storage is not configured")

var errorMappings = []httputil.ErrorMapping{
	{Error: jobs.ErrJobNotFound, Status: http.StatusNotFound, Message: "job not found"},
	{Error: jobs.ErrQueueFull, Status: http.StatusServiceUnavailable, Message: "job queue is full"},
	{Error: jobs.ErrRunnerStopped, Status: http.StatusServiceUnavailable, Message: "job runner is stopped"},
	{Error: store.ErrCompanyNotFound, Status: http.StatusNotFound, Message: "company not found"},
	{Error: errStorageDisabled, Status: http.StatusServiceUnavailable},
	{Error: report.ErrUnknownFormat, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for the API.
type Handler struct {
	runner     JobRunner
	jobs       JobReader
	incidents  IncidentReader
	discoverer Discoverer
	builder    *report.Builder
	validator  *validator.Validate
	now        func() time.Time
}

// NewHandler creates a new API handler. incidents may be nil when no
// database is configured; the stored-data routes then answer 503.
func NewHandler(runner JobRunner, jobReader JobReader, incidents IncidentReader, discoverer Discoverer, builder *report.Builder) *Handler {
	if builder == nil {
		builder = report.NewBuilder(nil, "")
	}
	return &Handler{
		runner:     runner,
		jobs:       jobReader,
		incidents:  incidents,
		discoverer: discoverer,
		builder:    builder,
		validator:  validator.New(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers all HTTP routes of the API.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/acquisitions", func(r chi.Router) {
		r.Post("/", h.CreateAcquisition)
		r.Get("/", h.ListAcquisitions)
		r.Get("/{id}", h.GetAcquisition)
		r.Get("/{id}/incidents", h.GetAcquisitionIncidents)
	})

	r.Route("/companies", func(r chi.Router) {
		r.Get("/", h.ListCompanies)
		r.Get("/{name}/incidents", h.ListCompanyIncidents)
		r.Get("/{name}/report", h.GetCompanyReport)
	})

	r.Get("/status-pages", h.DiscoverStatusPage)
}

// CreateAcquisition handles POST /acquisitions.
func (h *Handler) CreateAcquisition(w http.ResponseWriter, r *http.Request) {
	var req CreateAcquisitionRequest
	if err := httputil.DecodeJSON(r, &req, h.validator); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	tf, err := req.Timeframe(h.now())
	if err != nil {
		httputil.ValidationError(w, err)
		return
	}

	companies := req.ToDomain()
	for i := range companies {
		if _, err := sources.NormalizeBaseURL(companies[i].URL); err != nil {
			httputil.ValidationError(w, err)
			return
		}
	}

	job, err := h.runner.Submit(companies, tf)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	ctxlog.FromContext(r.Context()).Info("acquisition queued", "job_id", job.ID, "companies", len(companies))
	httputil.Success(w, http.StatusAccepted, newJobResponse(&job))
}

// ListAcquisitions handles GET /acquisitions.
func (h *Handler) ListAcquisitions(w http.ResponseWriter, _ *http.Request) {
	list := h.jobs.List()
	out := make([]JobResponse, len(list))
	for i := range list {
		out[i] = newJobResponse(&list[i])
	}
	httputil.Success(w, http.StatusOK, out)
}

// GetAcquisition handles GET /acquisitions/{id}.
func (h *Handler) GetAcquisition(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, newJobResponse(&job))
}

// GetAcquisitionIncidents handles GET /acquisitions/{id}/incidents.
func (h *Handler) GetAcquisitionIncidents(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if job.Status != jobs.StatusCompleted {
		httputil.Error(w, http.StatusConflict, "job is "+string(job.Status))
		return
	}
	httputil.Success(w, http.StatusOK, nonNil(job.Incidents()))
}

// ListCompanies handles GET /companies.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	if h.incidents == nil {
		h.handleError(w, r, errStorageDisabled)
		return
	}

	companies, err := h.incidents.ListCompanies(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if companies == nil {
		companies = []domain.Company{}
	}
	httputil.Success(w, http.StatusOK, companies)
}

// ListCompanyIncidents handles GET /companies/{name}/incidents.
func (h *Handler) ListCompanyIncidents(w http.ResponseWriter, r *http.Request) {
	if h.incidents == nil {
		h.handleError(w, r, errStorageDisabled)
		return
	}

	q := r.URL.Query()
	tf, err := parseWindow(q.Get("start"), q.Get("end"), h.now(), 0)
	if err != nil {
		httputil.ValidationError(w, err)
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incidents, err := h.incidents.ListIncidents(r.Context(), store.IncidentFilter{
		Company: chi.URLParam(r, "name"),
		Start:   tf.Start,
		End:     tf.End,
		Limit:   limit,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, nonNil(incidents))
}

// GetCompanyReport handles GET /companies/{name}/report. It renders stored
// incidents of the company, compared against the comma-separated peers.
func (h *Handler) GetCompanyReport(w http.ResponseWriter, r *http.Request) {
	if h.incidents == nil {
		h.handleError(w, r, errStorageDisabled)
		return
	}

	q := r.URL.Query()
	format := report.FormatMarkdown
	if raw := q.Get("format"); raw != "" {
		f, err := report.ParseFormat(raw)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		format = f
	}

	tf, err := parseWindow(q.Get("start"), q.Get("end"), h.now(), DefaultDays)
	if err != nil {
		httputil.ValidationError(w, err)
		return
	}

	name := chi.URLParam(r, "name")
	in := report.Input{Company: name, Timeframe: tf, Peers: map[string][]domain.Incident{}}

	in.Incidents, err = h.storedIncidents(r.Context(), name, tf)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	for _, peer := range splitList(q.Get("peers")) {
		if peer == name {
			continue
		}
		incidents, err := h.storedIncidents(r.Context(), peer, tf)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		in.Peers[peer] = incidents
	}

	rep, err := h.builder.Build(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, &rep, format); err != nil {
		h.handleError(w, r, err)
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if format == report.FormatCSV {
		contentType = "text/csv; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// DiscoverStatusPage handles GET /status-pages?url=.
func (h *Handler) DiscoverStatusPage(w http.ResponseWriter, r *http.Request) {
	baseURL, err := sources.NormalizeBaseURL(r.URL.Query().Get("url"))
	if err != nil {
		httputil.ValidationError(w, err)
		return
	}
	httputil.Success(w, http.StatusOK, h.discoverer.DiscoverStatusPage(r.Context(), baseURL))
}

func (h *Handler) storedIncidents(ctx context.Context, company string, tf domain.Timeframe) ([]domain.Incident, error) {
	return h.incidents.ListIncidents(ctx, store.IncidentFilter{
		Company: company,
		Start:   tf.Start,
		End:     tf.End,
		Limit:   MaxIncidentsLimit,
	})
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.HandleError(r.Context(), w, err, errorMappings)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultIncidentsLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(limit, MaxIncidentsLimit), nil
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNil(incidents []domain.Incident) []domain.Incident {
	if incidents == nil {
		return []domain.Incident{}
	}
	return incidents
}
