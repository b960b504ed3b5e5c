// Package handler implements the HTTP endpoints of the analysis API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/equity-research/internal/api/response"
	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/store"
)

// Service is the orchestration surface the handlers depend on.
type Service interface {
	Submit(ctx context.Context, ticker string) (*model.Job, error)
	GetStatus(ctx context.Context, jobID string) (*model.Job, error)
	GetReport(ctx context.Context, jobID string) (*model.Report, error)
	ListJobs(ctx context.Context, filter store.JobFilter) ([]model.Job, error)
	ListReports(ctx context.Context, limit int) ([]model.Report, error)
}

// NewSubmitHandler handles POST /api/v1/analyses.
func NewSubmitHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Ticker string `json:"ticker"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		job, err := svc.Submit(r.Context(), req.Ticker)
		if err != nil {
			writeError(w, err)
			return
		}
		response.Accepted(w, job)
	}
}

// NewJobStatusHandler handles GET /api/v1/analyses/{jobID}.
func NewJobStatusHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := svc.GetStatus(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewListJobsHandler handles GET /api/v1/analyses.
func NewListJobsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.JobFilter{
			Ticker: r.URL.Query().Get("ticker"),
		}
		if status := r.URL.Query().Get("status"); status != "" {
			filter.Status = model.JobStatus(status)
		}
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
				return
			}
			filter.Limit = limit
		}

		jobs, err := svc.ListJobs(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		if jobs == nil {
			jobs = []model.Job{}
		}
		response.JSON(w, jobs)
	}
}
