package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/equity-research/internal/api/response"
	"github.com/sells-group/equity-research/internal/model"
	"github.com/sells-group/equity-research/internal/render"
)

// NewListReportsHandler handles GET /api/v1/reports.
func NewListReportsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
				return
			}
			limit = n
		}

		reports, err := svc.ListReports(r.Context(), limit)
		if err != nil {
			writeError(w, err)
			return
		}
		if reports == nil {
			reports = []model.Report{}
		}
		response.JSON(w, reports)
	}
}

// NewGetReportHandler handles GET /api/v1/reports/{jobID}.
func NewGetReportHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.GetReport(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, report)
	}
}

// NewDownloadReportHandler handles GET /api/v1/reports/{jobID}/download,
// serving the rendered document as an attachment.
func NewDownloadReportHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.GetReport(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, err)
			return
		}

		doc := render.Markdown(report)
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", report.Ticker+"-report.md"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(doc))
	}
}
