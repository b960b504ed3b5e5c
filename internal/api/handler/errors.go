package handler

import (
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/equity-research/internal/api/response"
	"github.com/sells-group/equity-research/internal/orchestrator"
)

// writeError maps orchestrator sentinels onto the API error surface.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, orchestrator.ErrInvalidTicker):
		response.Error(w, http.StatusBadRequest, "INVALID_TICKER",
			"Ticker must be 1-6 letters, optionally with a class suffix (e.g. BRK.B)", nil)
	case eris.Is(err, orchestrator.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND",
			"No such job", nil)
	case eris.Is(err, orchestrator.ErrNotReady):
		response.Error(w, http.StatusConflict, "NOT_READY",
			"The analysis has not produced a report", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
