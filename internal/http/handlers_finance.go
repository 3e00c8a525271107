package http

import (
	"log/slog"
	"net/http"
	"time"
)

// handleFinanceSummary returns the full metrics report for the requested
// scope. Computed from scratch on every call.
func (s *Server) handleFinanceSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	movements, err := s.movements.ListMovements(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "List movements for summary failed", "error", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "failed to load movements")
		return
	}

	report := s.aggregator.Summarize(time.Now(), movements)
	writeJSON(w, http.StatusOK, report)
}

// handleFinanceHealth returns the compact health metrics over the whole
// movement history.
func (s *Server) handleFinanceHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	movements, err := s.movements.ListMovements(r.Context(), 0, 0)
	if err != nil {
		slog.ErrorContext(r.Context(), "List movements for health failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load movements")
		return
	}

	report := s.aggregator.Summarize(time.Now(), movements)
	writeJSON(w, http.StatusOK, report.Health())
}
