package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tanuki/internal/amqp"
	"tanuki/internal/core"
)

// movementJSON is the response form of a movement.
type movementJSON struct {
	ID              uuid.UUID `json:"id"`
	OccurredAt      string    `json:"occurredAt"`
	Direction       string    `json:"direction"`
	Amount          string    `json:"amount"`
	Currency        string    `json:"currency"`
	ExchangeRate    string    `json:"exchangeRate,omitempty"`
	ReportingAmount string    `json:"reportingAmount,omitempty"`
	Category        string    `json:"category,omitempty"`
	CostCenter      string    `json:"costCenter,omitempty"`
	Description     string    `json:"description"`
}

func toMovementJSON(m core.Movement) movementJSON {
	return movementJSON{
		ID:              m.ID,
		OccurredAt:      m.OccurredAt.UTC().Format(time.RFC3339),
		Direction:       string(m.Direction),
		Amount:          m.Amount,
		Currency:        m.Currency,
		ExchangeRate:    m.ExchangeRate,
		ReportingAmount: m.ReportingAmount,
		Category:        m.Category,
		CostCenter:      m.CostCenter,
		Description:     m.Description,
	}
}

func (s *Server) handleMovements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListMovements(w, r)
	case http.MethodPost:
		s.handleCreateMovement(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	movements, err := s.movements.ListMovements(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "List movements failed", "error", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "failed to load movements")
		return
	}

	out := make([]movementJSON, 0, len(movements))
	for _, m := range movements {
		out = append(out, toMovementJSON(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateMovement(w http.ResponseWriter, r *http.Request) {
	var payload movementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := payload.toMovement(s.eng)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.movements.InsertMovement(r.Context(), m); err != nil {
		slog.ErrorContext(r.Context(), "Insert movement failed", "error", err, "id", m.ID)
		writeError(w, http.StatusInternalServerError, "failed to save movement")
		return
	}

	s.publishMovementRecorded(r, m)

	writeJSON(w, http.StatusCreated, toMovementJSON(m))
}

// publishMovementRecorded notifies the worker. Publish failures are
// logged, not surfaced: the periodic sweep covers lost events.
func (s *Server) publishMovementRecorded(r *http.Request, m core.Movement) {
	if s.events == nil {
		return
	}
	msg := amqp.NewMovementRecordedMessage(m.ID, string(m.Direction), m.DayKey())
	if err := s.events.PublishMovementRecorded(r.Context(), msg); err != nil {
		slog.ErrorContext(r.Context(), "Publish movement event failed", "error", err, "id", m.ID)
	}
}

type importResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// handleImportMovements ingests a JSON export: an array of movements
// whose amounts may be plain numbers, decimal strings or wire-decimal
// objects. Invalid rows are skipped and reported, not fatal.
func (s *Server) handleImportMovements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST")
		return
	}

	var payloads []movementPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: expected a JSON array of movements")
		return
	}

	result := importResult{}
	for i, payload := range payloads {
		m, err := payload.toMovement(s.eng)
		if err == nil {
			err = m.Validate()
		}
		if err != nil {
			result.Skipped++
			if len(result.Errors) < 20 {
				result.Errors = append(result.Errors, err.Error())
			}
			slog.WarnContext(r.Context(), "Skipping import row", "index", i, "error", err)
			continue
		}

		if err := s.movements.InsertMovement(r.Context(), m); err != nil {
			slog.ErrorContext(r.Context(), "Import insert failed", "error", err, "id", m.ID)
			writeError(w, http.StatusInternalServerError, "import aborted while saving movements")
			return
		}
		s.publishMovementRecorded(r, m)
		result.Imported++
	}

	slog.InfoContext(r.Context(), "Import completed", "imported", result.Imported, "skipped", result.Skipped)
	writeJSON(w, http.StatusOK, result)
}
