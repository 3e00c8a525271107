package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tanuki/internal/core"
	"tanuki/internal/money"
)

// movementPayload is the wire form of a movement. Amount fields are raw
// JSON so imports can carry plain numbers, strings or wire-decimal
// objects; the money engine normalizes whatever arrives.
type movementPayload struct {
	ID              string          `json:"id"`
	OccurredAt      string          `json:"occurredAt"`
	Direction       string          `json:"direction"`
	Amount          json.RawMessage `json:"amount"`
	Currency        string          `json:"currency"`
	ExchangeRate    json.RawMessage `json:"exchangeRate"`
	ReportingAmount json.RawMessage `json:"reportingAmount"`
	Category        string          `json:"category"`
	CostCenter      string          `json:"costCenter"`
	Description     string          `json:"description"`
}

func (p movementPayload) toMovement(eng *money.Engine) (core.Movement, error) {
	id := uuid.New()
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			return core.Movement{}, fmt.Errorf("invalid id %q: %w", p.ID, err)
		}
		id = parsed
	}

	occurredAt, err := parseOccurredAt(p.OccurredAt)
	if err != nil {
		return core.Movement{}, err
	}

	currency := sanitizeInput(p.Currency)
	if currency == "" {
		currency = core.DefaultCurrency
	}

	m := core.Movement{
		ID:              id,
		OccurredAt:      occurredAt,
		Direction:       core.Direction(sanitizeInput(p.Direction)),
		Amount:          decodeAmount(eng, p.Amount),
		Currency:        currency,
		ExchangeRate:    decodeOptionalAmount(eng, p.ExchangeRate),
		ReportingAmount: decodeOptionalAmount(eng, p.ReportingAmount),
		Category:        sanitizeInput(p.Category),
		CostCenter:      sanitizeInput(p.CostCenter),
		Description:     sanitizeInput(p.Description),
	}
	return m, nil
}

func parseOccurredAt(v string) (time.Time, error) {
	v = sanitizeInput(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("missing occurredAt")
	}
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02", v); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid occurredAt %q", v)
}

// decodeAmount turns a raw JSON amount of any supported form into the
// canonical decimal string the domain stores.
func decodeAmount(eng *money.Engine, raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	if v == nil {
		return ""
	}
	return eng.Normalize(v).String()
}

// decodeOptionalAmount keeps absent optional fields empty instead of "0".
func decodeOptionalAmount(eng *money.Engine, raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return ""
	}
	return decodeAmount(eng, raw)
}
