// Package core holds the domain types shared by the finance and inventory
// layers: financial movements, stock records and their validation rules.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"

	// Uncategorized is the bucket for movements missing a category or cost
	// center reference. Such movements are never dropped from rollups.
	Uncategorized = "uncategorized"

	// DefaultCurrency is the reporting currency assumed when a movement does
	// not carry one.
	DefaultCurrency = "EUR"
)

type (
	// Direction marks a movement as money in or money out.
	Direction string

	// Movement is a single financial event. Amounts are decimal strings, not
	// floats; the money engine normalizes them for every computation.
	// Movements are immutable once read into the aggregator.
	Movement struct {
		ID              uuid.UUID
		OccurredAt      time.Time
		Direction       Direction
		Amount          string
		Currency        string
		ExchangeRate    string // optional, rate to the reporting currency
		ReportingAmount string // optional, amount already in reporting currency
		Category        string
		CostCenter      string
		Description     string
	}
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
)

func (d Direction) Valid() bool {
	return d == Income || d == Expense
}

func (m Movement) Validate() error {
	if !m.Direction.Valid() {
		return ErrInvalidDirection
	}
	if m.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(m.Amount) == "" {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(m.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(m.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// CategoryKey returns the rollup key for the movement's category, falling back
// to the uncategorized bucket.
func (m Movement) CategoryKey() string {
	if strings.TrimSpace(m.Category) == "" {
		return Uncategorized
	}
	return m.Category
}

// CostCenterKey returns the rollup key for the movement's cost center, falling
// back to the uncategorized bucket.
func (m Movement) CostCenterKey() string {
	if strings.TrimSpace(m.CostCenter) == "" {
		return Uncategorized
	}
	return m.CostCenter
}

// MonthKey returns the movement's month bucket key in YYYY-MM form.
func (m Movement) MonthKey() string {
	return m.OccurredAt.Format("2006-01")
}

// DayKey returns the movement's day bucket key in YYYY-MM-DD form.
func (m Movement) DayKey() string {
	return m.OccurredAt.Format("2006-01-02")
}
