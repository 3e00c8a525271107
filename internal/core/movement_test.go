package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func validMovement() Movement {
	return Movement{
		ID:          uuid.New(),
		OccurredAt:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Direction:   Expense,
		Amount:      "42.50",
		Currency:    DefaultCurrency,
		Category:    "printing",
		Description: "Offset run, spring catalog",
	}
}

func TestMovementValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Movement)
		err    error
	}{
		{"valid", func(m *Movement) {}, nil},
		{"bad direction", func(m *Movement) { m.Direction = "transfer" }, ErrInvalidDirection},
		{"zero date", func(m *Movement) { m.OccurredAt = time.Time{} }, ErrInvalidDate},
		{"empty amount", func(m *Movement) { m.Amount = "  " }, ErrInvalidAmount},
		{"empty description", func(m *Movement) { m.Description = "" }, ErrEmptyDescription},
	}
	for _, tc := range cases {
		m := validMovement()
		tc.mutate(&m)
		if err := m.Validate(); err != tc.err {
			t.Errorf("%s: Validate() = %v, want %v", tc.name, err, tc.err)
		}
	}
}

func TestMovementKeys(t *testing.T) {
	m := validMovement()
	if got := m.MonthKey(); got != "2026-03" {
		t.Errorf("MonthKey() = %q", got)
	}
	if got := m.DayKey(); got != "2026-03-14" {
		t.Errorf("DayKey() = %q", got)
	}
	if got := m.CategoryKey(); got != "printing" {
		t.Errorf("CategoryKey() = %q", got)
	}

	m.Category = " "
	m.CostCenter = ""
	if got := m.CategoryKey(); got != Uncategorized {
		t.Errorf("blank category key = %q, want %q", got, Uncategorized)
	}
	if got := m.CostCenterKey(); got != Uncategorized {
		t.Errorf("blank cost center key = %q, want %q", got, Uncategorized)
	}
}

func TestStockRecordValidate(t *testing.T) {
	r := StockRecord{ItemID: "bk-001", WarehouseID: "wh-1", Quantity: "3", UnitPrice: "19.90"}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	r.ItemID = ""
	if err := r.Validate(); err != ErrEmptyItemID {
		t.Fatalf("expected ErrEmptyItemID, got %v", err)
	}
	r.ItemID = "bk-001"
	r.WarehouseID = " "
	if err := r.Validate(); err != ErrEmptyWarehouseID {
		t.Fatalf("expected ErrEmptyWarehouseID, got %v", err)
	}
}
