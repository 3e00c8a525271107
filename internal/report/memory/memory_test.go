package memory

import (
	"context"
	"testing"

	"tanuki/internal/core"
)

func TestExportMonthly(t *testing.T) {
	e := New()
	ctx := context.Background()

	summaries := []core.DailySummary{
		{Day: "2026-03-01", TotalIncome: "100", TotalExpense: "40"},
		{Day: "2026-03-02", TotalIncome: "0", TotalExpense: "12.50"},
	}
	if err := e.ExportMonthly(ctx, 2026, 3, summaries); err != nil {
		t.Fatalf("export: %v", err)
	}

	exports := e.Exports()
	if len(exports) != 1 {
		t.Fatalf("exports = %d, want 1", len(exports))
	}
	if exports[0].Year != 2026 || exports[0].Month != 3 {
		t.Errorf("export scope = %d-%d", exports[0].Year, exports[0].Month)
	}
	if len(exports[0].Summaries) != 2 {
		t.Errorf("summaries = %d, want 2", len(exports[0].Summaries))
	}
}

func TestExportMonthlyInvalidMonth(t *testing.T) {
	e := New()
	if err := e.ExportMonthly(context.Background(), 2026, 13, nil); err == nil {
		t.Fatal("expected error for month 13")
	}
	if len(e.Exports()) != 0 {
		t.Error("invalid export should not be recorded")
	}
}
