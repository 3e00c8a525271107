// Package memory is an in-process exporter used in tests and local runs
// without a configured spreadsheet.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tanuki/internal/core"
	"tanuki/internal/report"
)

type Export struct {
	Year      int
	Month     int
	Summaries []core.DailySummary
}

type Exporter struct {
	mu      sync.Mutex
	exports []Export
}

var _ report.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) ExportMonthly(_ context.Context, year, month int, summaries []core.DailySummary) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("invalid month %d", month)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	copied := append([]core.DailySummary(nil), summaries...)
	e.exports = append(e.exports, Export{Year: year, Month: month, Summaries: copied})
	return nil
}

// Exports returns a snapshot of everything exported so far.
func (e *Exporter) Exports() []Export {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Export(nil), e.exports...)
}
