// Package report defines the outbound port for exporting monthly finance
// summaries to external destinations.
package report

import (
	"context"

	"tanuki/internal/core"
)

// Exporter receives the daily summaries of one month. Implementations
// must be safe for repeated exports of the same month.
type Exporter interface {
	ExportMonthly(ctx context.Context, year, month int, summaries []core.DailySummary) error
}
