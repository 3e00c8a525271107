// Package worker rebuilds derived daily summaries from recorded movements.
//
// Summaries are rebuilt in two ways: event-driven, when a movement-recorded
// message arrives over AMQP, and by a periodic sweep that walks every day
// with movements. The sweep is the backstop for lost messages, so a summary
// row is never more stale than one sweep interval.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tanuki/internal/amqp"
	"tanuki/internal/core"
	"tanuki/internal/money"
	"tanuki/internal/report"
)

// Store is the storage surface the worker needs.
type Store interface {
	ListMovementsByDay(ctx context.Context, day string) ([]core.Movement, error)
	ListMovementDays(ctx context.Context) ([]string, error)
	UpsertDailySummary(ctx context.Context, s core.DailySummary) error
	ListDailySummaries(ctx context.Context, year, month int) ([]core.DailySummary, error)
}

// SummaryWorker keeps daily_summaries consistent with the movements table.
type SummaryWorker struct {
	store     Store
	eng       *money.Engine
	exporter  report.Exporter
	batchSize int
}

// NewSummaryWorker creates a worker. exporter may be nil when no report
// destination is configured.
func NewSummaryWorker(store Store, eng *money.Engine, exporter report.Exporter, batchSize int) *SummaryWorker {
	if batchSize < 1 {
		batchSize = 100
	}
	return &SummaryWorker{
		store:     store,
		eng:       eng,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleMovementRecorded rebuilds the summary for the day named in the
// message. Returning an error requeues the message.
func (w *SummaryWorker) HandleMovementRecorded(ctx context.Context, msg *amqp.MovementRecordedMessage) error {
	slog.InfoContext(ctx, "Processing movement event",
		"id", msg.ID,
		"direction", msg.Direction,
		"day", msg.Day)

	if err := w.RebuildDay(ctx, msg.Day); err != nil {
		return fmt.Errorf("rebuild day %s: %w", msg.Day, err)
	}
	return nil
}

// RebuildDay recomputes the income and expense totals for one day from the
// movements table and upserts the summary row. Reporting amounts take
// precedence over raw amounts so multi-currency days total in the reporting
// currency.
func (w *SummaryWorker) RebuildDay(ctx context.Context, day string) error {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return fmt.Errorf("invalid day %q: %w", day, err)
	}

	movements, err := w.store.ListMovementsByDay(ctx, day)
	if err != nil {
		return fmt.Errorf("list movements: %w", err)
	}

	income := w.eng.Normalize(0)
	expense := w.eng.Normalize(0)
	for _, m := range movements {
		amount := m.Amount
		if m.ReportingAmount != "" {
			amount = m.ReportingAmount
		}
		switch m.Direction {
		case core.Income:
			income = w.eng.Add(income, amount)
		case core.Expense:
			expense = w.eng.Add(expense, amount)
		}
	}

	summary := core.DailySummary{
		Day:          day,
		TotalIncome:  income.String(),
		TotalExpense: expense.String(),
	}
	if err := w.store.UpsertDailySummary(ctx, summary); err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}

	slog.InfoContext(ctx, "Rebuilt daily summary",
		"day", day,
		"movements", len(movements),
		"income", summary.TotalIncome,
		"expense", summary.TotalExpense)

	return nil
}

// Sweep rebuilds summaries for up to batchSize days, most recent first.
// Recent days are the ones most likely to have received movements since the
// last sweep; older days converge across consecutive sweeps.
func (w *SummaryWorker) Sweep(ctx context.Context) error {
	days, err := w.store.ListMovementDays(ctx)
	if err != nil {
		return fmt.Errorf("list movement days: %w", err)
	}
	if len(days) == 0 {
		return nil
	}
	if len(days) > w.batchSize {
		days = days[:w.batchSize]
	}

	errorCount := 0
	for _, day := range days {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.RebuildDay(ctx, day); err != nil {
			slog.ErrorContext(ctx, "Sweep rebuild failed", "day", day, "error", err)
			errorCount++
		}
	}

	slog.InfoContext(ctx, "Sweep completed",
		"days", len(days),
		"errors", errorCount)

	return nil
}

// RunSweep runs Sweep once immediately and then on every tick until the
// context is cancelled.
func (w *SummaryWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	if err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Initial sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Sweep failed", "error", err)
			}
		}
	}
}

// ExportMonth pushes one month of daily summaries to the configured report
// destination. A nil exporter makes this a no-op.
func (w *SummaryWorker) ExportMonth(ctx context.Context, year, month int) error {
	if w.exporter == nil {
		return nil
	}
	summaries, err := w.store.ListDailySummaries(ctx, year, month)
	if err != nil {
		return fmt.Errorf("list daily summaries: %w", err)
	}
	if len(summaries) == 0 {
		slog.InfoContext(ctx, "No summaries to export", "year", year, "month", month)
		return nil
	}
	if err := w.exporter.ExportMonthly(ctx, year, month, summaries); err != nil {
		return fmt.Errorf("export monthly report: %w", err)
	}
	slog.InfoContext(ctx, "Exported monthly report",
		"year", year,
		"month", month,
		"days", len(summaries))
	return nil
}

// RunMonthlyExport exports the previous month shortly after each month
// rollover. Rows are appended to the report destination, so each month is
// exported at most once per process.
func (w *SummaryWorker) RunMonthlyExport(ctx context.Context) error {
	if w.exporter == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	last := time.Now().UTC().AddDate(0, -1, 0).Format("2006-01")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			prev := time.Now().UTC().AddDate(0, -1, 0)
			key := prev.Format("2006-01")
			if key == last {
				continue
			}
			if err := w.ExportMonth(ctx, prev.Year(), int(prev.Month())); err != nil {
				slog.ErrorContext(ctx, "Monthly export failed", "month", key, "error", err)
				continue
			}
			last = key
		}
	}
}
