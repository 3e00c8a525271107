// Package storage persists movements, stock records, warehouses and the
// derived daily summaries in SQLite. Monetary values are stored as decimal
// text, never as float columns.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"tanuki/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const movementColumns = `id, occurred_at, direction, amount, currency, exchange_rate, reporting_amount, category, cost_center, description`

func (r *SQLiteRepository) InsertMovement(ctx context.Context, m core.Movement) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validate movement: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO movements (`+movementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.OccurredAt.UTC().Format(time.RFC3339), string(m.Direction),
		m.Amount, m.Currency, m.ExchangeRate, m.ReportingAmount,
		m.Category, m.CostCenter, m.Description)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	slog.InfoContext(ctx, "Movement saved",
		"id", m.ID,
		"direction", m.Direction,
		"amount", m.Amount,
		"day", m.DayKey())
	return nil
}

func (r *SQLiteRepository) GetMovement(ctx context.Context, id uuid.UUID) (core.Movement, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+movementColumns+` FROM movements WHERE id = ?`, id.String())

	m, err := scanMovement(row)
	if err != nil {
		return core.Movement{}, fmt.Errorf("get movement %s: %w", id, err)
	}
	return m, nil
}

// ListMovements returns movements for the given scope. year == 0 lists
// everything; month == 0 lists the whole year.
func (r *SQLiteRepository) ListMovements(ctx context.Context, year, month int) ([]core.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements`
	var args []any

	switch {
	case year > 0 && month > 0:
		query += ` WHERE strftime('%Y', occurred_at) = ? AND strftime('%m', occurred_at) = ?`
		args = append(args, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	case year > 0:
		query += ` WHERE strftime('%Y', occurred_at) = ?`
		args = append(args, fmt.Sprintf("%04d", year))
	}
	query += ` ORDER BY occurred_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListMovementsByDay returns the movements of a single YYYY-MM-DD day.
func (r *SQLiteRepository) ListMovementsByDay(ctx context.Context, day string) ([]core.Movement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+movementColumns+` FROM movements
		WHERE date(occurred_at) = ?
		ORDER BY occurred_at, id`, day)
	if err != nil {
		return nil, fmt.Errorf("list movements for %s: %w", day, err)
	}
	defer rows.Close()

	var movements []core.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListMovementDays returns the distinct days that have movements, most
// recent first. The worker's capped sweep rebuilds from the front, so recent
// days must lead or a long history starves them out of every batch.
func (r *SQLiteRepository) ListMovementDays(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT date(occurred_at) FROM movements ORDER BY 1 DESC`)
	if err != nil {
		return nil, fmt.Errorf("list movement days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (r *SQLiteRepository) UpsertDailySummary(ctx context.Context, s core.DailySummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_summaries (day, total_income, total_expense)
		VALUES (?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			total_income = excluded.total_income,
			total_expense = excluded.total_expense`,
		s.Day, s.TotalIncome, s.TotalExpense)
	if err != nil {
		return fmt.Errorf("upsert daily summary %s: %w", s.Day, err)
	}
	return nil
}

func (r *SQLiteRepository) ListDailySummaries(ctx context.Context, year, month int) ([]core.DailySummary, error) {
	query := `SELECT day, total_income, total_expense FROM daily_summaries`
	var args []any
	if year > 0 && month > 0 {
		query += ` WHERE day LIKE ?`
		args = append(args, fmt.Sprintf("%04d-%02d-%%", year, month))
	}
	query += ` ORDER BY day`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	defer rows.Close()

	var summaries []core.DailySummary
	for rows.Next() {
		var s core.DailySummary
		if err := rows.Scan(&s.Day, &s.TotalIncome, &s.TotalExpense); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *SQLiteRepository) InsertStockRecord(ctx context.Context, rec core.StockRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validate stock record: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_records (item_id, item_title, warehouse_id, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id, warehouse_id) DO UPDATE SET
			item_title = excluded.item_title,
			quantity = excluded.quantity,
			unit_price = excluded.unit_price`,
		rec.ItemID, rec.ItemTitle, rec.WarehouseID, rec.Quantity, rec.UnitPrice)
	if err != nil {
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListStockRecords(ctx context.Context) ([]core.StockRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, item_title, warehouse_id, quantity, unit_price
		FROM stock_records ORDER BY item_id, warehouse_id`)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()

	var records []core.StockRecord
	for rows.Next() {
		var rec core.StockRecord
		if err := rows.Scan(&rec.ItemID, &rec.ItemTitle, &rec.WarehouseID, &rec.Quantity, &rec.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteRepository) ListWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM warehouses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []core.Warehouse
	for rows.Next() {
		var w core.Warehouse
		if err := rows.Scan(&w.ID, &w.Name); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (r *SQLiteRepository) UpsertWarehouse(ctx context.Context, w core.Warehouse) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO warehouses (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		w.ID, w.Name)
	if err != nil {
		return fmt.Errorf("upsert warehouse %s: %w", w.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovement(row rowScanner) (core.Movement, error) {
	var (
		m          core.Movement
		id         string
		occurredAt string
		direction  string
	)
	if err := row.Scan(&id, &occurredAt, &direction,
		&m.Amount, &m.Currency, &m.ExchangeRate, &m.ReportingAmount,
		&m.Category, &m.CostCenter, &m.Description); err != nil {
		return core.Movement{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Movement{}, fmt.Errorf("parse movement id %q: %w", id, err)
	}
	m.ID = parsed

	ts, err := time.Parse(time.RFC3339, occurredAt)
	if err != nil {
		return core.Movement{}, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
	}
	m.OccurredAt = ts
	m.Direction = core.Direction(direction)
	return m, nil
}
