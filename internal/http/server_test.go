package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"tanuki/internal/amqp"
	"tanuki/internal/core"
	"tanuki/internal/finance"
	"tanuki/internal/inventory"
	"tanuki/internal/money"
)

type fakeStore struct {
	movements  []core.Movement
	records    []core.StockRecord
	warehouses []core.Warehouse
	listErr    error
	insertErr  error
	pingErr    error
}

func (f *fakeStore) InsertMovement(ctx context.Context, m core.Movement) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeStore) GetMovement(ctx context.Context, id uuid.UUID) (core.Movement, error) {
	for _, m := range f.movements {
		if m.ID == id {
			return m, nil
		}
	}
	return core.Movement{}, errors.New("not found")
}

func (f *fakeStore) ListMovements(ctx context.Context, year, month int) ([]core.Movement, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Movement
	for _, m := range f.movements {
		if year > 0 && m.OccurredAt.Year() != year {
			continue
		}
		if month > 0 && int(m.OccurredAt.Month()) != month {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeStore) ListStockRecords(ctx context.Context) ([]core.StockRecord, error) {
	return f.records, nil
}

func (f *fakeStore) ListWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	return f.warehouses, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

type fakePublisher struct {
	published []*amqp.MovementRecordedMessage
	err       error
}

func (f *fakePublisher) PublishMovementRecorded(ctx context.Context, msg *amqp.MovementRecordedMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

func newTestServer(store *fakeStore, events EventPublisher) *Server {
	eng := money.NewEngine(money.DefaultDivisionPrecision)
	return NewServer(":0", Deps{
		Movements:          store,
		Stock:              store,
		Pinger:             store,
		Events:             events,
		Engine:             eng,
		Aggregator:         finance.NewAggregator(eng, finance.DefaultHealthPolicy(), finance.DefaultTopGroups, finance.DefaultBurnWindowMonths),
		Inventory:          inventory.NewService(eng),
		RateLimitPerMinute: 30,
	})
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store, nil)
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}

	store.pingErr = errors.New("db down")
	rr := do(t, srv, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz with failing ping status = %d, want 503", rr.Code)
	}
}

func TestCreateMovement(t *testing.T) {
	store := &fakeStore{}
	events := &fakePublisher{}
	srv := newTestServer(store, events)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodPost, "/api/movements", `{
		"occurredAt": "2026-03-15",
		"direction": "expense",
		"amount": "125.50",
		"category": "printing",
		"description": "print run"
	}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if len(store.movements) != 1 {
		t.Fatalf("stored %d movements, want 1", len(store.movements))
	}
	if store.movements[0].Amount != "125.5" {
		t.Errorf("stored amount = %q", store.movements[0].Amount)
	}
	if len(events.published) != 1 || events.published[0].Day != "2026-03-15" {
		t.Errorf("published events = %+v", events.published)
	}
}

func TestCreateMovementValidation(t *testing.T) {
	srv := newTestServer(&fakeStore{}, nil)
	defer srv.Shutdown(context.Background())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", `garbage`, http.StatusBadRequest},
		{"missing date", `{"direction":"expense","amount":"1","description":"x"}`, http.StatusUnprocessableEntity},
		{"bad direction", `{"occurredAt":"2026-01-01","direction":"sideways","amount":"1","description":"x"}`, http.StatusUnprocessableEntity},
		{"missing description", `{"occurredAt":"2026-01-01","direction":"expense","amount":"1"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/movements", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestPublishFailureDoesNotFailCreate(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store, &fakePublisher{err: errors.New("broker down")})
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodPost, "/api/movements", `{
		"occurredAt": "2026-03-15",
		"direction": "income",
		"amount": 100,
		"description": "book sales"
	}`)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 despite publish failure", rr.Code)
	}
	if len(store.movements) != 1 {
		t.Errorf("movement should still be stored")
	}
}

func TestListMovementsScoping(t *testing.T) {
	store := &fakeStore{movements: []core.Movement{
		{ID: uuid.New(), OccurredAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), Direction: core.Income, Amount: "10", Currency: "EUR", Description: "a"},
		{ID: uuid.New(), OccurredAt: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), Direction: core.Expense, Amount: "5", Currency: "EUR", Description: "b"},
	}}
	srv := newTestServer(store, nil)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/movements?year=2026&month=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var got []movementJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Description != "a" {
		t.Errorf("got %+v", got)
	}

	rr = do(t, srv, http.MethodGet, "/api/movements?month=2", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("month without year status = %d, want 400", rr.Code)
	}
	rr = do(t, srv, http.MethodGet, "/api/movements?year=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad year status = %d, want 400", rr.Code)
	}
}

func TestImportMovementsWireDecimals(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store, nil)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodPost, "/api/movements/import", `[
		{"occurredAt": "2026-01-10", "direction": "income", "amount": {"$numberDecimal": "1250.75"}, "description": "wholesale order"},
		{"occurredAt": "2026-01-11", "direction": "expense", "amount": "40,50", "description": "shipping"},
		{"occurredAt": "2026-01-12", "direction": "expense", "amount": 9.99, "description": "fees"},
		{"direction": "expense", "amount": "1", "description": "no date"}
	]`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var result importResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Imported != 3 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 3 imported 1 skipped", result)
	}
	if store.movements[0].Amount != "1250.75" {
		t.Errorf("wire decimal amount = %q, want 1250.75", store.movements[0].Amount)
	}
	if store.movements[1].Amount != "40.5" {
		t.Errorf("comma amount = %q, want 40.5", store.movements[1].Amount)
	}
}

func TestFinanceSummary(t *testing.T) {
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{movements: []core.Movement{
		{ID: uuid.New(), OccurredAt: jan, Direction: core.Income, Amount: "60", Currency: "EUR", Description: "sales"},
		{ID: uuid.New(), OccurredAt: jan, Direction: core.Expense, Amount: "20", Currency: "EUR", Description: "rent"},
		{ID: uuid.New(), OccurredAt: feb, Direction: core.Income, Amount: "40", Currency: "EUR", Description: "sales"},
		{ID: uuid.New(), OccurredAt: feb, Direction: core.Expense, Amount: "20", Currency: "EUR", Description: "rent"},
	}}
	srv := newTestServer(store, nil)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/finance/summary", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var report finance.Report
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Totals.Income != 100 || report.Totals.Expenses != 40 || report.Totals.Balance != 60 {
		t.Errorf("totals = %+v", report.Totals)
	}
	if !report.Profitable {
		t.Error("expected profitable report")
	}
	if report.RunwayMonths != nil {
		t.Errorf("runwayMonths should be omitted when profitable, got %v", *report.RunwayMonths)
	}
}

func TestFinanceHealth(t *testing.T) {
	store := &fakeStore{movements: []core.Movement{
		{ID: uuid.New(), OccurredAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), Direction: core.Income, Amount: "100", Currency: "EUR", Description: "sales"},
	}}
	srv := newTestServer(store, nil)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/finance/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var health finance.HealthMetrics
	if err := json.Unmarshal(rr.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Balance != 100 {
		t.Errorf("balance = %v, want 100", health.Balance)
	}
	if health.HealthScore < 0 || health.HealthScore > 100 {
		t.Errorf("health score out of range: %d", health.HealthScore)
	}
}

func TestInventoryEndpoints(t *testing.T) {
	store := &fakeStore{
		warehouses: []core.Warehouse{{ID: "wh1", Name: "North"}, {ID: "wh2", Name: "South"}},
		records: []core.StockRecord{
			{ItemID: "book-1", ItemTitle: "Field Guide", WarehouseID: "wh1", Quantity: "10", UnitPrice: "2.50"},
		},
	}
	srv := newTestServer(store, nil)
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/inventory/stock", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("stock status = %d", rr.Code)
	}
	var matrix []inventory.ItemStock
	if err := json.Unmarshal(rr.Body.Bytes(), &matrix); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(matrix) != 1 || matrix[0].Total != 10 {
		t.Errorf("matrix = %+v", matrix)
	}
	if qty, ok := matrix[0].ByWarehouse["wh2"]; !ok || qty != 0 {
		t.Errorf("empty warehouse missing from breakdown: %+v", matrix[0].ByWarehouse)
	}

	rr = do(t, srv, http.MethodGet, "/api/inventory/valuation", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("valuation status = %d", rr.Code)
	}
	var v inventory.Valuation
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Total != 25 {
		t.Errorf("valuation total = %v, want 25", v.Total)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeStore{}, nil)
	defer srv.Shutdown(context.Background())

	tests := []struct {
		method, path string
	}{
		{http.MethodDelete, "/api/movements"},
		{http.MethodPost, "/api/finance/summary"},
		{http.MethodGet, "/api/movements/import"},
		{http.MethodPost, "/api/inventory/stock"},
	}
	for _, tt := range tests {
		rr := do(t, srv, tt.method, tt.path, "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s status = %d, want 405", tt.method, tt.path, rr.Code)
		}
	}
}

func TestRateLimitOnPost(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store, nil)
	defer srv.Shutdown(context.Background())

	body := `{"occurredAt":"2026-01-01","direction":"expense","amount":"1","description":"x"}`
	var last int
	for i := 0; i < 35; i++ {
		rr := do(t, srv, http.MethodPost, "/api/movements", body)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after exceeding the limit, got %d", last)
	}
}
