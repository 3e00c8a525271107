package http

import (
	"context"
	"log/slog"
	"net/http"

	"tanuki/internal/core"
)

const warehouseCacheKey = "warehouses"

func (s *Server) loadWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	if cached, ok := s.warehouses.Get(warehouseCacheKey); ok {
		return cached, nil
	}
	warehouses, err := s.stock.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}
	s.warehouses.Set(warehouseCacheKey, warehouses)
	return warehouses, nil
}

func (s *Server) handleInventoryStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	records, err := s.stock.ListStockRecords(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List stock records failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stock records")
		return
	}
	warehouses, err := s.loadWarehouses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List warehouses failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load warehouses")
		return
	}

	writeJSON(w, http.StatusOK, s.stockSvc.BuildStockMatrix(records, warehouses))
}

func (s *Server) handleInventoryValuation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	records, err := s.stock.ListStockRecords(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List stock records failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load stock records")
		return
	}

	writeJSON(w, http.StatusOK, s.stockSvc.Valuate(records))
}
