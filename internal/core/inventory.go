package core

import (
	"errors"
	"strings"
)

type (
	// Warehouse is a storage location or point of sale.
	Warehouse struct {
		ID   string
		Name string
	}

	// StockRecord is the per-warehouse stock and pricing row for a catalog
	// item. Quantity and UnitPrice are decimal strings.
	StockRecord struct {
		ItemID      string
		ItemTitle   string
		WarehouseID string
		Quantity    string
		UnitPrice   string
	}
)

var (
	ErrEmptyItemID      = errors.New("empty item id")
	ErrEmptyWarehouseID = errors.New("empty warehouse id")
)

func (r StockRecord) Validate() error {
	if strings.TrimSpace(r.ItemID) == "" {
		return ErrEmptyItemID
	}
	if strings.TrimSpace(r.WarehouseID) == "" {
		return ErrEmptyWarehouseID
	}
	return nil
}
