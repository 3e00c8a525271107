// Package inventory builds the stock matrix and stock valuation from raw
// per-warehouse stock records. All quantity and price arithmetic goes
// through the money engine so source-form quirks in the records cannot
// skew totals.
package inventory

import (
	"sort"

	"tanuki/internal/core"
	"tanuki/internal/money"
)

type (
	// ItemStock is one row of the stock matrix: total quantity for an item
	// plus the per-warehouse breakdown. Every known warehouse appears in
	// ByWarehouse, with zero when the item is absent there.
	ItemStock struct {
		ItemID      string             `json:"itemId"`
		ItemTitle   string             `json:"itemTitle"`
		Total       float64            `json:"total"`
		ByWarehouse map[string]float64 `json:"byWarehouse"`
	}

	// ItemValuation is quantity times unit price for an item, summed over
	// warehouses.
	ItemValuation struct {
		ItemID    string  `json:"itemId"`
		ItemTitle string  `json:"itemTitle"`
		Value     float64 `json:"value"`
	}

	// Valuation is the full stock valuation report.
	Valuation struct {
		Items       []ItemValuation    `json:"items"`
		ByWarehouse map[string]float64 `json:"byWarehouse"`
		Total       float64            `json:"total"`
	}
)

// Service computes stock views. It holds no state beyond the engine.
type Service struct {
	eng *money.Engine
}

func NewService(eng *money.Engine) *Service {
	return &Service{eng: eng}
}

// BuildStockMatrix aggregates stock records into one row per item. The
// total for an item is always the engine sum of its breakdown, so the two
// cannot drift apart.
func (s *Service) BuildStockMatrix(records []core.StockRecord, warehouses []core.Warehouse) []ItemStock {
	type acc struct {
		title string
		byWH  map[string]any
	}

	items := make(map[string]*acc)
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		a, ok := items[r.ItemID]
		if !ok {
			a = &acc{title: r.ItemTitle, byWH: make(map[string]any)}
			items[r.ItemID] = a
		}
		if a.title == "" {
			a.title = r.ItemTitle
		}
		a.byWH[r.WarehouseID] = s.eng.Add(a.byWH[r.WarehouseID], r.Quantity)
	}

	out := make([]ItemStock, 0, len(items))
	for id, a := range items {
		row := ItemStock{
			ItemID:      id,
			ItemTitle:   a.title,
			ByWarehouse: make(map[string]float64, len(warehouses)),
		}
		var total any
		for _, w := range warehouses {
			qty := a.byWH[w.ID]
			total = s.eng.Add(total, qty)
			row.ByWarehouse[w.ID] = s.eng.ToNumber(qty)
		}
		// Records referencing warehouses outside the known set still count.
		for whID, qty := range a.byWH {
			if _, known := row.ByWarehouse[whID]; known {
				continue
			}
			total = s.eng.Add(total, qty)
			row.ByWarehouse[whID] = s.eng.ToNumber(qty)
		}
		row.Total = s.eng.ToNumber(total)
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Valuate prices the stock: quantity times unit price per record, summed
// per item, per warehouse and overall.
func (s *Service) Valuate(records []core.StockRecord) Valuation {
	type acc struct {
		title string
		value any
	}

	items := make(map[string]*acc)
	byWH := make(map[string]any)
	var total any

	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		line := s.eng.Mul(r.Quantity, r.UnitPrice)

		a, ok := items[r.ItemID]
		if !ok {
			a = &acc{title: r.ItemTitle}
			items[r.ItemID] = a
		}
		a.value = s.eng.Add(a.value, line)
		byWH[r.WarehouseID] = s.eng.Add(byWH[r.WarehouseID], line)
		total = s.eng.Add(total, line)
	}

	v := Valuation{
		Items:       make([]ItemValuation, 0, len(items)),
		ByWarehouse: make(map[string]float64, len(byWH)),
		Total:       s.eng.ToNumber(total),
	}
	for id, a := range items {
		v.Items = append(v.Items, ItemValuation{ItemID: id, ItemTitle: a.title, Value: s.eng.ToNumber(a.value)})
	}
	for whID, sum := range byWH {
		v.ByWarehouse[whID] = s.eng.ToNumber(sum)
	}
	sort.Slice(v.Items, func(i, j int) bool { return v.Items[i].ItemID < v.Items[j].ItemID })
	return v
}
