package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"tanuki/internal/core"
)

// rollupBy groups movements by the given key and sums their reporting
// amounts. Groups come back sorted by descending magnitude, capped to the
// aggregator's top-N; movements with no key land in the uncategorized bucket
// rather than being dropped.
func (a *Aggregator) rollupBy(movements []core.Movement, key func(core.Movement) string) []GroupTotal {
	sums := make(map[string]decimal.Decimal)
	for _, m := range movements {
		k := key(m)
		sums[k] = sums[k].Add(a.reportingAmount(m))
	}

	type group struct {
		name string
		sum  decimal.Decimal
	}
	groups := make([]group, 0, len(sums))
	for name, sum := range sums {
		groups = append(groups, group{name: name, sum: sum})
	}
	sort.Slice(groups, func(i, j int) bool {
		cmp := groups[i].sum.Abs().Cmp(groups[j].sum.Abs())
		if cmp != 0 {
			return cmp > 0
		}
		return groups[i].name < groups[j].name
	})

	if len(groups) > a.topGroups {
		groups = groups[:a.topGroups]
	}

	out := make([]GroupTotal, len(groups))
	for i, g := range groups {
		out[i] = GroupTotal{Name: g.name, Amount: a.eng.ToNumber(g.sum)}
	}
	return out
}

// RollupByCategory sums movement amounts per category for chart consumers.
func (a *Aggregator) RollupByCategory(movements []core.Movement) []GroupTotal {
	return a.rollupBy(movements, core.Movement.CategoryKey)
}

// RollupByCostCenter sums movement amounts per cost center.
func (a *Aggregator) RollupByCostCenter(movements []core.Movement) []GroupTotal {
	return a.rollupBy(movements, core.Movement.CostCenterKey)
}

// TopN trims an already-sorted rollup to at most n entries. Consumers cap
// their chart legends at different sizes.
func TopN(groups []GroupTotal, n int) []GroupTotal {
	if n < 1 || len(groups) <= n {
		return groups
	}
	return groups[:n]
}
