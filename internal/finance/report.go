// Package finance reduces financial movements into the derived metrics the
// dashboard renders: totals, period buckets, burn rate, runway, profit margin
// and the composite health score. Every step that sums or divides money goes
// through the money engine; native float arithmetic only appears at the
// presentation boundary, where values become plain JSON numbers.
package finance

// Totals holds aggregate income, expenses and their balance.
type Totals struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

// PeriodBucket is accumulated income and expense for one period key
// (YYYY-MM for monthly buckets, YYYY-MM-DD for daily ones).
type PeriodBucket struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// BurnRate holds average monthly cash consumption. Gross is average monthly
// expense; Net is average monthly expense minus income, so a negative Net
// means the business adds cash every month.
type BurnRate struct {
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
}

// ProjectionPoint is one month of the runway projection.
type ProjectionPoint struct {
	Month   string  `json:"month"`
	Balance float64 `json:"balance"`
}

// GroupTotal is an amount rolled up under a category or cost-center name.
type GroupTotal struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Report is the full derived-metrics payload for a movement window. It is
// computed fresh per request, never cached or persisted, and is fully
// determined by its inputs.
type Report struct {
	Totals       Totals `json:"totals"`
	CurrentMonth Totals `json:"currentMonth"`

	Monthly []PeriodBucket `json:"monthly"`
	Daily   []PeriodBucket `json:"daily"`

	BurnRate          BurnRate `json:"burnRate"`
	AvgMonthlyIncome  float64  `json:"avgMonthlyIncome"`
	AvgMonthlyExpense float64  `json:"avgMonthlyExpense"`
	ProfitMargin      float64  `json:"profitMargin"`

	// Profitable is the canonical infinite-runway sentinel: when net burn is
	// zero or negative the business is not consuming cash, RunwayMonths is
	// omitted and Profitable is true.
	Profitable   bool     `json:"profitable"`
	RunwayMonths *float64 `json:"runwayMonths,omitempty"`

	HealthScore      int               `json:"healthScore"`
	RunwayProjection []ProjectionPoint `json:"runwayProjection"`

	ByCategory   []GroupTotal `json:"byCategory"`
	ByCostCenter []GroupTotal `json:"byCostCenter"`
}

// HealthMetrics is the compact health view consumed by the dashboard header.
type HealthMetrics struct {
	HealthScore  int      `json:"healthScore"`
	Profitable   bool     `json:"profitable"`
	RunwayMonths *float64 `json:"runwayMonths,omitempty"`
	BurnRate     BurnRate `json:"burnRate"`
	ProfitMargin float64  `json:"profitMargin"`
	Balance      float64  `json:"balance"`
}

// Health extracts the compact health view from a full report.
func (r Report) Health() HealthMetrics {
	return HealthMetrics{
		HealthScore:  r.HealthScore,
		Profitable:   r.Profitable,
		RunwayMonths: r.RunwayMonths,
		BurnRate:     r.BurnRate,
		ProfitMargin: r.ProfitMargin,
		Balance:      r.Totals.Balance,
	}
}
