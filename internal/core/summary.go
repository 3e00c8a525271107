package core

// DailySummary is the derived income/expense total for one day. Rows are
// rebuildable from movements at any time; amounts stay decimal strings.
type DailySummary struct {
	Day          string // YYYY-MM-DD
	TotalIncome  string
	TotalExpense string
}
