package finance

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tanuki/internal/core"
	"tanuki/internal/money"
)

// DefaultTopGroups caps category and cost-center rollups for display.
const DefaultTopGroups = 8

// DefaultBurnWindowMonths of zero averages burn over every observed month,
// so the default gross burn rate equals the average monthly expense. A
// positive window narrows burn to the most recent months for consumers who
// want the current spending pace instead.
const DefaultBurnWindowMonths = 0

// projectionHorizon is how many months of runway projection a report carries.
const projectionHorizon = 12

// Aggregator folds movements into a Report. It is stateless per invocation
// and safe for concurrent use from multiple requests.
type Aggregator struct {
	eng        *money.Engine
	policy     HealthPolicy
	topGroups  int
	burnWindow int
}

// NewAggregator builds an Aggregator on the given engine. topGroups caps the
// rollup sections; values below 1 fall back to the default. burnWindowMonths
// above zero narrows the burn rates to that many recent months, zero or
// below means the full observed window.
func NewAggregator(eng *money.Engine, policy HealthPolicy, topGroups, burnWindowMonths int) *Aggregator {
	if topGroups < 1 {
		topGroups = DefaultTopGroups
	}
	if burnWindowMonths < 0 {
		burnWindowMonths = DefaultBurnWindowMonths
	}
	return &Aggregator{eng: eng, policy: policy, topGroups: topGroups, burnWindow: burnWindowMonths}
}

type bucketAcc struct {
	income  decimal.Decimal
	expense decimal.Decimal
}

// Summarize reduces the movement window into the full report. now anchors the
// current-month scope and the projection start; the caller passes its clock so
// the computation stays a pure function of its inputs.
func (a *Aggregator) Summarize(now time.Time, movements []core.Movement) Report {
	monthly := make(map[string]*bucketAcc)
	daily := make(map[string]*bucketAcc)

	totalIncome := decimal.Zero
	totalExpense := decimal.Zero
	curIncome := decimal.Zero
	curExpense := decimal.Zero
	currentMonth := now.Format("2006-01")

	for _, m := range movements {
		amt := a.reportingAmount(m)

		mb := bucket(monthly, m.MonthKey())
		db := bucket(daily, m.DayKey())

		if m.Direction == core.Income {
			totalIncome = totalIncome.Add(amt)
			mb.income = mb.income.Add(amt)
			db.income = db.income.Add(amt)
			if m.MonthKey() == currentMonth {
				curIncome = curIncome.Add(amt)
			}
		} else {
			totalExpense = totalExpense.Add(amt)
			mb.expense = mb.expense.Add(amt)
			db.expense = db.expense.Add(amt)
			if m.MonthKey() == currentMonth {
				curExpense = curExpense.Add(amt)
			}
		}
	}

	monthCount := len(monthly)
	avgIncome := a.eng.Div(totalIncome, monthCount)
	avgExpense := a.eng.Div(totalExpense, monthCount)
	grossBurn, netBurn := a.burnRates(monthly)
	balance := totalIncome.Sub(totalExpense)
	margin := a.eng.Div(balance, totalIncome)

	profitable := netBurn.Sign() <= 0
	var runwayMonths *float64
	runwayArg := math.Inf(1)
	if !profitable {
		runway := a.eng.Div(balance, netBurn)
		if runway.IsNegative() {
			runway = decimal.Zero
		}
		f := a.eng.ToNumber(runway)
		runwayMonths = &f
		runwayArg = f
	}

	trend := a.trend(monthly)

	r := Report{
		Totals: Totals{
			Income:   a.eng.ToNumber(totalIncome),
			Expenses: a.eng.ToNumber(totalExpense),
			Balance:  a.eng.ToNumber(balance),
		},
		CurrentMonth: Totals{
			Income:   a.eng.ToNumber(curIncome),
			Expenses: a.eng.ToNumber(curExpense),
			Balance:  a.eng.ToNumber(curIncome.Sub(curExpense)),
		},
		Monthly: a.buckets(monthly),
		Daily:   a.buckets(daily),
		BurnRate: BurnRate{
			Gross: a.eng.ToNumber(grossBurn),
			Net:   a.eng.ToNumber(netBurn),
		},
		AvgMonthlyIncome:  a.eng.ToNumber(avgIncome),
		AvgMonthlyExpense: a.eng.ToNumber(avgExpense),
		ProfitMargin:      a.eng.ToNumber(margin),
		Profitable:        profitable,
		RunwayMonths:      runwayMonths,
		HealthScore:       a.policy.Score(runwayArg, a.eng.ToNumber(margin), trend),
		RunwayProjection:  a.projection(now, balance, netBurn),
		ByCategory:        a.rollupBy(movements, core.Movement.CategoryKey),
		ByCostCenter:      a.rollupBy(movements, core.Movement.CostCenterKey),
	}
	return r
}

// reportingAmount resolves the movement's amount in the reporting currency:
// an explicit reporting amount wins, then amount times exchange rate for
// foreign currencies, then the raw amount.
func (a *Aggregator) reportingAmount(m core.Movement) decimal.Decimal {
	if strings.TrimSpace(m.ReportingAmount) != "" {
		return a.eng.Normalize(m.ReportingAmount)
	}
	amt := a.eng.Normalize(m.Amount)
	if m.Currency != "" && !strings.EqualFold(m.Currency, core.DefaultCurrency) && a.eng.GtZero(m.ExchangeRate) {
		return a.eng.Mul(amt, m.ExchangeRate)
	}
	return amt
}

// burnRates averages expense (gross) and expense minus income (net) over the
// observed months, narrowed to the most recent burnWindow months when one is
// configured. A zero month count yields zero rates, per the division policy.
func (a *Aggregator) burnRates(monthly map[string]*bucketAcc) (gross, net decimal.Decimal) {
	if len(monthly) == 0 {
		return decimal.Zero, decimal.Zero
	}
	keys := make([]string, 0, len(monthly))
	for k := range monthly {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if a.burnWindow > 0 && len(keys) > a.burnWindow {
		keys = keys[len(keys)-a.burnWindow:]
	}

	expense := decimal.Zero
	income := decimal.Zero
	for _, k := range keys {
		expense = expense.Add(monthly[k].expense)
		income = income.Add(monthly[k].income)
	}
	gross = a.eng.Div(expense, len(keys))
	net = a.eng.Div(expense.Sub(income), len(keys))
	return gross, net
}

func bucket(m map[string]*bucketAcc, key string) *bucketAcc {
	b, ok := m[key]
	if !ok {
		b = &bucketAcc{income: decimal.Zero, expense: decimal.Zero}
		m[key] = b
	}
	return b
}

func (a *Aggregator) buckets(m map[string]*bucketAcc) []PeriodBucket {
	out := make([]PeriodBucket, 0, len(m))
	for key, b := range m {
		out = append(out, PeriodBucket{
			Period:  key,
			Income:  a.eng.ToNumber(b.income),
			Expense: a.eng.ToNumber(b.expense),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// trend compares the two most recent observed months' net results.
func (a *Aggregator) trend(monthly map[string]*bucketAcc) float64 {
	if len(monthly) < 2 {
		return TrendFlat
	}
	keys := make([]string, 0, len(monthly))
	for k := range monthly {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	last := monthly[keys[len(keys)-1]]
	prev := monthly[keys[len(keys)-2]]
	lastNet := last.income.Sub(last.expense)
	prevNet := prev.income.Sub(prev.expense)

	switch lastNet.Cmp(prevNet) {
	case 1:
		return TrendImproving
	case -1:
		return TrendDeclining
	default:
		return TrendFlat
	}
}

// projection walks the balance forward one net-burn step per month. A cash
// consuming business bottoms out at zero; a profitable one keeps climbing.
func (a *Aggregator) projection(now time.Time, balance, netBurn decimal.Decimal) []ProjectionPoint {
	points := make([]ProjectionPoint, 0, projectionHorizon)
	projected := balance
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < projectionHorizon; i++ {
		month = month.AddDate(0, 1, 0)
		projected = projected.Sub(netBurn)
		if projected.IsNegative() {
			projected = decimal.Zero
		}
		points = append(points, ProjectionPoint{
			Month:   month.Format("2006-01"),
			Balance: a.eng.ToNumber(projected),
		})
		if projected.IsZero() && netBurn.Sign() > 0 {
			break
		}
	}
	return points
}
