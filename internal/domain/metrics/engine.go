package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/transaction"
)

const (
	// DefaultSparklineMonths is the number of months the overview charts cover
	DefaultSparklineMonths = 6
	// TopExpenseCategories is how many categories the cash digest ranks
	TopExpenseCategories = 3
	// RevenueConcentrationAdvice is attached to a digest whose expenses meet or exceed income
	RevenueConcentrationAdvice = "Consider diversifying income sources."

	sparklineLabelLayout = "Jan '06"
)

var (
	hundred          = decimal.NewFromInt(100)
	twelve           = decimal.NewFromInt(12)
	conservativeBurn = decimal.RequireFromString("1.2")
	aggressiveBurn   = decimal.RequireFromString("0.8")
)

// MonthPoint is one month of the sparkline series
type MonthPoint struct {
	Label    string          `json:"label"`
	Start    time.Time       `json:"-"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	NetBurn  decimal.Decimal `json:"net_burn"`
	Net      decimal.Decimal `json:"net"`
}

// RunwayForecast holds runway projections under three burn scenarios
type RunwayForecast struct {
	BaseMonths         *decimal.Decimal `json:"base_months"`
	ConservativeMonths *decimal.Decimal `json:"conservative_months"`
	AggressiveMonths   *decimal.Decimal `json:"aggressive_months"`
}

// BurnReport is the burn intelligence block
type BurnReport struct {
	GrossBurn30d        decimal.Decimal  `json:"gross_burn_30d"`
	NetBurn30d          decimal.Decimal  `json:"net_burn_30d"`
	NetBurnCurrentMonth decimal.Decimal  `json:"net_burn_current_month"`
	BurnMultiple        *decimal.Decimal `json:"burn_multiple"`
	AvgBurn3m           decimal.Decimal  `json:"avg_burn_3m"`
	RunwayMonths        *decimal.Decimal `json:"runway_months"`
	RunwayForecast      RunwayForecast   `json:"runway_forecast"`
}

// CashDigest summarizes money in and out over a trailing window
type CashDigest struct {
	CashIn                   decimal.Decimal `json:"cash_in"`
	CashOut                  decimal.Decimal `json:"cash_out"`
	Net                      decimal.Decimal `json:"net"`
	Days                     int             `json:"days"`
	TopExpenseCategories     []CategoryTotal `json:"top_3_expense_categories"`
	RevenueConcentrationRisk *string         `json:"revenue_concentration_risk"`
}

// Engine computes read-only financial indicators. Every calculation is pinned
// to an explicit asOf date so results are reproducible.
type Engine struct {
	src Source
}

// NewEngine creates a metrics engine over src
func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// CashBalance is the total balance across the user's active accounts
func (e *Engine) CashBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	balance, err := e.src.TotalBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute cash balance: %w", err)
	}
	return balance, nil
}

// CashInOut30d sums income and expenses over [asOf-30d, asOf]
func (e *Engine) CashInOut30d(ctx context.Context, userID int64, asOf time.Time) (cashIn, cashOut decimal.Decimal, err error) {
	return e.InOut(ctx, userID, TrailingDays(asOf, 30))
}

// MonthlyBurn is expenses minus income over the calendar month of ref, floored at zero
func (e *Engine) MonthlyBurn(ctx context.Context, userID int64, ref time.Time) (decimal.Decimal, error) {
	income, expenses, err := e.InOut(ctx, userID, MonthOf(ref))
	if err != nil {
		return decimal.Zero, err
	}
	return positivePart(expenses.Sub(income)), nil
}

// RunwayMonths is balance divided by burn, or nil when there is no burn
func RunwayMonths(balance, burn decimal.Decimal) *decimal.Decimal {
	if !burn.IsPositive() {
		return nil
	}
	runway := balance.Div(burn)
	return &runway
}

// MRR approximates monthly recurring revenue as income over the trailing 30 days
func (e *Engine) MRR(ctx context.Context, userID int64, asOf time.Time) (decimal.Decimal, error) {
	cashIn, _, err := e.CashInOut30d(ctx, userID, asOf)
	return cashIn, err
}

// ARR annualizes mrr
func ARR(mrr decimal.Decimal) decimal.Decimal {
	return mrr.Mul(twelve)
}

// RevenueGrowthPct compares month-to-date income with the whole previous
// month. A zero base yields 100 when there is any income this month, else 0.
func (e *Engine) RevenueGrowthPct(ctx context.Context, userID int64, asOf time.Time) (decimal.Decimal, error) {
	this := MonthOf(asOf)
	this.End = Day(asOf)
	last := MonthsBack(asOf, 1)

	thisIncome, err := e.src.SumByType(ctx, userID, transaction.TypeIncome, this.Start, this.End)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum income: %w", err)
	}
	lastIncome, err := e.src.SumByType(ctx, userID, transaction.TypeIncome, last.Start, last.End)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum income: %w", err)
	}

	return growthPct(thisIncome, lastIncome), nil
}

func growthPct(current, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(base).Div(base).Mul(hundred)
}

// SparklineMonths returns n calendar months ending with the month of asOf,
// oldest first
func (e *Engine) SparklineMonths(ctx context.Context, userID int64, asOf time.Time, n int) ([]MonthPoint, error) {
	if n <= 0 {
		n = DefaultSparklineMonths
	}

	points := make([]MonthPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		month := MonthsBack(asOf, i)
		income, expenses, err := e.InOut(ctx, userID, month)
		if err != nil {
			return nil, err
		}
		points = append(points, MonthPoint{
			Label:    month.Start.Format(sparklineLabelLayout),
			Start:    month.Start,
			Income:   income,
			Expenses: expenses,
			NetBurn:  positivePart(expenses.Sub(income)),
			Net:      income.Sub(expenses),
		})
	}
	return points, nil
}

// BurnIntelligence computes gross and net burn, burn multiple, the three
// month average burn and runway forecasts
func (e *Engine) BurnIntelligence(ctx context.Context, userID int64, asOf time.Time) (*BurnReport, error) {
	cash, err := e.CashBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	spark, err := e.SparklineMonths(ctx, userID, asOf, DefaultSparklineMonths)
	if err != nil {
		return nil, err
	}
	currentBurn, err := e.MonthlyBurn(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}
	cashIn, cashOut, err := e.CashInOut30d(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}

	return burnReport(cash, spark, currentBurn, cashIn, cashOut), nil
}

func burnReport(cash decimal.Decimal, spark []MonthPoint, currentBurn, cashIn, cashOut decimal.Decimal) *BurnReport {
	avg3m := averageBurn(spark, 3)
	netBurn30 := positivePart(cashOut.Sub(cashIn))

	var burnMultiple *decimal.Decimal
	if cashIn.IsPositive() {
		m := netBurn30.Div(cashIn).Round(2)
		burnMultiple = &m
	}

	base := RunwayMonths(cash, avg3m)
	if base == nil {
		base = RunwayMonths(cash, currentBurn)
	}

	return &BurnReport{
		GrossBurn30d:        cashOut,
		NetBurn30d:          netBurn30,
		NetBurnCurrentMonth: currentBurn,
		BurnMultiple:        burnMultiple,
		AvgBurn3m:           avg3m.Round(2),
		RunwayMonths:        RunwayMonths(cash, currentBurn),
		RunwayForecast: RunwayForecast{
			BaseMonths:         round1(base),
			ConservativeMonths: round1(RunwayMonths(cash, avg3m.Mul(conservativeBurn))),
			AggressiveMonths:   round1(RunwayMonths(cash, avg3m.Mul(aggressiveBurn))),
		},
	}
}

// averageBurn is the mean net burn of the last k points, zero when fewer exist
func averageBurn(spark []MonthPoint, k int) decimal.Decimal {
	if len(spark) < k {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range spark[len(spark)-k:] {
		sum = sum.Add(p.NetBurn)
	}
	return sum.Div(decimal.NewFromInt(int64(k)))
}

// CashSummaryDigest summarizes [asOf-days, asOf]: cash in and out, net, the
// top expense categories and a revenue concentration note
func (e *Engine) CashSummaryDigest(ctx context.Context, userID int64, days int, asOf time.Time) (*CashDigest, error) {
	if days <= 0 {
		days = 30
	}
	window := TrailingDays(asOf, days)

	cashIn, cashOut, err := e.InOut(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	top, err := e.src.TopCategories(ctx, userID, transaction.TypeExpense, window.Start, window.End, TopExpenseCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to rank expense categories: %w", err)
	}
	if top == nil {
		top = []CategoryTotal{}
	}

	digest := &CashDigest{
		CashIn:               cashIn,
		CashOut:              cashOut,
		Net:                  cashIn.Sub(cashOut),
		Days:                 days,
		TopExpenseCategories: top,
	}
	if cashIn.IsPositive() && cashOut.GreaterThanOrEqual(cashIn) {
		advice := RevenueConcentrationAdvice
		digest.RevenueConcentrationRisk = &advice
	}
	return digest, nil
}

// InOut sums income and expenses over w
func (e *Engine) InOut(ctx context.Context, userID int64, w Window) (income, expenses decimal.Decimal, err error) {
	income, err = e.src.SumByType(ctx, userID, transaction.TypeIncome, w.Start, w.End)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum income: %w", err)
	}
	expenses, err = e.src.SumByType(ctx, userID, transaction.TypeExpense, w.Start, w.End)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return income, expenses, nil
}

func positivePart(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func round1(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(1)
	return &r
}
