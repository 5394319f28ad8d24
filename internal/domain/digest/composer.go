package digest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"nexus/internal/domain/metrics"
)

// Trend is the direction flag attached to a KPI
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

const healthyRunwayMonths = 6

var twelve = decimal.NewFromInt(12)

// KPI is one tile of the founder overview
type KPI struct {
	Value     *decimal.Decimal  `json:"value"`
	Trend     Trend             `json:"trend"`
	Sparkline []decimal.Decimal `json:"sparkline"`
}

// KPIs is keyed exactly as the dashboard reads it
type KPIs struct {
	CashBalance      KPI `json:"cash_balance"`
	MonthlyBurn      KPI `json:"monthly_burn"`
	RunwayMonths     KPI `json:"runway_months"`
	MRR              KPI `json:"mrr"`
	ARR              KPI `json:"arr"`
	RevenueGrowthPct KPI `json:"revenue_growth_pct"`
	CashIn30d        KPI `json:"cash_in_30d"`
	CashOut30d       KPI `json:"cash_out_30d"`
}

// Overview is the founder overview report
type Overview struct {
	AsOf            time.Time            `json:"as_of"`
	KPIs            KPIs                 `json:"kpis"`
	SparklineMonths []metrics.MonthPoint `json:"sparkline_months"`
	Burn            *metrics.BurnReport  `json:"burn"`
	RecentNet30d    decimal.Decimal      `json:"recent_net_30d"`
}

// Composer assembles report shapes out of metrics engine results
type Composer struct {
	engine *metrics.Engine
}

// NewComposer creates a composer over engine
func NewComposer(engine *metrics.Engine) *Composer {
	return &Composer{engine: engine}
}

// FounderOverview builds the KPI tiles, the monthly series and the burn block
// for asOf.
//
// The cash balance sparkline adds each month's net flow to today's balance.
// It is an approximation, not a record of historical balances. The runway
// sparkline repeats the current runway for the same reason.
func (c *Composer) FounderOverview(ctx context.Context, userID int64, asOf time.Time) (*Overview, error) {
	asOf = metrics.Day(asOf)

	cash, err := c.engine.CashBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	cashIn30, cashOut30, err := c.engine.CashInOut30d(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}
	monthlyBurn, err := c.engine.MonthlyBurn(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}
	growth, err := c.engine.RevenueGrowthPct(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}
	spark, err := c.engine.SparklineMonths(ctx, userID, asOf, metrics.DefaultSparklineMonths)
	if err != nil {
		return nil, err
	}
	burn, err := c.engine.BurnIntelligence(ctx, userID, asOf)
	if err != nil {
		return nil, err
	}

	// the 30 days before the trailing window
	prevEnd := asOf.AddDate(0, 0, -30)
	prevIn, prevOut, err := c.engine.InOut(ctx, userID, metrics.Window{Start: prevEnd.AddDate(0, 0, -30), End: prevEnd})
	if err != nil {
		return nil, err
	}

	net30 := cashIn30.Sub(cashOut30)
	prevNet := prevIn.Sub(prevOut)
	trendNet := decimal.Zero
	if !prevNet.IsZero() {
		trendNet = net30.Sub(prevNet)
	}

	runway := metrics.RunwayMonths(cash, monthlyBurn)
	mrr := cashIn30
	growthTrend := upIf(!growth.IsNegative())

	kpis := KPIs{
		CashBalance: KPI{
			Value:     ptr(cash),
			Trend:     upIf(!cash.IsNegative()),
			Sparkline: series(spark, func(p metrics.MonthPoint) decimal.Decimal { return p.Net.Add(cash) }),
		},
		MonthlyBurn: KPI{
			Value:     ptr(monthlyBurn),
			Trend:     downIf(monthlyBurn.LessThan(burn.AvgBurn3m)),
			Sparkline: series(spark, func(p metrics.MonthPoint) decimal.Decimal { return p.NetBurn }),
		},
		RunwayMonths: KPI{
			Value:     roundedPtr(runway, 2),
			Trend:     upIf(runway != nil && runway.GreaterThanOrEqual(decimal.NewFromInt(healthyRunwayMonths))),
			Sparkline: repeated(runway, len(spark)),
		},
		MRR: KPI{
			Value:     ptr(mrr),
			Trend:     growthTrend,
			Sparkline: series(spark, func(p metrics.MonthPoint) decimal.Decimal { return p.Income }),
		},
		ARR: KPI{
			Value:     ptr(metrics.ARR(mrr)),
			Trend:     growthTrend,
			Sparkline: series(spark, func(p metrics.MonthPoint) decimal.Decimal { return p.Income.Mul(twelve) }),
		},
		RevenueGrowthPct: KPI{
			Value:     roundedPtr(&growth, 2),
			Trend:     growthTrend,
			Sparkline: []decimal.Decimal{},
		},
		CashIn30d: KPI{
			Value:     ptr(cashIn30),
			Trend:     upIf(!trendNet.IsNegative()),
			Sparkline: series(spark, func(p metrics.MonthPoint) decimal.Decimal { return p.Income }),
		},
		CashOut30d: KPI{
			Value:     ptr(cashOut30),
			Trend:     downIf(!trendNet.IsNegative()),
			Sparkline: series(spark, func(p metrics.MonthPoint) decimal.Decimal { return p.Expenses }),
		},
	}

	return &Overview{
		AsOf:            asOf,
		KPIs:            kpis,
		SparklineMonths: spark,
		Burn:            burn,
		RecentNet30d:    net30,
	}, nil
}

// CashSummary is the cash summary digest over the trailing days before asOf
func (c *Composer) CashSummary(ctx context.Context, userID int64, days int, asOf time.Time) (*metrics.CashDigest, error) {
	return c.engine.CashSummaryDigest(ctx, userID, days, metrics.Day(asOf))
}

func upIf(cond bool) Trend {
	if cond {
		return TrendUp
	}
	return TrendDown
}

func downIf(cond bool) Trend {
	if cond {
		return TrendDown
	}
	return TrendUp
}

func ptr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func roundedPtr(d *decimal.Decimal, places int32) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(places)
	return &r
}

func series(spark []metrics.MonthPoint, pick func(metrics.MonthPoint) decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(spark))
	for _, p := range spark {
		out = append(out, pick(p))
	}
	return out
}

func repeated(v *decimal.Decimal, n int) []decimal.Decimal {
	if v == nil {
		return []decimal.Decimal{}
	}
	r := v.Round(2)
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = r
	}
	return out
}
