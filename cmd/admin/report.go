package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"nexus/internal/domain/digest"
	"nexus/internal/domain/metrics"
	"nexus/internal/domain/recurring"
)

const maxPrintedErrors = 5

func formatAmount(v *decimal.Decimal) string {
	if v == nil {
		return "n/a"
	}
	return v.StringFixed(2)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

func writeOverviewTable(w io.Writer, o *digest.Overview) {
	table := newTable(w, "KPI", "Value", "Trend")

	rows := []struct {
		name string
		kpi  digest.KPI
	}{
		{"Cash balance", o.KPIs.CashBalance},
		{"Monthly burn", o.KPIs.MonthlyBurn},
		{"Runway (months)", o.KPIs.RunwayMonths},
		{"MRR", o.KPIs.MRR},
		{"ARR", o.KPIs.ARR},
		{"Revenue growth %", o.KPIs.RevenueGrowthPct},
		{"Cash in (30d)", o.KPIs.CashIn30d},
		{"Cash out (30d)", o.KPIs.CashOut30d},
	}
	for _, r := range rows {
		table.Append([]string{r.name, formatAmount(r.kpi.Value), string(r.kpi.Trend)})
	}
	table.SetFooter([]string{"Net (30d)", o.RecentNet30d.StringFixed(2), ""})
	table.Render()
}

func writeMonthsTable(w io.Writer, months []metrics.MonthPoint) {
	table := newTable(w, "Month", "Income", "Expenses", "Net burn", "Net")
	for _, m := range months {
		table.Append([]string{
			m.Label,
			m.Income.StringFixed(2),
			m.Expenses.StringFixed(2),
			m.NetBurn.StringFixed(2),
			m.Net.StringFixed(2),
		})
	}
	table.Render()
}

func writeDigestTable(w io.Writer, d *metrics.CashDigest) {
	table := newTable(w, "", "Amount")
	table.Append([]string{"Cash in", d.CashIn.StringFixed(2)})
	table.Append([]string{"Cash out", d.CashOut.StringFixed(2)})
	table.Append([]string{"Net", d.Net.StringFixed(2)})
	table.Render()

	if len(d.TopExpenseCategories) > 0 {
		fmt.Fprintln(w)
		categories := newTable(w, "#", "Category", "Spent")
		for i, c := range d.TopExpenseCategories {
			categories.Append([]string{strconv.Itoa(i + 1), c.Category, c.Total.StringFixed(2)})
		}
		categories.Render()
	}

	if d.RevenueConcentrationRisk != nil {
		fmt.Fprintf(w, "\nNote: %s\n", *d.RevenueConcentrationRisk)
	}
}

// writeRunTable prints one row per user, lowest id first
func writeRunTable(w io.Writer, results map[int64]*recurring.RunResult) {
	userIDs := make([]int64, 0, len(results))
	for id := range results {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	table := newTable(w, "User", "Processed", "Created", "Failed")
	for _, id := range userIDs {
		r := results[id]
		table.Append([]string{
			strconv.FormatInt(id, 10),
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Created),
			strconv.Itoa(r.Failed),
		})
	}
	total := recurring.Summarize(results)
	table.SetFooter([]string{"Total", strconv.Itoa(total.Processed), strconv.Itoa(total.Created), strconv.Itoa(total.Failed)})
	table.Render()

	for _, id := range userIDs {
		errs := results[id].Errors
		for i, e := range errs {
			if i >= maxPrintedErrors {
				fmt.Fprintf(w, "  user %d: ... and %d more errors\n", id, len(errs)-maxPrintedErrors)
				break
			}
			fmt.Fprintf(w, "  user %d: %s\n", id, e)
		}
	}
}

// renderSparklineChart draws monthly income and expenses as two lines with
// one tick per month
func renderSparklineChart(w io.Writer, o *digest.Overview) error {
	n := len(o.SparklineMonths)
	if n < 2 {
		return fmt.Errorf("need at least 2 months to chart, got %d", n)
	}

	xs := make([]float64, n)
	income := make([]float64, n)
	expenses := make([]float64, n)
	ticks := make([]chart.Tick, n)
	for i, m := range o.SparklineMonths {
		xs[i] = float64(i)
		income[i] = m.Income.InexactFloat64()
		expenses[i] = m.Expenses.InexactFloat64()
		ticks[i] = chart.Tick{Value: float64(i), Label: m.Label}
	}

	graph := chart.Chart{
		Title: fmt.Sprintf("Income vs expenses as of %s", o.AsOf.Format("2006-01-02")),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		XAxis:  chart.XAxis{Ticks: ticks},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if vf, isFloat := v.(float64); isFloat {
					return fmt.Sprintf("%.0f", vf)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "Income", XValues: xs, YValues: income},
			chart.ContinuousSeries{Name: "Expenses", XValues: xs, YValues: expenses},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}
