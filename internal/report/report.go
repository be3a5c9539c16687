// Package report renders a self-contained HTML review page for one session:
// decision confidence over time, per-trade realized P&L, and the cumulative
// realized curve.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	chartypes "github.com/go-echarts/go-echarts/v2/types"
	"github.com/shopspring/decimal"

	"paperdesk/internal/decision"
	"paperdesk/internal/ledger"
)

// Input bundles everything the report draws from.
type Input struct {
	SessionID string
	Symbol    string
	State     ledger.State
	Decisions []decision.Decision
	Trades    []ledger.TradeRecord
}

// Render writes the report page to w.
func Render(w io.Writer, in Input) error {
	if in.SessionID == "" {
		return fmt.Errorf("report requires a session id")
	}
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	if chart := confidenceChart(in); chart != nil {
		page.AddCharts(chart)
	}
	if len(in.Trades) > 0 {
		page.AddCharts(tradePnLChart(in), realizedCurveChart(in))
	}
	if len(page.Charts) == 0 {
		return fmt.Errorf("no report data for session %s", in.SessionID)
	}
	return page.Render(w)
}

func confidenceChart(in Input) *charts.Line {
	if len(in.Decisions) == 0 {
		return nil
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartypes.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s decision confidence", strings.ToUpper(in.Symbol)),
			Subtitle: fmt.Sprintf("%d turns, final action %s", len(in.Decisions), in.Decisions[len(in.Decisions)-1].FinalAction),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
	)

	x := make([]string, 0, len(in.Decisions))
	conf := make([]opts.LineData, 0, len(in.Decisions))
	for _, d := range in.Decisions {
		x = append(x, axisLabel(d.DecidedAt))
		conf = append(conf, opts.LineData{Value: d.Confidence, Name: string(d.FinalAction)})
	}
	line.SetXAxis(x)
	line.AddSeries("confidence", conf, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	return line
}

func tradePnLChart(in Input) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartypes.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Realized P&L per trade"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	x := make([]string, 0, len(in.Trades))
	pnl := make([]opts.BarData, 0, len(in.Trades))
	for _, t := range in.Trades {
		x = append(x, fmt.Sprintf("%s %d@%s", t.Action, t.Quantity, t.Price.StringFixed(2)))
		v, _ := t.RealizedPnL.Float64()
		pnl = append(pnl, opts.BarData{Value: v})
	}
	bar.SetXAxis(x)
	bar.AddSeries("realized", pnl)
	return bar
}

func realizedCurveChart(in Input) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: chartypes.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cumulative realized P&L",
			Subtitle: fmt.Sprintf("total %s (%.2f%%)", in.State.RealizedPnL.StringFixed(2), in.State.RealizedPnLPercent),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	x := make([]string, 0, len(in.Trades))
	curve := make([]opts.LineData, 0, len(in.Trades))
	running := decimal.Zero
	for _, t := range in.Trades {
		running = running.Add(t.RealizedPnL)
		x = append(x, axisLabel(t.ExecutedAt))
		v, _ := running.Float64()
		curve = append(curve, opts.LineData{Value: v})
	}
	line.SetXAxis(x)
	line.AddSeries("cumulative", curve, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func axisLabel(t time.Time) string {
	return t.UTC().Format("01-02 15:04:05")
}
