// Package report renders session reports as self-contained HTML charts.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/focusmind/focustrack/internal/session"
	"github.com/focusmind/focustrack/internal/store"
	"github.com/focusmind/focustrack/internal/threshold"
)

// Render writes an HTML focus report for the session: the score timeline as
// a line chart with horizontal markers at each intervention band and scatter
// points at the moments interventions fired.
func Render(w io.Writer, row store.SessionRow, series []session.Sample, events []threshold.Event, bands []float64) error {
	if len(series) == 0 {
		return fmt.Errorf("session %s has no samples", row.ID)
	}

	x := make([]string, 0, len(series))
	y := make([]opts.LineData, 0, len(series))
	for _, s := range series {
		x = append(x, s.Timestamp.Local().Format("15:04:05"))
		y = append(y, opts.LineData{Value: s.Score})
	}

	subtitle := fmt.Sprintf("session=%s started=%s duration=%s samples=%d mean=%.1f",
		shortID(row.ID),
		row.StartedAt.Local().Format(time.RFC3339),
		time.Duration(row.Duration*float64(time.Second)).Round(time.Second),
		row.SampleCount,
		row.Mean,
	)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Focus Report",
			Theme:     "dark",
			Width:     "1100px",
			Height:    "560px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Focus Score", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100, Name: "score"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	marks := make([]charts.SeriesOpts, 0, len(bands)+2)
	marks = append(marks,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#64b5f6"}),
	)
	for _, b := range bands {
		marks = append(marks, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
			Name:  fmt.Sprintf("band %.0f", b),
			YAxis: b,
		}))
	}
	line.SetXAxis(x).AddSeries("focus", y, marks...)

	if len(events) > 0 {
		evData := make([]opts.LineData, 0, len(events))
		for _, ev := range events {
			evData = append(evData, opts.LineData{
				Value:      []interface{}{ev.Timestamp.Local().Format("15:04:05"), ev.Score},
				Symbol:     "diamond",
				SymbolSize: 14,
			})
		}
		line.AddSeries("interventions", evData,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ef5350"}),
			charts.WithLineStyleOpts(opts.LineStyle{Opacity: opts.Float(0)}),
		)
	}

	return line.Render(w)
}

// shortID truncates a session UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
