package app

// this file contains all functions related to charting

import (
	"context"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"

	"github.com/papaburgs/spacegui/internal/db"
	"github.com/papaburgs/spacegui/internal/result"
)

// chartPeriod describes one of the credit chart windows.
type chartPeriod struct {
	span     time.Duration
	title    string
	subtitle string
}

var chartPeriods = map[string]chartPeriod{
	"1h":  {time.Hour, "Credits - last hour", "All data points"},
	"4h":  {4 * time.Hour, "Credits - last 4 hours", "Thinned to 200 points"},
	"24h": {24 * time.Hour, "Credits - last 24 hours", "Thinned to 200 points"},
	"7d":  {7 * 24 * time.Hour, "Credits - last 7 days", "Adaptive down-sampling"},
}

// targetPoints keeps the longer charts readable.
const targetPoints = 200

// stride is how many records to skip between points so a window holds about
// targetPoints of them at the collector's cadence.
func (a *App) stride(span time.Duration) int {
	perHour := a.collectPointsPerHour
	if perHour == 0 {
		perHour = 12 // assume 5-min cadence
	}
	estimatedTotal := int(span.Hours() * float64(perHour))
	if estimatedTotal <= targetPoints {
		return 1
	}
	return estimatedTotal / targetPoints
}

func (a *App) CreditChart(ctx context.Context, period string, agents []string) *charts.Line {
	p, ok := chartPeriods[period]
	if !ok {
		period, p = "1h", chartPeriods["1h"]
	}
	line := charts.NewLine()
	startMs := int(time.Now().Add(-p.span).UnixMilli())
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark"}),
		charts.WithTitleOpts(opts.Title{
			Title:    p.title,
			Subtitle: p.subtitle,
		}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Min: startMs}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	stride := 1
	if period != "1h" {
		stride = a.stride(p.span)
	}
	for _, symbol := range agents {
		hist, err := db.AgentRecords(ctx, a.db, symbol, p.span)
		if err != nil {
			slog.Error("error getting agent records", "agent", symbol, "error", err)
			continue
		}
		items := make([]opts.LineData, 0, len(hist)/stride+1)
		for i, r := range hist {
			if i%stride == 0 {
				items = append(items, opts.LineData{Value: []interface{}{r.Timestamp.UnixMilli(), r.Credits}})
			}
		}
		line.AddSeries(symbol, items)
	}
	return line
}

// RenderChartFragment renders a go-echarts chart as a fragment (div + script) to the ResponseWriter.
func (a *App) RenderChartFragment(w io.Writer, chart render.Renderer) error {
	snippet := chart.RenderSnippet()

	data := struct {
		Element template.HTML
		Script  template.HTML
	}{
		Element: template.HTML(snippet.Element),
		Script:  template.HTML(snippet.Script),
	}

	return a.t.ExecuteTemplate(w, "chart.html", data)
}

// LoadChartHandler draws the credit chart for ?period= (1h, 4h, 24h, 7d).
// The own agent is always charted; ?agents=A,B adds more.
func (a *App) LoadChartHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if a.db == nil {
		a.render(w, "status.html", result.Result[int]{State: result.Error, Detail: "credit history needs a database"})
		return
	}
	q := r.URL.Query()

	var own []string
	if agent, err := a.agent(ctx); err == nil {
		own = append(own, agent.Symbol)
	} else {
		slog.Warn("could not read agent for chart", "error", err)
	}
	effectiveAgents := mergeAgents(own, q["agents"])
	if len(effectiveAgents) == 0 {
		// fall back to whatever the collector has seen
		known, err := db.AgentSymbols(ctx, a.db)
		if err != nil {
			slog.Error("error listing agents", "error", err)
		}
		effectiveAgents = known
	}

	line := a.CreditChart(ctx, q.Get("period"), effectiveAgents)
	w.Header().Set("Content-Type", "text/html")
	if err := a.RenderChartFragment(w, line); err != nil {
		slog.Error("error rendering chart", "error", err)
	}
}

// mergeAgents accepts a variable number of 'any' type arguments.
// It processes the arguments to collect strings:
// - If an argument is a string, it is split by comma, trimmed, and added.
// - If an argument is a []string (list of strings), each element is treated as a string.
// The function returns a sorted, deduplicated list of strings. Case is kept
// since symbols are stored exactly as the backend sends them.
func mergeAgents(args ...any) []string {
	seen := make(map[string]bool)
	add := func(s string) {
		for _, part := range strings.Split(s, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				seen[trimmed] = true
			}
		}
	}

	for _, arg := range args {
		if arg == nil {
			continue
		}
		v := reflect.ValueOf(arg)
		switch v.Kind() {
		case reflect.String:
			add(v.String())
		case reflect.Slice:
			for i := 0; i < v.Len(); i++ {
				if e := v.Index(i); e.Kind() == reflect.String {
					add(e.String())
				}
			}
		}
	}

	merged := make([]string, 0, len(seen))
	for s := range seen {
		merged = append(merged, s)
	}
	sort.Strings(merged)
	return merged
}
