package cli

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/workflow"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var weekdayNames = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Printer renders snapshots and results for a terminal.
type Printer struct {
	w   io.Writer
	yen *message.Printer

	title   *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	muted   *color.Color
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w:       w,
		yen:     message.NewPrinter(language.Japanese),
		title:   color.New(color.FgCyan, color.Bold),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		muted:   color.New(color.Faint),
	}
}

func (p *Printer) Banner() {
	p.title.Fprintln(p.w, "📈 Sales Forecast")
	p.muted.Fprintln(p.w, "Type `help` for commands, `quit` to exit.")
	fmt.Fprintln(p.w)
}

func (p *Printer) Prompt(s workflow.Snapshot) {
	p.muted.Fprintf(p.w, "[%s] ", s.ActiveStep)
	fmt.Fprint(p.w, "> ")
}

func (p *Printer) Ask(prompt string) {
	fmt.Fprintf(p.w, "%s: ", prompt)
}

func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.success.Fprintf(p.w, "✅ "+format+"\n", args...)
}

func (p *Printer) Warn(format string, args ...any) {
	p.warn.Fprintf(p.w, "⚠️  "+format+"\n", args...)
}

func (p *Printer) Error(err error) {
	p.fail.Fprintf(p.w, "❌ %s\n", apperror.Message(err))
	if apperror.Is(err, apperror.KindAuthExpired) {
		p.muted.Fprintln(p.w, "   Use `login <email>` to continue.")
	}
}

func (p *Printer) Help(commands map[string]command) {
	for _, name := range slices.Sorted(maps.Keys(commands)) {
		cmd := commands[name]
		fmt.Fprintf(p.w, "  %-42s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(p.w, "  %-42s %s\n", "quit", "leave")
}

func (p *Printer) Snapshot(s workflow.Snapshot) {
	p.title.Fprintln(p.w, "Workflow")
	if s.Status == nil {
		fmt.Fprintln(p.w, "  Status:     unknown (not logged in or not refreshed)")
	} else {
		fmt.Fprintf(p.w, "  Data:       %s\n", yesNo(s.Status.DataLoaded))
		fmt.Fprintf(p.w, "  Model:      %s\n", yesNo(s.Status.ModelTrained))
	}
	fmt.Fprintf(p.w, "  Step:       %s\n", s.ActiveStep)
	fmt.Fprintf(p.w, "  Tab:        %s\n", s.Tab)

	var open []string
	for _, tab := range []workflow.Tab{workflow.TabStatistics, workflow.TabPredict, workflow.TabResults} {
		if s.Access.Allows(tab) {
			open = append(open, tab.String())
		}
	}
	if len(open) > 0 {
		fmt.Fprintf(p.w, "  Unlocked:   %s\n", strings.Join(open, ", "))
	}
	if s.Busy {
		p.warn.Fprintln(p.w, "  Busy:       a request is in flight")
	}
	if s.LastError != nil {
		p.fail.Fprintf(p.w, "  Last error: %s\n", *s.LastError)
	}
}

func (p *Printer) Statistics(stats workflow.Statistics) {
	if stats == nil {
		fmt.Fprintln(p.w, "No statistics yet. Upload a CSV first.")
		return
	}

	p.title.Fprintln(p.w, "Data statistics")
	if total, ok := stats.TotalRecords(); ok {
		fmt.Fprintf(p.w, "  Records:    %s\n", p.yen.Sprintf("%d", total))
	} else {
		fmt.Fprintln(p.w, "  Records:    unknown")
	}
	fmt.Fprintf(p.w, "  Date range: %s\n", dateRange(stats.DateRange()))

	switch st := stats.(type) {
	case *workflow.FallbackStatistics:
		p.warn.Fprintln(p.w, "  Detailed aggregates are not available right now.")
		p.muted.Fprintf(p.w, "  (summary from %s)\n", st.Origin)
	case *workflow.AuthoritativeStatistics:
		if st.HolidayImpact != nil {
			fmt.Fprintf(p.w, "  Holiday avg: %s   Regular avg: %s\n",
				p.money(st.HolidayImpact.HolidayAvg), p.money(st.HolidayImpact.RegularAvg))
		}
		p.series("Monthly average sales", st.MonthlySales, func(k string) string { return k + "月" })
		p.series("Weekday average sales", st.WeekdaySales, weekdayLabel)
		p.series("Sales by weather", st.WeatherImpact, func(k string) string { return k })
	}
}

func (p *Printer) series(title string, values map[string]float64, label func(string) string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(p.w, "  %s\n", title)
	for _, k := range sortedKeys(values) {
		fmt.Fprintf(p.w, "    %-6s %s\n", label(k), p.money(values[k]))
	}
}

func (p *Printer) Training(res *dto.TrainResult) {
	p.success.Fprintln(p.w, "✅ Model trained")
	m := res.Metrics
	fmt.Fprintf(p.w, "  Samples:    %d train / %d test\n", m.TrainingSamples, m.TestSamples)
	fmt.Fprintf(p.w, "  Sales:      R² %.3f  MAE %s  MAPE %.1f%%\n", m.SalesMetrics.R2, p.money(m.SalesMetrics.MAE), m.SalesMetrics.MAPE)
	fmt.Fprintf(p.w, "  Customers:  R² %.3f  MAE %.1f\n", m.CustomersMetrics.R2, m.CustomersMetrics.MAE)
}

func (p *Printer) Prediction(res *dto.PredictionResult) {
	if res == nil {
		fmt.Fprintln(p.w, "No prediction yet.")
		return
	}

	p.title.Fprintf(p.w, "Forecast for %s\n", res.Date)
	ci := res.ConfidenceInterval
	fmt.Fprintf(p.w, "  Sales:      %s  (%s – %s)\n", p.money(res.PredictedSales), p.money(ci.SalesLower), p.money(ci.SalesUpper))
	fmt.Fprintf(p.w, "  Customers:  %d  (%.0f – %.0f)\n", res.PredictedCustomers, ci.CustomersLower, ci.CustomersUpper)

	wf := res.WeatherForecast
	if wf.Location != "" || wf.Weather != "" {
		fmt.Fprintf(p.w, "  Weather:    %s %s, %.1f°C", wf.Location, wf.Weather, wf.Temperature)
		if wf.Source != "" {
			p.muted.Fprintf(p.w, " [%s]", wf.Source)
		}
		fmt.Fprintln(p.w)
	}
}

func (p *Printer) Dashboard(d *workflow.Dashboard) {
	p.title.Fprintln(p.w, "Dashboard")
	if d.Stats != nil {
		fmt.Fprintf(p.w, "  Data points: %s\n", p.yen.Sprintf("%d", d.Stats.TotalDataPoints))
		fmt.Fprintf(p.w, "  Date range:  %s\n", dateRange(d.Stats.DateRange))
		fmt.Fprintf(p.w, "  Model:       %s\n", yesNo(d.Stats.ModelStatus.Trained))
	}

	if len(d.History) == 0 {
		fmt.Fprintln(p.w, "  No predictions yet.")
		return
	}
	fmt.Fprintln(p.w, "  Recent predictions")
	for _, h := range d.History {
		weather := "-"
		if h.WeatherCondition != nil {
			weather = *h.WeatherCondition
		}
		fmt.Fprintf(p.w, "    %s  %12s  %4d customers  %s\n", h.PredictionDate, p.money(h.PredictedSales), h.PredictedCustomers, weather)
	}
}

func (p *Printer) User(u *dto.User) {
	p.title.Fprintln(p.w, "Profile")
	fmt.Fprintf(p.w, "  Name:        %s\n", u.Username)
	fmt.Fprintf(p.w, "  Email:       %s\n", u.Email)
	fmt.Fprintf(p.w, "  Store:       %s\n", orDash(u.StoreName))
	fmt.Fprintf(p.w, "  Postal code: %s\n", orDash(u.PostalCode))
}

func (p *Printer) money(v float64) string {
	return p.yen.Sprintf("¥%d", int64(math.Round(v)))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func dateRange(r dto.DateRange) string {
	if r.Start == nil && r.End == nil {
		return "unknown"
	}
	return fmt.Sprintf("%s ~ %s", orDash(r.Start), orDash(r.End))
}

func weekdayLabel(k string) string {
	if i, err := strconv.Atoi(k); err == nil && i >= 0 && i < len(weekdayNames) {
		return weekdayNames[i]
	}
	return k
}

// sortedKeys orders numeric keys numerically and the rest lexically.
func sortedKeys(m map[string]float64) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b string) int {
		ai, aErr := strconv.Atoi(a)
		bi, bErr := strconv.Atoi(b)
		if aErr == nil && bErr == nil {
			return ai - bi
		}
		return strings.Compare(a, b)
	})
	return keys
}
