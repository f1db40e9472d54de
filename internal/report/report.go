// Package report aggregates send outcomes into per-signal totals,
// prints each outcome as it arrives and renders the final summary.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ollystack/otlpgen/internal/telemetry"
	"github.com/ollystack/otlpgen/internal/transport"
)

// Exit codes beyond the failure count range.
const (
	maxFailureExitCode = 124
	ExitSetupError     = 125
)

// Totals counts the sends of one signal
type Totals struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Report is safe for concurrent use.
type Report struct {
	mu          sync.Mutex
	out         io.Writer
	styles      styles
	totals      map[telemetry.Signal]*Totals
	identifiers map[telemetry.Signal][]string
	health      *transport.HealthResult
	interrupted bool
}

type styles struct {
	ok, fail, warn, header, hint lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		ok:     r.NewStyle().Foreground(lipgloss.Color("#50fa7b")),
		fail:   r.NewStyle().Foreground(lipgloss.Color("#ff5555")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#ffb86c")),
		header: r.NewStyle().Bold(true).Padding(0, 1),
		hint:   r.NewStyle().Foreground(lipgloss.Color("#6272a4")),
	}
}

// New creates a Report printing to out.
func New(out io.Writer) *Report {
	totals := make(map[telemetry.Signal]*Totals, len(telemetry.Signals))
	for _, s := range telemetry.Signals {
		totals[s] = &Totals{}
	}
	return &Report{
		out:         out,
		styles:      newStyles(lipgloss.NewRenderer(out)),
		totals:      totals,
		identifiers: make(map[telemetry.Signal][]string),
	}
}

// Record adds an outcome to the totals and prints it.
func (r *Report) Record(o transport.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.totals[o.Signal]
	if !ok {
		t = &Totals{}
		r.totals[o.Signal] = t
	}
	t.Attempted++
	if o.Success() {
		t.Succeeded++
	} else {
		t.Failed++
	}
	if o.Identifier != "" {
		r.identifiers[o.Signal] = append(r.identifiers[o.Signal], o.Identifier)
	}

	fmt.Fprintln(r.out, r.formatOutcome(o))
}

// RecordHealth stores and prints the result of the pre-flight probe.
func (r *Report) RecordHealth(res transport.HealthResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.health = &res
	if res.Healthy() {
		fmt.Fprintf(r.out, "%s collector health %s (status=%d latency=%s)\n",
			r.styles.ok.Render("OK  "), res.URL, res.StatusCode, res.Latency.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(r.out, "%s collector health %s: %v (continuing)\n",
		r.styles.warn.Render("WARN"), res.URL, res.Err)
}

// MarkInterrupted flags the report as covering a cancelled run.
func (r *Report) MarkInterrupted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupted = true
}

// Interrupted reports whether MarkInterrupted was called.
func (r *Report) Interrupted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interrupted
}

// Totals returns a copy of the totals for signal.
func (r *Report) Totals(signal telemetry.Signal) Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.totals[signal]; ok {
		return *t
	}
	return Totals{}
}

// Identifiers returns the identifiers recorded for signal in send order.
func (r *Report) Identifiers(signal telemetry.Signal) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.identifiers[signal]...)
}

// Failed returns the number of failed sends across all signals.
func (r *Report) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for _, t := range r.totals {
		n += t.Failed
	}
	return n
}

// ExitCode returns 0 when every attempted send succeeded and the
// number of failures, clamped to 1..124, otherwise.
func (r *Report) ExitCode() int {
	n := r.Failed()
	if n > maxFailureExitCode {
		return maxFailureExitCode
	}
	return n
}

// Render prints the summary table and the trace ID hint.
func (r *Report) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out)
	if r.interrupted {
		fmt.Fprintln(r.out, r.styles.warn.Render("Run interrupted, totals are partial"))
	}

	var total Totals
	rows := make([][]string, 0, len(telemetry.Signals)+1)
	for _, s := range telemetry.Signals {
		t := r.totals[s]
		total.Attempted += t.Attempted
		total.Succeeded += t.Succeeded
		total.Failed += t.Failed
		rows = append(rows, totalsRow(s.String(), *t))
	}
	rows = append(rows, totalsRow("total", total))

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("SIGNAL", "ATTEMPTED", "SUCCEEDED", "FAILED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(r.out, tbl.String())

	if ids := r.identifiers[telemetry.SignalTraces]; len(ids) > 0 {
		fmt.Fprintln(r.out, r.styles.hint.Render("Search your tracing backend for these trace IDs:"))
		for _, id := range ids {
			fmt.Fprintf(r.out, "  %s\n", id)
		}
	}

	if total.Failed == 0 {
		fmt.Fprintln(r.out, r.styles.ok.Render("All sends succeeded"))
		return
	}
	fmt.Fprintln(r.out, r.styles.fail.Render(fmt.Sprintf("%d of %d sends failed", total.Failed, total.Attempted)))
}

func totalsRow(name string, t Totals) []string {
	return []string{
		name,
		strconv.Itoa(t.Attempted),
		strconv.Itoa(t.Succeeded),
		strconv.Itoa(t.Failed),
	}
}

func (r *Report) formatOutcome(o transport.Outcome) string {
	var b strings.Builder
	if o.Success() {
		b.WriteString(r.styles.ok.Render("OK  "))
	} else {
		b.WriteString(r.styles.fail.Render("FAIL"))
	}
	fmt.Fprintf(&b, " %-7s", o.Signal)
	if o.Identifier != "" {
		fmt.Fprintf(&b, " trace_id=%s", o.Identifier)
	}
	if o.StatusCode != 0 {
		fmt.Fprintf(&b, " status=%d", o.StatusCode)
	} else {
		b.WriteString(" status=-")
	}
	fmt.Fprintf(&b, " items=%d latency=%s", o.Items, o.Latency.Round(time.Microsecond))
	if o.Err != nil {
		fmt.Fprintf(&b, " error=%q", o.Err.Error())
	}
	return b.String()
}
