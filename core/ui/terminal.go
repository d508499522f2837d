// Package ui - Terminal output of the mapping CLI
// Headers, progress bars, tables and colors. Color is off when the output is not a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// ANSI styles
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// Verbosity levels
const (
	Quiet   = 0
	Normal  = 1
	Verbose = 2
)

type status struct {
	icon  string
	style string
	// minimum verbosity at which the line is printed
	level int
}

var (
	statusSuccess = status{"✓ ", Green, Quiet}
	statusWarning = status{"⚠ ", Yellow, Quiet}
	statusError   = status{"✗ ", Red, Quiet}
	statusInfo    = status{"ℹ ", Blue, Normal}
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer. A nil out writes to stdout.
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{out: out, noColor: noColor || !isTerminal(out), verbosity: Normal}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// SetVerbosity sets the level below which messages are dropped (Quiet, Normal, Verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// Out returns the destination, for artifacts printed as is
func (w *Writer) Out() io.Writer { return w.out }

// interactive reports whether in-place updates can be drawn
func (w *Writer) interactive() bool {
	return !w.noColor && w.verbosity >= Normal
}

func (w *Writer) color(style, text string) string {
	if w.noColor {
		return text
	}
	return style + text + Reset
}

func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

func (w *Writer) status(s status, format string, args ...interface{}) {
	if w.verbosity < s.level {
		return
	}
	w.Println("%s%s", w.color(s.style, s.icon), fmt.Sprintf(format, args...))
}

// Header opens a section
func (w *Writer) Header(title string) {
	if w.verbosity < Normal {
		return
	}
	w.Println("\n%s\n", w.color(Bold+Cyan, "━━━ "+title+" ━━━"))
}

// SubHeader opens a subsection
func (w *Writer) SubHeader(title string) {
	if w.verbosity >= Normal {
		w.Println("%s", w.color(Bold, "▸ "+title))
	}
}

func (w *Writer) Success(format string, args ...interface{}) { w.status(statusSuccess, format, args...) }
func (w *Writer) Warning(format string, args ...interface{}) { w.status(statusWarning, format, args...) }
func (w *Writer) Error(format string, args ...interface{})   { w.status(statusError, format, args...) }
func (w *Writer) Info(format string, args ...interface{})    { w.status(statusInfo, format, args...) }

// Debug prints dimmed text in verbose mode only
func (w *Writer) Debug(format string, args ...interface{}) {
	if w.verbosity >= Verbose {
		w.Println("%s", w.color(Dim, "  "+fmt.Sprintf(format, args...)))
	}
}

// ProgressBar renders the mapped points of a run. It satisfies observer.Ticker.
type ProgressBar struct {
	w       *Writer
	label   string
	total   int
	current int
	width   int
	started time.Time
}

// NewProgressBar creates a progress bar over total points
func (w *Writer) NewProgressBar(total int, label string) *ProgressBar {
	return &ProgressBar{w: w, label: label, total: total, width: 40, started: time.Now()}
}

// Update sets the number of mapped points
func (p *ProgressBar) Update(current int) {
	p.current = current
	p.draw()
}

// Increment counts one mapped point
func (p *ProgressBar) Increment() {
	p.Update(p.current + 1)
}

// Current returns the number of mapped points
func (p *ProgressBar) Current() int { return p.current }

func (p *ProgressBar) fraction() float64 {
	return min(float64(p.current)/float64(p.total), 1)
}

// draw redraws the bar in place. Without a terminal only the completed
// bar is printed.
func (p *ProgressBar) draw() {
	if p.total == 0 || p.w.verbosity < Normal {
		return
	}
	if !p.w.interactive() && p.current < p.total {
		return
	}

	f := p.fraction()
	filled := int(f * float64(p.width))
	line := fmt.Sprintf("\r%s [%s%s] %3.0f%% (%d/%d)", p.label,
		strings.Repeat("█", filled), strings.Repeat("░", p.width-filled), f*100, p.current, p.total)

	if elapsed := time.Since(p.started); p.current > 0 && elapsed > 0 {
		rate := float64(p.current) / elapsed.Seconds()
		line += fmt.Sprintf(" %.0f points/s", rate)
		if p.current < p.total {
			line += " ETA " + formatDuration(time.Duration(float64(p.total-p.current)/rate*float64(time.Second)))
		}
	}
	fmt.Fprint(p.w.out, line)
}

// Done terminates the progress line
func (p *ProgressBar) Done() {
	if p.total == 0 || p.w.verbosity < Normal {
		return
	}
	if !p.w.interactive() && p.current < p.total {
		fmt.Fprintf(p.w.out, "%s %d/%d", p.label, p.current, p.total)
	}
	fmt.Fprintln(p.w.out)
}

// Table renders aligned columns. Columns marked numeric are right aligned.
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	widths  []int
	numeric []bool
}

// NewTable creates a table with the given headers
func (w *Writer) NewTable(headers ...string) *Table {
	t := &Table{w: w, headers: headers, widths: make([]int, len(headers)), numeric: make([]bool, len(headers))}
	t.fit(headers)
	return t
}

func (t *Table) fit(cells []string) {
	for i, c := range cells {
		t.widths[i] = max(t.widths[i], utf8.RuneCountInString(c))
	}
}

// Numeric right-aligns the given columns
func (t *Table) Numeric(columns ...int) *Table {
	for _, c := range columns {
		if c >= 0 && c < len(t.numeric) {
			t.numeric[c] = true
		}
	}
	return t
}

// AddRow adds a row; missing cells are empty, extra cells are dropped
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.fit(row)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) format(cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell))
		if t.numeric[i] {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, " │ "), " ")
}

// Render prints the headers, a rule and the rows
func (t *Table) Render() {
	rule := make([]string, len(t.widths))
	for i, n := range t.widths {
		rule[i] = strings.Repeat("─", n)
	}

	t.w.Println("%s", t.w.color(Bold, t.format(t.headers)))
	t.w.Println("%s", strings.Join(rule, "─┼─"))
	for _, row := range t.rows {
		t.w.Println("%s", t.format(row))
	}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a label while a loading step runs
type Spinner struct {
	w       *Writer
	label   string
	started time.Time
	stop    chan struct{}
	done    chan struct{}
}

// NewSpinner creates a spinner
func (w *Writer) NewSpinner(label string) *Spinner {
	return &Spinner{w: w, label: label, stop: make(chan struct{}), done: make(chan struct{})}
}

// Start animates the spinner until Stop; nothing is animated without a terminal
func (s *Spinner) Start() {
	s.started = time.Now()
	if !s.w.interactive() {
		close(s.done)
		return
	}
	go func() {
		defer close(s.done)
		tick := time.NewTicker(80 * time.Millisecond)
		defer tick.Stop()
		for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
			select {
			case <-s.stop:
				return
			case <-tick.C:
				fmt.Fprintf(s.w.out, "\r%s %s", s.w.color(Cyan, spinnerFrames[frame]), s.label)
			}
		}
	}()
}

// Stop replaces the spinner by a status mark and the step duration.
// A successful step prints nothing in quiet mode.
func (s *Spinner) Stop(success bool) {
	close(s.stop)
	<-s.done

	st := statusSuccess
	if !success {
		st = statusError
	}
	if s.w.verbosity < Normal && success {
		return
	}
	took := s.w.color(Dim, " ("+formatDuration(time.Since(s.started))+")")
	if !s.w.interactive() {
		s.w.Println("%s%s%s", s.w.color(st.style, st.icon), s.label, took)
		return
	}
	fmt.Fprintf(s.w.out, "\r%s%s%s\n", s.w.color(st.style, st.icon), s.label, took)
}

// Step runs fn behind a spinner
func (w *Writer) Step(label string, fn func() error) error {
	s := w.NewSpinner(label)
	s.Start()
	err := fn()
	s.Stop(err == nil)
	return err
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "< 1s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	default:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
