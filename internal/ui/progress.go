// Package ui renders live progress for multi-file scans.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Status is the state of one file in a scan.
type Status uint8

const (
	StatusQueued Status = iota
	StatusReading
	StatusScanning
	StatusCached
	StatusDone
	StatusError
)

var statusNames = [...]string{"queued", "reading", "scanning", "cached", "done", "error"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return ""
}

func (s Status) finished() bool { return s >= StatusCached }

func (s Status) active() bool { return s == StatusReading || s == StatusScanning }

// Event reports progress for File. Classes and Methods are set once the
// file is finished.
type Event struct {
	File    string
	Status  Status
	Classes int
	Methods int
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	statusStyle = map[Status]lipgloss.Style{
		StatusReading:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		StatusScanning: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		StatusCached:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusDone:     lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusError:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// rows shown under the header. Active files come first, then the most
// recently finished ones.
const visibleRows = 8

type row struct {
	path   string
	status Status
	note   string
}

type tally struct {
	finished, cached, failed int
	classes, methods         int
}

type scanModel struct {
	title  string
	events <-chan Event

	spin spinner.Model
	bar  progress.Model

	rows   []row
	byPath map[string]int
	recent []int // finished row indexes, newest last
	tally  tally

	width int
	done  bool
}

type eventMsg Event
type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders scan progress
// until events is closed.
func NewProgressModel(title string, files []string, events <-chan Event) tea.Model {
	m := &scanModel{
		title:  title,
		events: events,
		spin:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		rows:   make([]row, len(files)),
		byPath: make(map[string]int, len(files)),
		width:  80,
	}
	for i, f := range files {
		m.rows[i] = row{path: f}
		m.byPath[f] = i
	}
	m.bar.Width = m.width - 12
	return m
}

func (m *scanModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.next())
}

func (m *scanModel) next() tea.Cmd {
	return func() tea.Msg {
		if ev, ok := <-m.events; ok {
			return eventMsg(ev)
		}
		return closedMsg{}
	}
}

func (m *scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.record(Event(msg)), m.next())
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if msg.Width > 20 {
			m.width = msg.Width
			m.bar.Width = msg.Width - 12
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		if bar, ok := model.(progress.Model); ok {
			m.bar = bar
		}
		return m, cmd
	}
	return m, nil
}

// record applies ev and returns the bar animation for the new ratio.
func (m *scanModel) record(ev Event) tea.Cmd {
	i, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	r := &m.rows[i]
	if r.status.finished() {
		return nil
	}
	r.status = ev.Status
	if !ev.Status.finished() {
		return nil
	}

	m.tally.finished++
	switch ev.Status {
	case StatusCached:
		m.tally.cached++
	case StatusError:
		m.tally.failed++
	}
	if ev.Status != StatusError {
		m.tally.classes += ev.Classes
		m.tally.methods += ev.Methods
		r.note = fmt.Sprintf("%d classes, %d methods", ev.Classes, ev.Methods)
	}
	m.recent = append(m.recent, i)
	return m.bar.SetPercent(m.ratio())
}

func (m *scanModel) ratio() float64 {
	if len(m.rows) == 0 {
		return 1
	}
	return float64(m.tally.finished) / float64(len(m.rows))
}

// visible picks the rows to draw: every active file, topped up with the
// newest finished ones.
func (m *scanModel) visible() []int {
	out := make([]int, 0, visibleRows)
	for i, r := range m.rows {
		if len(out) == visibleRows {
			return out
		}
		if r.status.active() {
			out = append(out, i)
		}
	}
	for j := len(m.recent) - 1; j >= 0 && len(out) < visibleRows; j-- {
		out = append(out, m.recent[j])
	}
	return out
}

func (m *scanModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder

	lead := m.spin.View()
	if m.done {
		lead = "done:"
	}
	fmt.Fprintf(&b, "%s %s\n", lead, headerStyle.Render(fmt.Sprintf("%s %d/%d", m.title, m.tally.finished, len(m.rows))))

	nameWidth := max(m.width-36, 16)
	for _, i := range m.visible() {
		r := m.rows[i]
		name := shorten(r.path, nameWidth)
		label := statusStyle[r.status].Render(fmt.Sprintf("%-8s", r.status))
		fmt.Fprintf(&b, "  %s %s", label, name)
		if r.note != "" {
			b.WriteString(strings.Repeat(" ", nameWidth-runewidth.StringWidth(name)+2))
			b.WriteString(dimStyle.Render(r.note))
		}
		b.WriteByte('\n')
	}

	if m.done {
		b.WriteString(m.bar.ViewAs(m.ratio()))
	} else {
		b.WriteString(m.bar.View())
	}
	fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(m.summary()))
	return b.String()
}

func (m *scanModel) summary() string {
	parts := []string{
		fmt.Sprintf("%d classes", m.tally.classes),
		fmt.Sprintf("%d methods", m.tally.methods),
	}
	if m.tally.cached > 0 {
		parts = append(parts, fmt.Sprintf("%d cached", m.tally.cached))
	}
	if m.tally.failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", m.tally.failed))
	}
	return strings.Join(parts, " · ")
}

// shorten keeps the tail of a path, which names the file, and elides the
// front when it does not fit in width cells.
func shorten(path string, width int) string {
	if width <= 0 || runewidth.StringWidth(path) <= width {
		return path
	}
	if width <= 3 {
		return runewidth.Truncate(path, width, "")
	}
	runes := []rune(path)
	w := 3
	start := len(runes)
	for start > 0 {
		rw := runewidth.RuneWidth(runes[start-1])
		if w+rw > width {
			break
		}
		w += rw
		start--
	}
	return "..." + string(runes[start:])
}
