// Package tui provides the live progress view shown while a run executes.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/surge/internal/loadgen"
	"github.com/studiowebux/surge/internal/report"
)

const pollInterval = 100 * time.Millisecond

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	styleSubtle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFrame  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(1, 2)
)

// Model polls the runner for statistics and renders them until the run
// completes. Esc or q cancels the run gracefully; the view stays up until
// active workers have drained.
type Model struct {
	runner   *loadgen.Runner
	bar      progress.Model
	snap     loadgen.Snapshot
	stopping bool
	width    int
}

type tickMsg time.Time

// New creates the progress view for a started runner.
func New(runner *loadgen.Runner) Model {
	return Model{
		runner: runner,
		bar:    progress.New(progress.WithDefaultGradient()),
		snap:   runner.Snapshot(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.stopping = true
			m.runner.Cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 20
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
		return m, nil

	case tickMsg:
		m.snap = m.runner.Snapshot()
		select {
		case <-m.runner.Done():
			return m, tea.Quit
		default:
		}
		return m, tick()
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := "Load Test Running"
	if m.stopping {
		title = "Load Test Stopping"
	}
	b.WriteString(styleTitle.Render(title) + "\n")
	b.WriteString(styleSubtle.Render(m.runner.Config().Target) + "\n\n")

	b.WriteString(fmt.Sprintf("%d/%d requests (%.1f%%)\n",
		m.snap.Completed, m.snap.Total, m.snap.Progress()))
	b.WriteString(m.bar.ViewAs(m.snap.Progress()/100) + "\n\n")

	elapsed := m.runner.Elapsed()
	b.WriteString(fmt.Sprintf("Elapsed: %s\n", report.FormatDuration(elapsed)))
	b.WriteString(fmt.Sprintf("Active Workers: %d\n", m.runner.ActiveWorkers()))
	if m.stopping {
		b.WriteString(styleTitle.Render("Waiting for active workers to finish...") + "\n")
	}
	b.WriteString("\n")

	leftCol := []string{
		fmt.Sprintf("Success:  %d", m.snap.Success),
		fmt.Sprintf("Failed:   %d", m.snap.Failure),
		fmt.Sprintf("Avg:      %s", report.FormatDuration(m.snap.Mean)),
		fmt.Sprintf("Min:      %s", report.FormatDuration(m.snap.Min)),
	}
	rightCol := []string{
		fmt.Sprintf("Max:      %s", report.FormatDuration(m.snap.Max)),
		fmt.Sprintf("P50:      %s", report.FormatDuration(m.snap.P50)),
		fmt.Sprintf("P95:      %s", report.FormatDuration(m.snap.P95)),
		fmt.Sprintf("P99:      %s", report.FormatDuration(m.snap.P99)),
	}
	for i := 0; i < len(leftCol); i++ {
		b.WriteString(fmt.Sprintf("%-22s%s\n", leftCol[i], rightCol[i]))
	}

	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(m.snap.Completed) / elapsed.Seconds()
	}
	b.WriteString(fmt.Sprintf("\nRequests/sec: %.2f\n", rps))

	footer := "ESC/q: Cancel test"
	if m.stopping {
		footer = "Stopping gracefully... please wait"
	}
	b.WriteString("\n" + styleSubtle.Render(footer))

	return styleFrame.Render(b.String()) + "\n"
}
