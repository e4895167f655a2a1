// Package report renders run summaries and latency histograms for the
// terminal.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/surge/internal/loadgen"
)

var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	styleSubtle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Render formats the final summary as a multi-section text report.
func Render(target string, summary *loadgen.Summary) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render("Results") + "  " + styleSubtle.Render(target) + "\n\n")

	b.WriteString(styleTitle.Render("Requests") + "\n")
	b.WriteString(fmt.Sprintf("Sent:         %d\n", summary.TotalSent))
	b.WriteString(fmt.Sprintf("Success:      %d\n", summary.SuccessCount))
	b.WriteString(fmt.Sprintf("Failed:       %d\n", summary.FailureCount))
	if summary.TotalSent > 0 {
		rate := float64(summary.SuccessCount) / float64(summary.TotalSent) * 100
		b.WriteString(fmt.Sprintf("Success Rate: %.1f%%\n", rate))
	}
	b.WriteString(fmt.Sprintf("Duration:     %s\n", FormatDuration(summary.WallClock)))
	b.WriteString(fmt.Sprintf("Requests/sec: %.2f\n", summary.Throughput))
	b.WriteString("\n")

	b.WriteString(styleTitle.Render("Latency") + "\n")
	b.WriteString(fmt.Sprintf("Average:    %s\n", FormatDuration(summary.MeanLatency)))
	b.WriteString(fmt.Sprintf("Min:        %s\n", FormatDuration(summary.MinLatency)))
	b.WriteString(fmt.Sprintf("Max:        %s\n", FormatDuration(summary.MaxLatency)))
	b.WriteString(fmt.Sprintf("Std Dev:    %s\n", FormatDuration(summary.StdDevLatency)))
	b.WriteString(fmt.Sprintf("P50:        %s\n", FormatDuration(summary.P50Latency)))
	b.WriteString(fmt.Sprintf("P95:        %s\n", FormatDuration(summary.P95Latency)))
	b.WriteString(fmt.Sprintf("P99:        %s\n", FormatDuration(summary.P99Latency)))

	if len(summary.StatusCodes) > 0 {
		b.WriteString("\n" + styleTitle.Render("Status Codes") + "\n")
		codes := make([]int, 0, len(summary.StatusCodes))
		for code := range summary.StatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			b.WriteString(fmt.Sprintf("%d: %d\n", code, summary.StatusCodes[code]))
		}
	}

	if len(summary.ErrorKinds) > 0 {
		b.WriteString("\n" + styleTitle.Render("Errors") + "\n")
		kinds := make([]string, 0, len(summary.ErrorKinds))
		for kind := range summary.ErrorKinds {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			line := fmt.Sprintf("%s: %d", kind, summary.ErrorKinds[loadgen.ErrorKind(kind)])
			b.WriteString(styleErr.Render(line) + "\n")
		}
	}

	return b.String()
}

// FormatDuration formats a latency with a unit suited to its magnitude.
func FormatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return "0ms"
	case d < time.Millisecond:
		return fmt.Sprintf("%.0fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
}
