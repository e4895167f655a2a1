package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/studiowebux/surge/internal/loadgen"
)

const (
	// DefaultBins is the bucket count used when the caller has no opinion.
	DefaultBins = 50

	histBarWidth = 40
)

// Histogram renders a latency distribution as a horizontal bar chart with
// logarithmically spaced buckets, which keeps slow outliers visible next to
// a fast majority. Empty buckets between occupied ones are kept so the shape
// of the distribution reads correctly; leading and trailing empty buckets
// are dropped.
func Histogram(samples []time.Duration, bins int) string {
	if len(samples) == 0 {
		return styleSubtle.Render("no samples")
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	min, max := samples[0], samples[0]
	for _, s := range samples {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	// Log scale needs a positive lower edge. Clamp instant responses to 1µs.
	if min <= 0 {
		min = time.Microsecond
	}
	if max <= min {
		// Degenerate distribution, single bucket.
		return fmt.Sprintf("%10s .. %-10s %6d %s\n",
			FormatDuration(min), FormatDuration(max), len(samples),
			strings.Repeat("█", histBarWidth))
	}

	logMin := math.Log10(float64(min))
	logMax := math.Log10(float64(max))
	step := (logMax - logMin) / float64(bins)

	counts := make([]int, bins)
	for _, s := range samples {
		v := float64(s)
		if v < float64(min) {
			v = float64(min)
		}
		idx := int((math.Log10(v) - logMin) / step)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	first, last := 0, bins-1
	for first < last && counts[first] == 0 {
		first++
	}
	for last > first && counts[last] == 0 {
		last--
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("Latency Distribution") + "\n")
	for i := first; i <= last; i++ {
		lo := time.Duration(math.Pow(10, logMin+float64(i)*step))
		hi := time.Duration(math.Pow(10, logMin+float64(i+1)*step))

		barLen := 0
		if maxCount > 0 {
			barLen = counts[i] * histBarWidth / maxCount
		}
		if counts[i] > 0 && barLen == 0 {
			barLen = 1
		}

		b.WriteString(fmt.Sprintf("%10s .. %-10s %6d %s\n",
			FormatDuration(lo), FormatDuration(hi), counts[i],
			strings.Repeat("█", barLen)))
	}

	return b.String()
}

// Durations extracts the latency sample sequence from raw outcomes, failed
// requests included.
func Durations(outcomes []loadgen.Outcome) []time.Duration {
	out := make([]time.Duration, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Duration
	}
	return out
}
