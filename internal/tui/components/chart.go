package components

import (
	"fmt"
	"strings"

	"github.com/gloski/cli/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// DefaultChartHeight is used when the caller passes a height of zero.
const DefaultChartHeight = 5

// Chart renders a single-series line chart with a label header and a
// cur/min/max summary line. Returns a muted placeholder if data is empty.
func Chart(label string, data []float64, width, height int, suffix string) string {
	if len(data) == 0 {
		return styles.MutedText.Render(label + ": no data")
	}

	plot := asciigraph.Plot(data,
		asciigraph.Height(chartHeight(height)),
		asciigraph.Width(plotWidth(width)),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.DodgerBlue),
		asciigraph.LabelColor(asciigraph.Default),
	)

	header := styles.Label.Render(label)
	summary := styles.MutedText.Render(summaryLine("", data, suffix))
	return lipgloss.JoinVertical(lipgloss.Left, header, plot, summary)
}

// DualChart renders two overlaid series (e.g. network rx/tx) with a shared
// label header, per-series legends, and one summary line per series.
func DualChart(label string, series1, series2 []float64, legend1, legend2 string, width, height int, suffix string) string {
	if len(series1) == 0 && len(series2) == 0 {
		return styles.MutedText.Render(label + ": no data")
	}

	// PlotMany needs both series present; pad a missing one with zeros.
	if len(series1) == 0 {
		series1 = make([]float64, len(series2))
	}
	if len(series2) == 0 {
		series2 = make([]float64, len(series1))
	}

	plot := asciigraph.PlotMany(
		[][]float64{series1, series2},
		asciigraph.Height(chartHeight(height)),
		asciigraph.Width(plotWidth(width)),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.DodgerBlue, asciigraph.LightCoral),
		asciigraph.SeriesLegends(legend1, legend2),
		asciigraph.LabelColor(asciigraph.Default),
	)

	summary := styles.MutedText.Render(strings.Join([]string{
		summaryLine(legend1, series1, suffix),
		summaryLine(legend2, series2, suffix),
	}, "\n"))

	header := styles.Label.Render(label)
	return lipgloss.JoinVertical(lipgloss.Left, header, plot, summary)
}

func chartHeight(height int) int {
	if height <= 0 {
		return DefaultChartHeight
	}
	return height
}

// plotWidth reserves space for Y-axis labels (number + " ┤" ≈ 9 chars).
func plotWidth(width int) int {
	w := width - 9
	if w < 10 {
		w = 10
	}
	return w
}

// summaryLine formats "cur/min/max" for one series, with an optional
// leading legend.
func summaryLine(legend string, data []float64, suffix string) string {
	cur := data[len(data)-1]
	lo, hi := minMax(data)
	line := fmt.Sprintf("  cur: %s  min: %s  max: %s",
		FormatMetric(cur, suffix), FormatMetric(lo, suffix), FormatMetric(hi, suffix))
	if legend != "" {
		line = "  " + legend + line
	}
	return line
}

// minMax returns the minimum and maximum values from a slice.
func minMax(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// FormatMetric renders a float with an optional suffix, scaling large
// values to K/M/G.
func FormatMetric(v float64, suffix string) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("%.1fG%s", v/1_000_000_000, suffix)
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM%s", v/1_000_000, suffix)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK%s", v/1_000, suffix)
	default:
		return fmt.Sprintf("%.1f%s", v, suffix)
	}
}
