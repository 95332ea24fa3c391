package components

import (
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
)

// sparklineHistory caps how many samples a sparkline retains. At one
// sample per second this covers four minutes, enough to replay into a
// wider canvas after a window resize.
const sparklineHistory = 240

// Sparkline is a fixed-window sparkline fed one sample at a time. It keeps
// its own sample window and replays it into a fresh canvas on every render,
// so resizing never loses history.
type Sparkline struct {
	width  int
	height int
	maxVal float64
	style  lipgloss.Style
	values []float64
}

// NewSparkline returns a sparkline that renders at the given size using the
// given bar style.
func NewSparkline(width, height int, style lipgloss.Style) *Sparkline {
	return &Sparkline{
		width:  width,
		height: height,
		style:  style,
		values: make([]float64, 0, sparklineHistory),
	}
}

// SetMax pins the Y scale to maxVal. Zero restores auto-scaling. Percent
// series want a pinned scale of 100 so a calm CPU does not render as a
// full-height wall.
func (s *Sparkline) SetMax(maxVal float64) {
	s.maxVal = maxVal
}

// Push appends one sample, evicting the oldest once the window is full.
func (s *Sparkline) Push(v float64) {
	if v < 0 {
		v = 0
	}
	s.values = append(s.values, v)
	if len(s.values) > sparklineHistory {
		s.values = s.values[1:]
	}
}

// Last returns the most recent sample, or zero if none were pushed yet.
func (s *Sparkline) Last() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Resize changes the render size. History is retained.
func (s *Sparkline) Resize(width, height int) {
	s.width = width
	s.height = height
}

// View renders the sparkline.
func (s *Sparkline) View() string {
	if s.width < 1 || s.height < 1 {
		return ""
	}

	opts := []sparkline.Option{sparkline.WithStyle(s.style)}
	if s.maxVal > 0 {
		opts = append(opts, sparkline.WithMaxValue(s.maxVal))
	}

	sl := sparkline.New(s.width, s.height, opts...)
	sl.PushAll(s.window())
	sl.Draw()
	return sl.View()
}

// window returns the newest samples that fit the current width.
func (s *Sparkline) window() []float64 {
	if len(s.values) <= s.width {
		return s.values
	}
	return s.values[len(s.values)-s.width:]
}
