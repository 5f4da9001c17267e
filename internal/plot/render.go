package plot

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Chart palette.
var (
	colorBar   = lipgloss.Color("#00BFFF")
	colorAxis  = lipgloss.Color("#636363")
	colorLabel = lipgloss.Color("#8C8C8C")
	colorTitle = lipgloss.Color("#EEEEEE")
)

var (
	styleBar   = lipgloss.NewStyle().Foreground(colorBar)
	styleAxis  = lipgloss.NewStyle().Foreground(colorAxis)
	styleLabel = lipgloss.NewStyle().Foreground(colorLabel)
	styleTitle = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
)

// barGlyphs are eighth-block characters for sub-cell bar resolution.
var barGlyphs = []rune(" ▏▎▍▌▋▊▉█")

// Render draws the profile as a horizontal bar chart, one row per bin.
// barWidth is the number of cells available for the longest bar.
func Render(p *Profile, title string, barWidth int) string {
	if barWidth < 8 {
		barWidth = 8
	}
	max := p.MaxMean()

	var sb strings.Builder
	sb.WriteString(styleTitle.Render(title))
	sb.WriteString(styleLabel.Render(fmt.Sprintf("  [%s in %s, %s axis in %s]",
		"mean", p.ValueUnit, p.Axis, p.AxisUnit)))
	sb.WriteString("\n")

	for _, b := range p.Bins {
		sb.WriteString(styleLabel.Render(fmt.Sprintf("%9.3f ", b.Center)))
		sb.WriteString(styleAxis.Render("│"))
		sb.WriteString(styleBar.Render(bar(b.Mean, max, barWidth)))
		sb.WriteString(styleLabel.Render(fmt.Sprintf(" %.4g ±%.2g (n=%d)", b.Mean, b.Std, b.Count)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// bar renders a value as a run of block glyphs, using eighth blocks for
// the fractional cell.
func bar(value, max float64, width int) string {
	if max <= 0 || value <= 0 {
		return ""
	}
	cells := value / max * float64(width)
	full := int(cells)
	frac := int((cells - float64(full)) * 8)

	var sb strings.Builder
	for i := 0; i < full; i++ {
		sb.WriteRune(barGlyphs[8])
	}
	if full < width && frac > 0 {
		sb.WriteRune(barGlyphs[frac])
	}
	return sb.String()
}
