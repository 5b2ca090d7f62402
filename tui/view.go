package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mgnrega/dashboard/report"
)

var (
	worksColor   = lipgloss.Color("#36A2EB")
	workersColor = lipgloss.Color("#FF6384")
	budgetColor  = lipgloss.Color("#4BC0C0")
	mutedColor   = lipgloss.Color("#888888")
	borderColor  = lipgloss.Color("#444444")
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// View renders the dashboard.
func (a *App) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("MGNREGA Dashboard")

	sections := []string{header, a.renderFilters()}
	if a.picking != pickNone {
		hint := lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")).
			MarginTop(1).
			Render("Enter → select    / → search    Esc → cancel")
		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, a.picker.View(), hint))
		return strings.Join(sections, "\n")
	}

	sections = append(sections, a.renderData())
	footer := lipgloss.NewStyle().
		Foreground(mutedColor).
		MarginTop(1).
		Render("s state · d district · c clear · ←/→ page · o sort · r reverse · v chart · e export · R reload · q quit")
	sections = append(sections, footer)
	if a.status != "" {
		sections = append(sections, a.status)
	}
	return strings.Join(sections, "\n")
}

func (a *App) renderFilters() string {
	f := a.dash.Filters
	if f.Loading {
		return a.spinner.View() + " Loading filters..."
	}
	if f.Err != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render("⚠ " + f.Err)
	}
	state := f.Selection.State
	if state == "" {
		state = "Select State"
	}
	district := f.Selection.District
	switch {
	case !f.DistrictEnabled():
		district = lipgloss.NewStyle().Foreground(mutedColor).Render("Select District")
	case district == "":
		district = "Select District"
	}
	return fmt.Sprintf("State: %s    District: %s", state, district)
}

func (a *App) renderData() string {
	v := a.dash.View
	switch {
	case v.Loading:
		return a.spinner.View() + " Loading data..."
	case v.Err != "":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Render("❌ " + v.Err)
	case len(v.Records) == 0:
		return lipgloss.NewStyle().Foreground(mutedColor).Render("No records to display")
	}

	series := report.TopDistricts(v.Records, report.TopN)
	tableBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Render(a.table.View())
	return lipgloss.JoinVertical(lipgloss.Left,
		renderCards(series),
		renderChart(series, a.chart, a.width),
		tableBox,
		a.renderPager(),
	)
}

func (a *App) renderPager() string {
	v := a.dash.View
	prev, next := "← Previous", "Next →"
	dim := lipgloss.NewStyle().Foreground(mutedColor)
	if !v.CanPrev() {
		prev = dim.Render(prev)
	}
	if !v.CanNext() {
		next = dim.Render(next)
	}
	return fmt.Sprintf("%s  |  Page %d (%d total records)  |  %s", prev, v.Page+1, v.Total, next)
}

func renderCards(s report.Series) string {
	works, workers, budget := s.Totals()
	card := func(title, value string, color lipgloss.Color) string {
		return lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color).
			Padding(0, 1).
			Render(lipgloss.NewStyle().Foreground(mutedColor).Render(title) + "\n" +
				lipgloss.NewStyle().Bold(true).Foreground(color).Render(value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Works", report.FormatIndian(works), worksColor),
		card("Total Workers", report.FormatIndian(workers), workersColor),
		card("Total Budget (Cr)", "₹"+report.FormatIndian(budget), budgetColor),
	)
}

// renderChart draws the top districts as sparklines or horizontal bars.
func renderChart(s report.Series, mode report.ChartMode, width int) string {
	if s.Len() == 0 {
		return ""
	}
	title := lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("Top %d Districts by Works (%s, v to switch)", s.Len(), mode))

	metrics := []struct {
		name   string
		values []float64
		color  lipgloss.Color
	}{
		{"Works", s.Works, worksColor},
		{"Workers", s.Workers, workersColor},
		{"Budget (Cr)", s.Budget, budgetColor},
	}

	var lines []string
	if mode == report.ChartLine {
		for _, m := range metrics {
			top := maxOf(m.values)
			line := lipgloss.NewStyle().Foreground(m.color).Render(sparkline(m.values, top))
			lines = append(lines, fmt.Sprintf("%-12s %s  max %s", m.name, line, report.FormatTick(top)))
		}
		lines = append(lines, "             "+strings.Join(initials(s.Labels), ""))
	} else {
		barWidth := max(10, min(width-40, 50))
		tops := make([]float64, len(metrics))
		for i, m := range metrics {
			tops[i] = maxOf(m.values)
		}
		for i, label := range s.Labels {
			for j, m := range metrics {
				name := ""
				if j == 0 {
					name = truncate(label, 14)
				}
				drawn := lipgloss.NewStyle().Foreground(m.color).Render(bar(m.values[i], tops[j], barWidth))
				lines = append(lines, fmt.Sprintf("%-14s %s %s", name, drawn, report.FormatTick(m.values[i])))
			}
		}
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(title + "\n" + strings.Join(lines, "\n"))
}

func sparkline(values []float64, top float64) string {
	var b strings.Builder
	for _, v := range values {
		level := 0
		if top > 0 {
			level = int(math.Round(v / top * float64(len(sparkLevels)-1)))
		}
		level = max(0, min(level, len(sparkLevels)-1))
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}

func bar(v, top float64, width int) string {
	n := 0
	if top > 0 {
		n = int(math.Round(v / top * float64(width)))
	}
	n = max(0, min(n, width))
	return strings.Repeat("█", n) + strings.Repeat(" ", width-n)
}

func maxOf(values []float64) float64 {
	var top float64
	for _, v := range values {
		top = math.Max(top, v)
	}
	return top
}

// initials labels each sparkline column with the district's first letter.
func initials(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		r := []rune(l)
		if len(r) == 0 {
			out[i] = " "
			continue
		}
		out[i] = string(r[0])
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
