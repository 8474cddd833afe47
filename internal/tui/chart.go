package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/techflow/internal/model"
)

// statusChart draws one bar per task bucket of the dashboard stats.
type statusChart struct {
	width  int
	height int
	chart  barchart.Model
	stats  model.Stats
}

func newStatusChart(w, h int) statusChart {
	return statusChart{width: w, height: h, chart: barchart.New(w, h)}
}

func (c *statusChart) resize(w, h int) {
	if w < 20 {
		w = 20
	}
	c.width, c.height = w, h
}

type chartBucket struct {
	label string
	value int
	color lipgloss.Color
}

func buckets(s model.Stats) []chartBucket {
	return []chartBucket{
		{"Completed", s.Completed, colorSuccess},
		{"Open", s.Pending - s.Overdue, colorWarning},
		{"Overdue", s.Overdue, colorError},
	}
}

func (c *statusChart) draw(s model.Stats) {
	c.stats = s
	c.chart = barchart.New(c.width, c.height)

	var bars []barchart.BarData
	for _, b := range buckets(s) {
		bars = append(bars, barchart.BarData{
			Label: b.label,
			Values: []barchart.BarValue{{
				Name:  b.label,
				Value: float64(b.value),
				Style: lipgloss.NewStyle().Foreground(b.color),
			}},
		})
	}

	c.chart.PushAll(bars)
	c.chart.Draw()
}

func (c statusChart) view() string {
	if c.stats.Total == 0 {
		return mutedStyle.Render("  No data yet")
	}
	return c.chart.View()
}

func (c statusChart) legend() string {
	var items []string
	for _, b := range buckets(c.stats) {
		dot := lipgloss.NewStyle().Foreground(b.color).Render("●")
		items = append(items, fmt.Sprintf("%s %s %d", dot, b.label, b.value))
	}
	return "  " + strings.Join(items, "  ")
}
