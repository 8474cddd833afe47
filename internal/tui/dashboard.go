package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/model"
)

const (
	dashboardProjectLimit = 5
	dashboardRecentTasks  = 5
)

type dashboardModel struct {
	backend
	width  int
	height int

	loading  bool
	err      error
	seq      uint64
	stats    model.Stats
	tasks    []model.Task
	projects []model.Project
	chart    statusChart
}

func newDashboardModel(b backend) dashboardModel {
	return dashboardModel{
		backend: b,
		chart:   newStatusChart(60, 10),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.chart.resize(w-8, d.chartHeight())
	d.chart.draw(d.stats)
}

func (d dashboardModel) chartHeight() int {
	if d.height > 36 {
		return 12
	}
	return 8
}

type dashboardDataMsg struct {
	seq      uint64
	tasks    []model.Task
	projects []model.Project
	err      error
}

// loadData requests tasks and projects concurrently and reports once both
// are back.
func (d *dashboardModel) loadData() tea.Cmd {
	d.seq++
	d.loading = true
	seq := d.seq
	b := d.backend
	return func() tea.Msg {
		msg := dashboardDataMsg{seq: seq}
		g, ctx := errgroup.WithContext(b.ctx)
		g.Go(func() error {
			page, err := b.svc.ListTasks(ctx, api.TaskQuery{Limit: model.DashboardTaskLimit})
			msg.tasks = page.Items
			return err
		})
		g.Go(func() error {
			page, err := b.svc.ListProjects(ctx, api.ProjectQuery{Limit: dashboardProjectLimit})
			msg.projects = page.Items
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		if msg.seq != d.seq {
			return d, nil
		}
		d.loading = false
		d.err = msg.err
		if msg.err != nil {
			d.tasks, d.projects = nil, nil
		} else {
			d.tasks, d.projects = msg.tasks, msg.projects
		}
		d.stats = model.ComputeStats(d.tasks, d.now())
		d.chart.draw(d.stats)
		return d, loadFailed("dashboard", msg.err)

	case tea.KeyMsg:
		if key.Matches(msg, keys.Reload) {
			next := d.loadData()
			return d, next
		}
	}
	return d, nil
}

func (d dashboardModel) recentTasks() []model.Task {
	if len(d.tasks) <= dashboardRecentTasks {
		return d.tasks
	}
	return d.tasks[:dashboardRecentTasks]
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4

	if d.loading && d.tasks == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading dashboard..."))
	}

	statsPanel := d.renderStats(w)
	chartPanel := panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Tasks by status"), "", d.chart.view(), "", d.chart.legend(),
	))

	half := (w - 1) / 2
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		d.renderRecentTasks(half),
		" ",
		d.renderProjects(w-half-1),
	)

	parts := []string{statsPanel, chartPanel, bottom}
	if hint := errorHint("dashboard", d.err); hint != "" {
		parts = append(parts, hint)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (d dashboardModel) renderStats(w int) string {
	cell := func(label string, value int, c lipgloss.Color) string {
		return lipgloss.JoinVertical(lipgloss.Center,
			statValueStyle.Foreground(c).Width(14).Render(fmt.Sprintf("%d", value)),
			mutedStyle.Width(14).Align(lipgloss.Center).Render(label),
		)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Total", d.stats.Total, colorPrimary),
		cell("Completed", d.stats.Completed, colorSuccess),
		cell("Pending", d.stats.Pending, colorWarning),
		cell("Overdue", d.stats.Overdue, colorError),
	)
	rate := mutedStyle.Render(fmt.Sprintf("completion %.0f%%  (first %d tasks)", d.stats.CompletionRate()*100, model.DashboardTaskLimit))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, row, "", rate))
}

func (d dashboardModel) renderRecentTasks(w int) string {
	title := titleStyle.Render("Recent tasks")
	tasks := d.recentTasks()
	if len(tasks) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No tasks yet")))
	}

	rows := []string{title}
	now := d.now()
	for _, t := range tasks {
		mark := badge("●", taskStatusColor(t.Status))
		line := fmt.Sprintf("%s %s", mark, truncate(t.Title, max(10, w-24)))
		if t.IsOverdue(now) {
			line += " " + errorStyle.Render("overdue")
		} else {
			line += " " + badge(t.Priority.Label(), priorityColor(t.Priority))
		}
		rows = append(rows, line)
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderProjects(w int) string {
	title := titleStyle.Render("Projects")
	if len(d.projects) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No projects yet")))
	}

	rows := []string{title}
	for _, p := range d.projects {
		dot := badge("●", projectStatusColor(p.Status))
		rows = append(rows, fmt.Sprintf("%s %s %s", dot, truncate(p.Name, max(10, w-22)), mutedStyle.Render(p.Status.Label())))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
