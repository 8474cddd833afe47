package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/export"
	"github.com/sadopc/techflow/internal/logging"
	"github.com/sadopc/techflow/internal/model"
	"github.com/sadopc/techflow/internal/store"
)

// Session is the part of the persisted login the UI reads.
type Session interface {
	Authenticated() bool
	User() (model.User, bool)
	ExpiresAt() (time.Time, bool)
}

type Options struct {
	Ctx     context.Context
	Service api.Service
	Session Session
	Store   *store.Store
	// Defaults are the configured preferences; stored settings override them.
	Defaults Prefs
	// ExportDir receives task exports. Empty means the home directory.
	ExportDir string
	Clock     func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	backend
	session   Session
	exportDir string
	width     int
	height    int

	authed        bool
	user          model.User
	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	auth      authModel
	dashboard dashboardModel
	projects  projectsModel
	tasks     tasksModel
	team      teamModel
	settings  settingsModel

	help help.Model

	prefs      Prefs
	toast      string
	toastError bool
	toastID    int
}

type initMsg struct{}

func NewApp(opts Options) App {
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	b := backend{ctx: ctx, svc: opts.Service, clock: opts.Clock}
	prefs := LoadPrefs(opts.Store, opts.Defaults)

	h := help.New()
	h.ShowAll = false

	a := App{
		backend:    b,
		session:    opts.Session,
		exportDir:  opts.ExportDir,
		activeView: viewDashboard,
		auth:       newAuthModel(b),
		dashboard:  newDashboardModel(b),
		projects:   newProjectsModel(b, prefs.ProjectPageSize),
		tasks:      newTasksModel(b, prefs.TaskPageSize),
		team:       newTeamModel(b),
		settings:   newSettingsModel(opts.Store, opts.Session, opts.Defaults),
		help:       h,
		prefs:      prefs,
	}
	if opts.Session != nil && opts.Session.Authenticated() {
		a.authed = true
		a.user, _ = opts.Session.User()
	}
	return a
}

// Init defers the first load to Update so that loaders can record their
// sequence numbers on the live model.
func (a App) Init() tea.Cmd {
	return func() tea.Msg { return initMsg{} }
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case initMsg:
		if a.authed {
			next := a.enter()
			return a, next
		}
		var cmd tea.Cmd
		a.auth, cmd = a.auth.start()
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.auth.setSize(a.width, a.height)
		a.dashboard.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.team.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case statusMsg:
		next := a.setToast(msg.text, msg.isError)
		return a, next

	case statusExpiredMsg:
		if msg.id == a.toastID {
			a.toast = ""
		}
		return a, nil

	case loggedInMsg:
		a.authed = true
		a.user = msg.user
		a.activeView = viewDashboard
		next := tea.Batch(a.enter(), a.setToast("Welcome, "+userLabel(msg.user), false))
		return a, next

	case loggedOutMsg:
		return a.signOut("Logged out", false)

	case sessionExpiredMsg:
		if !a.authed {
			return a, nil
		}
		return a.signOut("Session expired, please log in again", true)

	case savedMsg:
		cmd := a.setToast(msg.text, false)
		var vcmd tea.Cmd
		a, vcmd = a.routeTo(msg.view, msg)
		return a, tea.Batch(cmd, vcmd)

	case saveFailedMsg:
		cmd := a.setToast(msg.text, true)
		var vcmd tea.Cmd
		a, vcmd = a.routeTo(msg.view, msg)
		return a, tea.Batch(cmd, vcmd)

	case prefsChangedMsg:
		a.prefs = msg.prefs
		a.tasks.setPageSize(msg.prefs.TaskPageSize)
		a.projects.setPageSize(msg.prefs.ProjectPageSize)
		return a, nil

	case exportDoneMsg:
		a.exportPicking = false
		next := a.setToast("Exported to "+msg.path, false)
		return a, next
	}

	if !a.authed {
		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.auth, cmd = a.auth.update(msg)
		return a, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// A child view capturing input (e.g. a form) sees keys first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Dismiss):
			a.toast = ""
			return a, nil
		case key.Matches(msg, keys.Logout):
			return a, a.logout()
		case key.Matches(msg, keys.Export) && a.activeView == viewTasks:
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewDashboard)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewProjects)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewTasks)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewTeam)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}
	}

	return a.updateActiveView(msg)
}

// enter loads the landing view after authentication.
func (a *App) enter() tea.Cmd {
	return a.refreshCurrentView()
}

func (a App) switchTo(v viewState) (App, tea.Cmd) {
	a.activeView = v
	next := a.refreshCurrentView()
	return a, next
}

// setToast shows text in the footer until ToastDuration passes or the
// user dismisses it. A newer toast invalidates the older timer.
func (a *App) setToast(text string, isError bool) tea.Cmd {
	a.toastID++
	a.toast = text
	a.toastError = isError
	id := a.toastID
	d := a.prefs.ToastDuration
	if d <= 0 {
		d = 3 * time.Second
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusExpiredMsg{id: id}
	})
}

func (a *App) logout() tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		if err := svc.Logout(); err != nil {
			logging.WithComponent("tui").WithError(err).Warn("logout")
		}
		return loggedOutMsg{}
	}
}

// signOut drops every authenticated view state and shows the auth screen.
func (a App) signOut(text string, isError bool) (App, tea.Cmd) {
	cmds := []tea.Cmd{}
	if isError {
		// The server rejected the token; forget it locally too.
		cmds = append(cmds, a.logoutSilently())
	}
	a.authed = false
	a.user = model.User{}
	a.exportPicking = false
	a.activeView = viewDashboard
	b := a.backend
	a.dashboard = newDashboardModel(b)
	a.dashboard.setSize(a.width, a.height-4)
	a.projects = newProjectsModel(b, a.prefs.ProjectPageSize)
	a.projects.setSize(a.width, a.height-4)
	a.tasks = newTasksModel(b, a.prefs.TaskPageSize)
	a.tasks.setSize(a.width, a.height-4)
	a.team = newTeamModel(b)
	a.team.setSize(a.width, a.height-4)

	var cmd tea.Cmd
	a.auth, cmd = a.auth.reset()
	cmds = append(cmds, cmd, a.setToast(text, isError))
	return a, tea.Batch(cmds...)
}

func (a App) logoutSilently() tea.Cmd {
	svc := a.svc
	return func() tea.Msg {
		if err := svc.Logout(); err != nil {
			logging.WithComponent("tui").WithError(err).Warn("clear expired session")
		}
		return nil
	}
}

func (a App) routeTo(v viewState, msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	switch v {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewTeam:
		a.team, cmd = a.team.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Data messages belong to the view that requested them.
	switch msg.(type) {
	case dashboardDataMsg:
		return a.routeTo(viewDashboard, msg)
	case projectsDataMsg, projectDetailMsg:
		return a.routeTo(viewProjects, msg)
	case tasksDataMsg, taskRefsMsg, taskDetailMsg:
		return a.routeTo(viewTasks, msg)
	case membersDataMsg, memberTasksMsg:
		return a.routeTo(viewTeam, msg)
	case settingsDataMsg:
		return a.routeTo(viewSettings, msg)
	}
	return a.routeTo(a.activeView, msg)
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewProjects:
		return a.projects.formActive
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a *App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewProjects:
		return a.projects.load()
	case viewTasks:
		return a.tasks.refresh()
	case viewTeam:
		return a.team.load()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if !a.authed {
		return a.auth.view()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewProjects:
		content = a.projects.view()
	case viewTasks:
		content = a.tasks.view()
	case viewTeam:
		content = a.team.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("techflow")
	if a.user.ID != "" || a.user.Email != "" {
		title += mutedStyle.Render("  " + userLabel(a.user))
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	left := footerStyle.Render(a.help.View(keys))

	right := ""
	if a.toast != "" {
		if a.toastError {
			right = toastErrorStyle.Render(a.toast)
		} else {
			right = toastSuccessStyle.Render(a.toast)
		}
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// --- Export ---

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Tasks"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  Exports the current filters, up to 100 tasks"))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the tasks matching the current filters, first page only.
func (a App) doExport(format int) tea.Cmd {
	b := a.backend
	q := a.tasks.query.Query()
	q.Page, q.Limit = 1, refLimit
	names := make(map[string]string, len(a.tasks.projects))
	for _, p := range a.tasks.projects {
		names[p.ID] = p.Name
	}
	dir := a.exportDir

	return func() tea.Msg {
		page, err := b.svc.ListTasks(b.ctx, q)
		if err != nil {
			if api.IsUnauthorized(err) {
				return sessionExpiredMsg{}
			}
			return statusMsg{text: api.ErrorMessage(err, "Export failed"), isError: true}
		}

		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		stamp := b.now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("techflow-tasks-%s.csv", stamp))
			err = export.ToCSV(page.Items, names, path)
		} else {
			path = filepath.Join(dir, fmt.Sprintf("techflow-tasks-%s.json", stamp))
			err = export.ToJSON(page.Items, names, path)
		}
		if err != nil {
			logging.WithComponent("export").WithError(err).Warn("export failed")
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
