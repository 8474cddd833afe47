package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/form"
	"github.com/sadopc/techflow/internal/listing"
	"github.com/sadopc/techflow/internal/model"
)

// detailTaskLimit caps the tasks shown under a project.
const detailTaskLimit = 100

type projectsModel struct {
	backend
	width  int
	height int

	query   listing.ProjectQueryState
	list    listing.List[model.Project]
	cursor  int
	confirm listing.Confirm

	// Detail screen
	viewingDetail bool
	detail        *model.Project
	detailTasks   []model.Task
	detailErr     error
	detailLoading bool
	taskCursor    int

	formActive bool
	form       *huh.Form
	formType   string // "project", "edit_project", "search"
	editingID  string

	// Form field pointers (survive value copies)
	draft  *form.ProjectDraft
	search *string
}

func newProjectsModel(b backend, pageSize int) projectsModel {
	d := form.NewProjectDraft()
	search := ""
	return projectsModel{
		backend: b,
		query:   listing.NewProjectQueryState(pageSize),
		draft:   &d,
		search:  &search,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	seq  uint64
	page api.Page[model.Project]
	err  error
}

type projectDetailMsg struct {
	id      string
	project model.Project
	tasks   []model.Task
	err     error
}

func (p *projectsModel) load() tea.Cmd {
	seq := p.list.Begin()
	q := p.query.Query()
	b := p.backend
	return func() tea.Msg {
		page, err := b.svc.ListProjects(b.ctx, q)
		return projectsDataMsg{seq: seq, page: page, err: err}
	}
}

// loadDetail fetches the project and its tasks concurrently and waits for
// both.
func (p projectsModel) loadDetail(id string) tea.Cmd {
	b := p.backend
	return func() tea.Msg {
		msg := projectDetailMsg{id: id}
		g, ctx := errgroup.WithContext(b.ctx)
		g.Go(func() error {
			proj, err := b.svc.GetProject(ctx, id)
			msg.project = proj
			return err
		})
		g.Go(func() error {
			page, err := b.svc.ListTasks(ctx, api.TaskQuery{ProjectID: id, Limit: detailTaskLimit})
			msg.tasks = page.Items
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		switch msg.(type) {
		case projectsDataMsg, projectDetailMsg, savedMsg, saveFailedMsg:
		default:
			return p.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		if !p.list.Apply(msg.seq, msg.page.Items, msg.err) {
			return p, nil
		}
		if msg.err == nil {
			p.query.Pager.SetTotal(msg.page.TotalPages)
		}
		if p.cursor >= p.list.Len() {
			p.cursor = max(0, p.list.Len()-1)
		}
		return p, loadFailed("projects", msg.err)

	case projectDetailMsg:
		// The user may have left or switched projects meanwhile.
		if !p.viewingDetail || p.detail == nil || p.detail.ID != msg.id {
			return p, nil
		}
		p.detailLoading = false
		p.detailErr = msg.err
		if msg.err != nil {
			p.detailTasks = nil
			return p, loadFailed("project", msg.err)
		}
		proj := msg.project
		p.detail = &proj
		p.detailTasks = msg.tasks
		p.taskCursor = 0
		return p, nil

	case savedMsg:
		if !p.formActive {
			p.resetDraft()
		}
		if p.viewingDetail && p.detail != nil {
			next := tea.Batch(p.load(), p.loadDetail(p.detail.ID))
			return p, next
		}
		next := p.load()
		return p, next

	case saveFailedMsg:
		if p.formActive {
			return p, nil
		}
		return p.reopenForm()

	case tea.KeyMsg:
		if _, staged := p.confirm.Pending(); staged {
			return p.updateConfirm(msg)
		}
		if p.viewingDetail {
			return p.updateDetail(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < p.list.Len()-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Left):
		if p.query.Pager.Prev() {
			next := p.load()
			return p, next
		}
	case key.Matches(msg, keys.Right):
		if p.query.Pager.Next() {
			next := p.load()
			return p, next
		}
	case key.Matches(msg, keys.Reload):
		next := p.load()
		return p, next
	case key.Matches(msg, keys.Enter):
		if proj, ok := p.selected(); ok {
			p.viewingDetail = true
			p.detailLoading = true
			p.detail = &proj
			p.detailTasks = nil
			return p, p.loadDetail(proj.ID)
		}
	case key.Matches(msg, keys.New):
		return p.showNewProjectForm()
	case key.Matches(msg, keys.Edit):
		if proj, ok := p.selected(); ok {
			return p.showEditProjectForm(proj)
		}
	case key.Matches(msg, keys.Delete):
		if proj, ok := p.selected(); ok {
			p.confirm.Stage(proj.ID)
		}
	case key.Matches(msg, keys.Search):
		return p.showSearchForm()
	case key.Matches(msg, keys.Clear):
		if p.query.SetSearch("") {
			next := p.load()
			return p, next
		}
	}
	return p, nil
}

func (p projectsModel) updateDetail(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingDetail = false
		p.detail = nil
		p.detailTasks = nil
		p.detailErr = nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(p.detailTasks)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.Edit):
		if p.detail != nil {
			return p.showEditProjectForm(*p.detail)
		}
	case key.Matches(msg, keys.Delete):
		if p.detail != nil {
			p.confirm.Stage(p.detail.ID)
		}
	case key.Matches(msg, keys.Reload):
		if p.detail != nil {
			p.detailLoading = true
			return p, p.loadDetail(p.detail.ID)
		}
	}
	return p, nil
}

func (p projectsModel) updateConfirm(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		id, ok := p.confirm.Confirm()
		if !ok {
			return p, nil
		}
		if p.detail != nil && p.detail.ID == id {
			p.viewingDetail = false
			p.detail = nil
		}
		b := p.backend
		return p, mutate(viewProjects, "Project deleted", "Could not delete project", func() error {
			return b.svc.DeleteProject(b.ctx, id)
		})
	case key.Matches(msg, keys.Back), msg.String() == "n":
		p.confirm.Cancel()
	}
	return p, nil
}

func (p projectsModel) selected() (model.Project, bool) {
	if p.cursor < 0 || p.cursor >= p.list.Len() {
		return model.Project{}, false
	}
	return p.list.Items[p.cursor], true
}

func (p projectsModel) create(d form.ProjectDraft) tea.Cmd {
	payload, err := d.Payload()
	if err != nil {
		return func() tea.Msg { return saveFailedMsg{view: viewProjects, text: err.Error()} }
	}
	b := p.backend
	return mutate(viewProjects, "Project created", "Could not create project", func() error {
		_, err := b.svc.CreateProject(b.ctx, payload)
		return err
	})
}

func (p projectsModel) save(id string, d form.ProjectDraft) tea.Cmd {
	payload, err := d.Payload()
	if err != nil {
		return func() tea.Msg { return saveFailedMsg{view: viewProjects, text: err.Error()} }
	}
	b := p.backend
	return mutate(viewProjects, "Project updated", "Could not update project", func() error {
		_, err := b.svc.UpdateProject(b.ctx, id, payload)
		return err
	})
}

func (p *projectsModel) resetDraft() {
	*p.draft = form.NewProjectDraft()
	p.formType = ""
	p.editingID = ""
}

func (p projectsModel) buildProjectForm() *huh.Form {
	opts := make([]huh.Option[model.ProjectStatus], len(model.ProjectStatuses))
	for i, s := range model.ProjectStatuses {
		opts[i] = huh.NewOption(s.Label(), s)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(&p.draft.Name),
			huh.NewText().Title("Description").Lines(3).Value(&p.draft.Description),
			huh.NewSelect[model.ProjectStatus]().Title("Status").Options(opts...).Value(&p.draft.Status),
		),
	).WithShowHelp(true).WithShowErrors(true)
}

func (p projectsModel) showNewProjectForm() (projectsModel, tea.Cmd) {
	*p.draft = form.NewProjectDraft()
	p.formType = "project"
	p.editingID = ""
	p.form = p.buildProjectForm()
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showEditProjectForm(proj model.Project) (projectsModel, tea.Cmd) {
	*p.draft = form.FromProject(proj)
	p.formType = "edit_project"
	p.editingID = proj.ID
	p.form = p.buildProjectForm()
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) reopenForm() (projectsModel, tea.Cmd) {
	if p.formType != "project" && p.formType != "edit_project" {
		return p, nil
	}
	p.form = p.buildProjectForm()
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showSearchForm() (projectsModel, tea.Cmd) {
	*p.search = p.query.Search
	p.formType = "search"
	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Search projects").Placeholder("name contains...").Value(p.search),
		),
	).WithShowHelp(true)
	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			p.resetDraft()
			return p, nil
		}
	}

	f, cmd := p.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		switch p.formType {
		case "project":
			return p, p.create(*p.draft)
		case "edit_project":
			return p, p.save(p.editingID, *p.draft)
		case "search":
			p.formType = ""
			if p.query.SetSearch(strings.TrimSpace(*p.search)) {
				p.cursor = 0
				next := p.load()
				return p, next
			}
		}
		return p, nil
	}

	return p, cmd
}

// --- Rendering ---

func (p projectsModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := "New Project"
		switch p.formType {
		case "edit_project":
			title = "Edit Project"
		case "search":
			title = "Search"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View())
		return panelStyle.Width(w).Render(content)
	}

	if p.viewingDetail {
		return panelStyle.Width(w).Render(p.renderDetail())
	}
	return panelStyle.Width(w).Render(p.renderProjectList())
}

func (p projectsModel) renderProjectList() string {
	title := titleStyle.Render("Projects")
	search := mutedStyle.Render("no search")
	if p.query.Search != "" {
		search = highlightStyle.Render(fmt.Sprintf("search: %q", p.query.Search))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		title, "  ", search, "  ", mutedStyle.Render(pageLabel(p.query.Pager.Page, p.query.Pager.TotalPages)),
	)

	var rows []string
	rows = append(rows, header, "")

	switch {
	case p.list.Loading() && p.list.Len() == 0:
		rows = append(rows, mutedStyle.Render("Loading projects..."))
	case p.list.Len() == 0:
		if hint := errorHint("projects", p.list.Err); hint != "" {
			rows = append(rows, hint)
		} else {
			rows = append(rows, mutedStyle.Render("No projects yet. Press n to create one."))
		}
	default:
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-28s %-10s %6s  %s", "", "Name", "Status", "Tasks", "Description")))
		for i, proj := range p.list.Items {
			dot := badge("●", projectStatusColor(proj.Status))
			cursor := "  "
			style := normalItemStyle
			if i == p.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			row := style.Render(fmt.Sprintf("%s%s %-28s %-10s %6d  ", cursor, dot, truncate(proj.Name, 28), proj.Status.Label(), proj.TaskCount())) +
				mutedStyle.Render(truncate(proj.DisplayDescription(), 40))
			rows = append(rows, row)
		}
		if hint := errorHint("projects", p.list.Err); hint != "" {
			rows = append(rows, "", hint)
		}
	}

	rows = append(rows, "")
	rows = append(rows, p.renderPrompt("  n: new  e: edit  d: delete  enter: details  /: search  c: clear search  ←/→: page"))

	return strings.Join(rows, "\n")
}

func (p projectsModel) renderPrompt(help string) string {
	id, ok := p.confirm.Pending()
	if !ok {
		return mutedStyle.Render(help)
	}
	name := id
	for _, proj := range p.list.Items {
		if proj.ID == id {
			name = proj.Name
		}
	}
	return warningStyle.Render(fmt.Sprintf("  Delete project %q? y: confirm  n/esc: cancel", name))
}

func (p projectsModel) renderDetail() string {
	if p.detail == nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Project"),
			"",
			errorHint("project", p.detailErr),
			"",
			mutedStyle.Render("  esc: back"),
		)
	}

	proj := p.detail
	dot := badge("●", projectStatusColor(proj.Status))
	title := titleStyle.Render(fmt.Sprintf("%s %s", dot, proj.Name))

	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(proj.DisplayDescription()))
	rows = append(rows, fmt.Sprintf("Status: %s   Created: %s   Updated: %s",
		badge(proj.Status.Label(), projectStatusColor(proj.Status)),
		formatTimestamp(proj.CreatedAt), formatTimestamp(proj.UpdatedAt)))
	rows = append(rows, "")

	switch {
	case p.detailLoading:
		rows = append(rows, mutedStyle.Render("Loading tasks..."))
	case p.detailErr != nil:
		rows = append(rows, errorHint("project tasks", p.detailErr))
	case len(p.detailTasks) == 0:
		rows = append(rows, mutedStyle.Render("No tasks in this project."))
	default:
		stats := model.ComputeStats(p.detailTasks, p.now())
		rows = append(rows, subtitleStyle.Render(fmt.Sprintf("Tasks (%d)  completed %d  pending %d  overdue %d",
			stats.Total, stats.Completed, stats.Pending, stats.Overdue)))
		now := p.now()
		for i, task := range p.detailTasks {
			cursor := "  "
			style := normalItemStyle
			if i == p.taskCursor {
				cursor = "> "
				style = selectedItemStyle
			}
			due := formatDate(task.DueDate)
			if task.IsOverdue(now) {
				due = errorStyle.Render(due)
			}
			rows = append(rows, cursor+
				badge(fmt.Sprintf("%-12s", task.Status.Label()), taskStatusColor(task.Status))+" "+
				style.Render(fmt.Sprintf("%-36s", truncate(task.Title, 36)))+" "+due)
		}
	}

	rows = append(rows, "")
	rows = append(rows, p.renderPrompt("  e: edit  d: delete  r: reload  esc: back"))

	return strings.Join(rows, "\n")
}

func (p *projectsModel) setPageSize(n int) {
	p.query.Pager.SetLimit(n)
}
