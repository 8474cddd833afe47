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

// refLimit is how many projects the task form offers.
const refLimit = 100

type taskFormMode int

const (
	taskFormNone taskFormMode = iota
	taskFormCreate
	taskFormEdit
	taskFormFilter
)

type tasksModel struct {
	backend
	width  int
	height int

	query   listing.TaskQueryState
	list    listing.List[model.Task]
	cursor  int
	confirm listing.Confirm

	// Reference data for selects. roster stays nil until the team loads so
	// the assignee check can tell "not loaded" from "empty team".
	projects []model.Project
	roster   []model.TeamMember

	formActive bool
	form       *huh.Form
	formMode   taskFormMode
	editingID  string

	// Pointers survive value copies of the model.
	draft  *form.TaskDraft
	filter *listing.TaskFilter
}

func newTasksModel(b backend, pageSize int) tasksModel {
	d := form.NewTaskDraft()
	return tasksModel{
		backend: b,
		query:   listing.NewTaskQueryState(pageSize),
		draft:   &d,
		filter:  &listing.TaskFilter{},
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tasksDataMsg struct {
	seq  uint64
	page api.Page[model.Task]
	err  error
}

type taskRefsMsg struct {
	projects    []model.Project
	members     []model.TeamMember
	projectsErr error
	membersErr  error
}

type taskDetailMsg struct {
	task model.Task
	err  error
}

// load fetches the current page with the current filters.
func (t *tasksModel) load() tea.Cmd {
	seq := t.list.Begin()
	q := t.query.Query()
	b := t.backend
	return func() tea.Msg {
		page, err := b.svc.ListTasks(b.ctx, q)
		return tasksDataMsg{seq: seq, page: page, err: err}
	}
}

// loadRefs fetches the project and member selects concurrently. Either may
// fail on its own.
func (t tasksModel) loadRefs() tea.Cmd {
	b := t.backend
	return func() tea.Msg {
		var msg taskRefsMsg
		var g errgroup.Group
		g.Go(func() error {
			page, err := b.svc.ListProjects(b.ctx, api.ProjectQuery{Limit: refLimit})
			msg.projects, msg.projectsErr = page.Items, err
			return nil
		})
		g.Go(func() error {
			msg.members, msg.membersErr = b.svc.ListMembers(b.ctx)
			return nil
		})
		g.Wait()
		return msg
	}
}

func (t *tasksModel) refresh() tea.Cmd {
	return tea.Batch(t.loadRefs(), t.load())
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		switch msg.(type) {
		case tasksDataMsg, taskRefsMsg, savedMsg, saveFailedMsg:
			// Replies to earlier requests still belong to the list.
		default:
			return t.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		if !t.list.Apply(msg.seq, msg.page.Items, msg.err) {
			return t, nil
		}
		if msg.err == nil {
			t.query.Pager.SetTotal(msg.page.TotalPages)
		}
		t.clampCursor()
		return t, loadFailed("tasks", msg.err)

	case taskRefsMsg:
		t.projects = msg.projects
		if msg.membersErr == nil {
			t.roster = msg.members
			if t.roster == nil {
				t.roster = []model.TeamMember{}
			}
		}
		if cmd := loadFailed("projects", msg.projectsErr); cmd != nil {
			return t, cmd
		}
		return t, loadFailed("team members", msg.membersErr)

	case taskDetailMsg:
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				return t, expireSession
			}
			return t, status(api.ErrorMessage(msg.err, "Could not load task"), true)
		}
		return t.showEditForm(msg.task)

	case savedMsg:
		if !t.formActive {
			t.resetDraft()
		}
		next := t.load()
		return t, next

	case saveFailedMsg:
		if t.formActive {
			return t, nil
		}
		// Keep the user's input and let them fix it.
		return t.reopenForm()

	case tea.KeyMsg:
		if _, staged := t.confirm.Pending(); staged {
			return t.updateConfirm(msg)
		}
		return t.updateList(msg)
	}
	return t, nil
}

func (t tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < t.list.Len()-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Left):
		if t.query.Pager.Prev() {
			next := t.load()
			return t, next
		}
	case key.Matches(msg, keys.Right):
		if t.query.Pager.Next() {
			next := t.load()
			return t, next
		}
	case key.Matches(msg, keys.Reload):
		next := t.refresh()
		return t, next
	case key.Matches(msg, keys.New):
		return t.showCreateForm()
	case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
		if task, ok := t.selected(); ok {
			return t, t.loadDetail(task.ID)
		}
	case key.Matches(msg, keys.Delete):
		if task, ok := t.selected(); ok {
			t.confirm.Stage(task.ID)
		}
	case key.Matches(msg, keys.Status):
		if task, ok := t.selected(); ok {
			return t, t.changeStatus(task.ID, task.Status.Next())
		}
	case key.Matches(msg, keys.Filter):
		return t.showFilterForm()
	case key.Matches(msg, keys.Clear):
		if t.query.ActiveCount() > 0 {
			t.query.Clear()
			next := t.load()
			return t, next
		}
	}
	return t, nil
}

func (t tasksModel) updateConfirm(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Confirm):
		id, ok := t.confirm.Confirm()
		if !ok {
			return t, nil
		}
		b := t.backend
		return t, mutate(viewTasks, "Task deleted", "Could not delete task", func() error {
			return b.svc.DeleteTask(b.ctx, id)
		})
	case key.Matches(msg, keys.Back), msg.String() == "n":
		t.confirm.Cancel()
	}
	return t, nil
}

func (t tasksModel) selected() (model.Task, bool) {
	if t.cursor < 0 || t.cursor >= t.list.Len() {
		return model.Task{}, false
	}
	return t.list.Items[t.cursor], true
}

func (t *tasksModel) clampCursor() {
	if t.cursor >= t.list.Len() {
		t.cursor = max(0, t.list.Len()-1)
	}
}

func (t tasksModel) loadDetail(id string) tea.Cmd {
	b := t.backend
	return func() tea.Msg {
		task, err := b.svc.GetTask(b.ctx, id)
		return taskDetailMsg{task: task, err: err}
	}
}

// changeStatus skips draft validation; only the status is sent.
func (t tasksModel) changeStatus(id string, s model.TaskStatus) tea.Cmd {
	b := t.backend
	return mutate(viewTasks, "Task status updated", "Could not update status", func() error {
		_, err := b.svc.UpdateTaskStatus(b.ctx, id, s)
		return err
	})
}

// create validates and sends the draft. A validation failure never reaches
// the network.
func (t tasksModel) create(d form.TaskDraft) tea.Cmd {
	payload, err := d.CreatePayload(t.roster)
	if err != nil {
		return func() tea.Msg { return saveFailedMsg{view: viewTasks, text: err.Error()} }
	}
	b := t.backend
	return mutate(viewTasks, "Task created", "", func() error {
		_, err := b.svc.CreateTask(b.ctx, payload)
		return err
	})
}

func (t tasksModel) save(id string, d form.TaskDraft) tea.Cmd {
	payload, err := d.UpdatePayload()
	if err != nil {
		return func() tea.Msg { return saveFailedMsg{view: viewTasks, text: err.Error()} }
	}
	b := t.backend
	return mutate(viewTasks, "Task updated", "Could not update task", func() error {
		_, err := b.svc.UpdateTask(b.ctx, id, payload)
		return err
	})
}

func (t *tasksModel) resetDraft() {
	*t.draft = form.NewTaskDraft()
	t.formMode = taskFormNone
	t.editingID = ""
}

// --- Forms ---

func (t tasksModel) projectOptions(withAny bool) []huh.Option[string] {
	var opts []huh.Option[string]
	if withAny {
		opts = append(opts, huh.NewOption("Any project", ""))
	}
	for _, p := range t.projects {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
	}
	return opts
}

func (t tasksModel) memberOptions(first string) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption(first, "")}
	for _, m := range t.roster {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s <%s>", m.Name, m.Email), m.ID))
	}
	return opts
}

func priorityOptions() []huh.Option[model.Priority] {
	opts := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		opts[i] = huh.NewOption(p.Label(), p)
	}
	return opts
}

func statusOptions() []huh.Option[model.TaskStatus] {
	opts := make([]huh.Option[model.TaskStatus], len(model.TaskStatuses))
	for i, s := range model.TaskStatuses {
		opts[i] = huh.NewOption(s.Label(), s)
	}
	return opts
}

func (t tasksModel) buildTaskForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().Title("Title").Value(&t.draft.Title),
		huh.NewText().Title("Description").Value(&t.draft.Description).Lines(3),
	}
	if len(t.projects) > 0 {
		fields = append(fields, huh.NewSelect[string]().Title("Project").Options(t.projectOptions(false)...).Value(&t.draft.ProjectID))
	} else {
		fields = append(fields, huh.NewInput().Title("Project ID").Value(&t.draft.ProjectID))
	}
	fields = append(fields,
		huh.NewSelect[model.Priority]().Title("Priority").Options(priorityOptions()...).Value(&t.draft.Priority),
	)
	if t.formMode == taskFormEdit {
		fields = append(fields,
			huh.NewSelect[model.TaskStatus]().Title("Status").Options(statusOptions()...).Value(&t.draft.Status),
		)
	}
	fields = append(fields,
		huh.NewInput().Title("Due date").Placeholder("YYYY-MM-DD").Value(&t.draft.DueDate),
	)
	if t.roster != nil {
		fields = append(fields, huh.NewSelect[string]().Title("Assignee").Options(t.memberOptions("Unassigned")...).Value(&t.draft.AssignedTo))
	} else {
		fields = append(fields, huh.NewInput().Title("Assignee ID").Value(&t.draft.AssignedTo))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
}

func (t tasksModel) showCreateForm() (tasksModel, tea.Cmd) {
	*t.draft = form.NewTaskDraft()
	if t.query.Filter.ProjectID != "" {
		t.draft.ProjectID = t.query.Filter.ProjectID
	} else if len(t.projects) > 0 {
		t.draft.ProjectID = t.projects[0].ID
	}
	t.formMode = taskFormCreate
	t.editingID = ""
	t.form = t.buildTaskForm()
	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) showEditForm(task model.Task) (tasksModel, tea.Cmd) {
	*t.draft = form.FromTask(task)
	t.formMode = taskFormEdit
	t.editingID = task.ID
	t.form = t.buildTaskForm()
	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) reopenForm() (tasksModel, tea.Cmd) {
	if t.formMode != taskFormCreate && t.formMode != taskFormEdit {
		return t, nil
	}
	t.form = t.buildTaskForm()
	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) showFilterForm() (tasksModel, tea.Cmd) {
	*t.filter = t.query.Filter
	t.formMode = taskFormFilter

	statuses := []huh.Option[model.TaskStatus]{huh.NewOption("Any status", model.TaskStatus(""))}
	statuses = append(statuses, statusOptions()...)
	priorities := []huh.Option[model.Priority]{huh.NewOption("Any priority", model.Priority(""))}
	priorities = append(priorities, priorityOptions()...)

	fields := []huh.Field{
		huh.NewSelect[model.TaskStatus]().Title("Status").Options(statuses...).Value(&t.filter.Status),
		huh.NewSelect[model.Priority]().Title("Priority").Options(priorities...).Value(&t.filter.Priority),
		huh.NewSelect[string]().Title("Project").Options(t.projectOptions(true)...).Value(&t.filter.ProjectID),
	}
	if t.roster != nil {
		fields = append(fields, huh.NewSelect[string]().Title("Assignee").Options(t.memberOptions("Anyone")...).Value(&t.filter.AssignedTo))
	}

	t.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true)
	t.formActive = true
	return t, t.form.Init()
}

// applyFilter routes each changed field through its setter so the page
// resets.
func (t *tasksModel) applyFilter(f listing.TaskFilter) bool {
	changed := false
	if f.Status != t.query.Filter.Status {
		t.query.SetStatus(f.Status)
		changed = true
	}
	if f.Priority != t.query.Filter.Priority {
		t.query.SetPriority(f.Priority)
		changed = true
	}
	if f.ProjectID != t.query.Filter.ProjectID {
		t.query.SetProject(f.ProjectID)
		changed = true
	}
	if f.AssignedTo != t.query.Filter.AssignedTo {
		t.query.SetAssignee(f.AssignedTo)
		changed = true
	}
	return changed
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			t.resetDraft()
			return t, nil
		}
	}

	f, cmd := t.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		switch t.formMode {
		case taskFormCreate:
			return t, t.create(*t.draft)
		case taskFormEdit:
			return t, t.save(t.editingID, *t.draft)
		case taskFormFilter:
			t.formMode = taskFormNone
			if t.applyFilter(*t.filter) {
				next := t.load()
				return t, next
			}
		}
		return t, nil
	}

	return t, cmd
}

// --- Rendering ---

func (t tasksModel) projectName(task model.Task) string {
	if task.Project != nil && task.Project.Name != "" {
		return task.Project.Name
	}
	for _, p := range t.projects {
		if p.ID == task.ProjectID {
			return p.Name
		}
	}
	return task.ProjectID
}

func (t tasksModel) memberName(id string) string {
	for _, m := range t.roster {
		if m.ID == id {
			return m.Name
		}
	}
	return id
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := "New Task"
		switch t.formMode {
		case taskFormEdit:
			title = "Edit Task"
		case taskFormFilter:
			title = "Filter Tasks"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	return panelStyle.Width(w).Render(t.renderList())
}

func (t tasksModel) filterSummary() string {
	n := t.query.ActiveCount()
	if n == 0 {
		return mutedStyle.Render("no filters")
	}
	f := t.query.Filter
	var parts []string
	if f.Status != "" {
		parts = append(parts, "status="+f.Status.Label())
	}
	if f.Priority != "" {
		parts = append(parts, "priority="+f.Priority.Label())
	}
	if f.ProjectID != "" {
		parts = append(parts, "project="+t.projectName(model.Task{ProjectID: f.ProjectID}))
	}
	if f.AssignedTo != "" {
		parts = append(parts, "assignee="+t.memberName(f.AssignedTo))
	}
	return highlightStyle.Render(fmt.Sprintf("filters (%d): %s", n, strings.Join(parts, ", ")))
}

func (t tasksModel) renderList() string {
	title := titleStyle.Render("Tasks")
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		title, "  ", t.filterSummary(), "  ", mutedStyle.Render(pageLabel(t.query.Pager.Page, t.query.Pager.TotalPages)),
	)

	var rows []string
	rows = append(rows, header, "")

	switch {
	case t.list.Loading() && t.list.Len() == 0:
		rows = append(rows, mutedStyle.Render("Loading tasks..."))
	case t.list.Len() == 0:
		if hint := errorHint("tasks", t.list.Err); hint != "" {
			rows = append(rows, hint)
		} else if t.query.ActiveCount() > 0 {
			rows = append(rows, mutedStyle.Render("No tasks match these filters. Press c to clear them."))
		} else {
			rows = append(rows, mutedStyle.Render("No tasks yet. Press n to create one."))
		}
	default:
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %-8s %-30s %-18s %-11s %s", "Status", "Priority", "Title", "Project", "Due", "Assignee")))
		now := t.now()
		for i, task := range t.list.Items {
			cursor := "  "
			style := normalItemStyle
			if i == t.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			due := formatDate(task.DueDate)
			if task.IsOverdue(now) {
				due = errorStyle.Render(fmt.Sprintf("%-11s", due))
			} else {
				due = fmt.Sprintf("%-11s", due)
			}
			assignee := "-"
			if task.AssignedUser != nil {
				assignee = task.AssignedUser.Name
			} else if task.AssignedTo != "" {
				assignee = t.memberName(task.AssignedTo)
			}
			row := cursor +
				badge(fmt.Sprintf("%-12s", task.Status.Label()), taskStatusColor(task.Status)) + " " +
				badge(fmt.Sprintf("%-8s", task.Priority.Label()), priorityColor(task.Priority)) + " " +
				style.Render(fmt.Sprintf("%-30s %-18s", truncate(task.Title, 30), truncate(t.projectName(task), 18))) + " " +
				due + " " + truncate(assignee, 20)
			rows = append(rows, row)
		}
		if hint := errorHint("tasks", t.list.Err); hint != "" {
			rows = append(rows, "", hint)
		}
	}

	rows = append(rows, "")
	if id, ok := t.confirm.Pending(); ok {
		name := id
		for _, task := range t.list.Items {
			if task.ID == id {
				name = task.Title
			}
		}
		rows = append(rows, warningStyle.Render(fmt.Sprintf("  Delete task %q? y: confirm  n/esc: cancel", name)))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  enter/e: edit  d: delete  s: next status  f: filter  c: clear  ←/→: page  x: export"))
	}

	return strings.Join(rows, "\n")
}

func (t *tasksModel) setPageSize(n int) {
	t.query.Pager.SetLimit(n)
}
