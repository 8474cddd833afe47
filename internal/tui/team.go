package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/techflow/internal/listing"
	"github.com/sadopc/techflow/internal/model"
)

// teamModel is read-only: members and the tasks assigned to one of them.
type teamModel struct {
	backend
	width  int
	height int

	members listing.List[model.TeamMember]
	cursor  int

	viewingTasks bool
	member       model.TeamMember
	tasks        listing.List[model.Task]
	taskCursor   int
}

func newTeamModel(b backend) teamModel {
	return teamModel{backend: b}
}

func (t *teamModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type membersDataMsg struct {
	seq     uint64
	members []model.TeamMember
	err     error
}

type memberTasksMsg struct {
	seq   uint64
	tasks []model.Task
	err   error
}

func (t *teamModel) load() tea.Cmd {
	seq := t.members.Begin()
	b := t.backend
	return func() tea.Msg {
		members, err := b.svc.ListMembers(b.ctx)
		return membersDataMsg{seq: seq, members: members, err: err}
	}
}

func (t *teamModel) loadTasks(memberID string) tea.Cmd {
	seq := t.tasks.Begin()
	b := t.backend
	return func() tea.Msg {
		page, err := b.svc.ListMemberTasks(b.ctx, memberID)
		return memberTasksMsg{seq: seq, tasks: page.Items, err: err}
	}
}

func (t teamModel) update(msg tea.Msg) (teamModel, tea.Cmd) {
	switch msg := msg.(type) {
	case membersDataMsg:
		if !t.members.Apply(msg.seq, msg.members, msg.err) {
			return t, nil
		}
		if t.cursor >= t.members.Len() {
			t.cursor = max(0, t.members.Len()-1)
		}
		return t, loadFailed("team members", msg.err)

	case memberTasksMsg:
		if !t.tasks.Apply(msg.seq, msg.tasks, msg.err) {
			return t, nil
		}
		t.taskCursor = 0
		return t, loadFailed("member tasks", msg.err)

	case tea.KeyMsg:
		if t.viewingTasks {
			return t.updateTaskView(msg)
		}
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < t.members.Len()-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.Reload):
			next := t.load()
			return t, next
		case key.Matches(msg, keys.Enter):
			if t.cursor < t.members.Len() {
				t.member = t.members.Items[t.cursor]
				t.viewingTasks = true
				next := t.loadTasks(t.member.ID)
				return t, next
			}
		}
	}
	return t, nil
}

func (t teamModel) updateTaskView(msg tea.KeyMsg) (teamModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		t.viewingTasks = false
	case key.Matches(msg, keys.Up):
		if t.taskCursor > 0 {
			t.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if t.taskCursor < t.tasks.Len()-1 {
			t.taskCursor++
		}
	case key.Matches(msg, keys.Reload):
		next := t.loadTasks(t.member.ID)
		return t, next
	}
	return t, nil
}

func (t teamModel) view() string {
	w := t.width - 4
	if t.viewingTasks {
		return panelStyle.Width(w).Render(t.renderTaskView())
	}
	return panelStyle.Width(w).Render(t.renderMembers())
}

func (t teamModel) renderMembers() string {
	title := titleStyle.Render(fmt.Sprintf("Team (%d)", t.members.Len()))

	var rows []string
	rows = append(rows, title, "")

	switch {
	case t.members.Loading() && t.members.Len() == 0:
		rows = append(rows, mutedStyle.Render("Loading team..."))
	case t.members.Len() == 0:
		if hint := errorHint("team members", t.members.Err); hint != "" {
			rows = append(rows, hint)
		} else {
			rows = append(rows, mutedStyle.Render("No team members."))
		}
	default:
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-28s %s", "Name", "Email")))
		for i, m := range t.members.Items {
			cursor := "  "
			style := normalItemStyle
			if i == t.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			rows = append(rows, style.Render(fmt.Sprintf("%s%-28s ", cursor, truncate(m.Name, 28)))+mutedStyle.Render(m.Email))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: assigned tasks  r: reload"))
	return strings.Join(rows, "\n")
}

func (t teamModel) renderTaskView() string {
	title := titleStyle.Render(fmt.Sprintf("%s / Tasks", t.member.Name))

	var rows []string
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Bottom, title, "  ", mutedStyle.Render(t.member.Email)), "")

	switch {
	case t.tasks.Loading():
		rows = append(rows, mutedStyle.Render("Loading tasks..."))
	case t.tasks.Len() == 0:
		if hint := errorHint("member tasks", t.tasks.Err); hint != "" {
			rows = append(rows, hint)
		} else {
			rows = append(rows, mutedStyle.Render("Nothing assigned."))
		}
	default:
		now := t.now()
		for i, task := range t.tasks.Items {
			cursor := "  "
			style := normalItemStyle
			if i == t.taskCursor {
				cursor = "> "
				style = selectedItemStyle
			}
			due := formatDate(task.DueDate)
			if task.IsOverdue(now) {
				due = errorStyle.Render(due)
			}
			rows = append(rows, cursor+
				badge(fmt.Sprintf("%-12s", task.Status.Label()), taskStatusColor(task.Status))+" "+
				badge(fmt.Sprintf("%-8s", task.Priority.Label()), priorityColor(task.Priority))+" "+
				style.Render(fmt.Sprintf("%-36s", truncate(task.Title, 36)))+" "+due)
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  r: reload  esc: back"))
	return strings.Join(rows, "\n")
}
