package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/logging"
	"github.com/sadopc/techflow/internal/model"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewProjects
	viewTasks
	viewTeam
	viewSettings
)

var viewNames = []string{"Dashboard", "Projects", "Tasks", "Team", "Settings"}

// backend is what every view needs to talk to the server.
type backend struct {
	ctx   context.Context
	svc   api.Service
	clock func() time.Time
}

func (b backend) now() time.Time {
	if b.clock == nil {
		return time.Now()
	}
	return b.clock()
}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type statusExpiredMsg struct {
	id int
}

// savedMsg reports a successful mutation; the target view reloads.
type savedMsg struct {
	view viewState
	text string
}

// saveFailedMsg reports a failed mutation; the target view reopens its form.
type saveFailedMsg struct {
	view viewState
	text string
}

type sessionExpiredMsg struct{}

type loggedInMsg struct {
	user model.User
}

type loggedOutMsg struct{}

type exportDoneMsg struct {
	path string
}

// --- Commands ---

// mutate runs fn off the UI loop and reports the outcome to view.
func mutate(view viewState, success, fallback string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			if api.IsUnauthorized(err) {
				return sessionExpiredMsg{}
			}
			logging.WithComponent("tui").WithError(err).Warn(fallback)
			return saveFailedMsg{view: view, text: api.ErrorMessage(err, fallback)}
		}
		return savedMsg{view: view, text: success}
	}
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func expireSession() tea.Msg { return sessionExpiredMsg{} }

// loadFailed logs a read failure. The caller renders an empty list.
func loadFailed(what string, err error) tea.Cmd {
	if err == nil {
		return nil
	}
	if api.IsUnauthorized(err) {
		return expireSession
	}
	logging.WithComponent("tui").WithError(err).Warnf("load %s", what)
	return nil
}

// --- Helpers ---

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func formatDate(d *model.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func pageLabel(page, total int) string {
	if total < 1 {
		total = 1
	}
	return fmt.Sprintf("page %d/%d", page, total)
}

func errorHint(what string, err error) string {
	if err == nil {
		return ""
	}
	return mutedStyle.Render(fmt.Sprintf("  could not load %s: %s", what, api.ErrorMessage(err, "request failed")))
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
