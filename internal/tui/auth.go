package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/form"
	"github.com/sadopc/techflow/internal/logging"
	"github.com/sadopc/techflow/internal/model"
)

type authMode int

const (
	authLogin authMode = iota
	authRegister
)

// authModel is the screen shown while there is no session.
type authModel struct {
	backend
	width  int
	height int

	mode authMode
	form *huh.Form
	busy bool
	err  string

	login    *form.LoginDraft
	register *form.RegisterDraft
}

type authFailedMsg struct {
	text string
}

type registeredMsg struct {
	email string
}

func newAuthModel(b backend) authModel {
	return authModel{
		backend:  b,
		login:    &form.LoginDraft{},
		register: &form.RegisterDraft{},
	}
}

func (a *authModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

// start (re)builds the form for the current mode.
func (a authModel) start() (authModel, tea.Cmd) {
	a.busy = false
	if a.mode == authRegister {
		a.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Name").Value(&a.register.Name),
				huh.NewInput().Title("Email").Value(&a.register.Email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&a.register.Password),
			),
		).WithShowHelp(false).WithShowErrors(true)
	} else {
		a.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Email").Value(&a.login.Email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&a.login.Password),
			),
		).WithShowHelp(false).WithShowErrors(true)
	}
	return a, a.form.Init()
}

func (a authModel) toggle() (authModel, tea.Cmd) {
	a.err = ""
	if a.mode == authLogin {
		a.mode = authRegister
		if a.register.Email == "" {
			a.register.Email = a.login.Email
		}
	} else {
		a.mode = authLogin
	}
	return a.start()
}

func (a authModel) update(msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authFailedMsg:
		a.err = msg.text
		return a.start()

	case registeredMsg:
		a.err = ""
		a.mode = authLogin
		*a.login = form.LoginDraft{Email: msg.email}
		*a.register = form.RegisterDraft{}
		a, cmd := a.start()
		return a, tea.Batch(cmd, status("Account created, please log in", false))

	case tea.KeyMsg:
		if a.busy {
			return a, nil
		}
		if key.Matches(msg, keys.Register) {
			return a.toggle()
		}
	}

	if a.form == nil || a.busy {
		return a, nil
	}

	f, cmd := a.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		return a.submit()
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

// submit validates locally and only then calls the server.
func (a authModel) submit() (authModel, tea.Cmd) {
	b := a.backend
	if a.mode == authRegister {
		d := *a.register
		d.Name = strings.TrimSpace(d.Name)
		d.Email = strings.TrimSpace(d.Email)
		if err := d.Validate(); err != nil {
			a.err = err.Error()
			return a.start()
		}
		a.busy = true
		a.err = ""
		return a, func() tea.Msg {
			if _, err := b.svc.Register(b.ctx, d.Email, d.Password, d.Name); err != nil {
				logging.WithComponent("auth").WithError(err).Warn("register failed")
				return authFailedMsg{text: api.ErrorMessage(err, "Registration failed")}
			}
			return registeredMsg{email: d.Email}
		}
	}

	d := *a.login
	d.Email = strings.TrimSpace(d.Email)
	if err := d.Validate(); err != nil {
		a.err = err.Error()
		return a.start()
	}
	a.busy = true
	a.err = ""
	return a, func() tea.Msg {
		resp, err := b.svc.Login(b.ctx, d.Email, d.Password)
		if err != nil {
			logging.WithComponent("auth").WithError(err).Warn("login failed")
			return authFailedMsg{text: api.ErrorMessage(err, "Invalid email or password")}
		}
		user := resp.User
		if user.ID == "" {
			if u, err := b.svc.Profile(b.ctx); err == nil {
				user = u
			}
		}
		return loggedInMsg{user: user}
	}
}

// reset clears credentials after logout or session expiry.
func (a authModel) reset() (authModel, tea.Cmd) {
	email := a.login.Email
	*a.login = form.LoginDraft{Email: email}
	*a.register = form.RegisterDraft{}
	a.mode = authLogin
	return a.start()
}

func (a authModel) view() string {
	title := "Log in to TechFlow"
	hint := "ctrl+r: create an account"
	if a.mode == authRegister {
		title = "Create a TechFlow account"
		hint = "ctrl+r: back to login"
	}

	rows := []string{titleStyle.Render(title), ""}
	if a.form != nil {
		rows = append(rows, a.form.View())
	}
	if a.busy {
		rows = append(rows, "", mutedStyle.Render("Please wait..."))
	}
	if a.err != "" {
		rows = append(rows, "", errorStyle.Render(a.err))
	}
	rows = append(rows, "", mutedStyle.Render(hint+"  ctrl+c: quit"))

	w := min(60, max(20, a.width-4))
	box := activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, box)
}

func userLabel(u model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
