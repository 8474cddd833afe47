package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/techflow/internal/logging"
	"github.com/sadopc/techflow/internal/model"
	"github.com/sadopc/techflow/internal/store"
)

// Prefs are the user-tunable knobs. Defaults come from configuration; the
// store holds overrides.
type Prefs struct {
	TaskPageSize    int
	ProjectPageSize int
	ToastDuration   time.Duration
}

// LoadPrefs merges stored overrides over defaults.
func LoadPrefs(s *store.Store, defaults Prefs) Prefs {
	if s == nil {
		return defaults
	}
	return Prefs{
		TaskPageSize:    s.GetIntSetting(store.SettingTaskPageSize, defaults.TaskPageSize),
		ProjectPageSize: s.GetIntSetting(store.SettingProjectPageSize, defaults.ProjectPageSize),
		ToastDuration:   time.Duration(s.GetIntSetting(store.SettingToastMillis, int(defaults.ToastDuration/time.Millisecond))) * time.Millisecond,
	}
}

type settingsModel struct {
	store    *store.Store
	session  Session
	width    int
	height   int
	defaults Prefs

	prefs      Prefs
	overrides  map[string]bool
	user       model.User
	hasUser    bool
	expiresAt  time.Time
	hasExpiry  bool
	stored     []store.Item
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	taskPageSize    *string
	projectPageSize *string
	toastMillis     *string
}

func newSettingsModel(s *store.Store, sess Session, defaults Prefs) settingsModel {
	tp, pp, tm := "", "", ""
	return settingsModel{
		store:           s,
		session:         sess,
		defaults:        defaults,
		prefs:           defaults,
		taskPageSize:    &tp,
		projectPageSize: &pp,
		toastMillis:     &tm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	prefs     Prefs
	overrides map[string]bool
	user      model.User
	hasUser   bool
	expiresAt time.Time
	hasExpiry bool
	stored    []store.Item
}

// prefsChangedMsg tells the app to apply new preferences to live views.
type prefsChangedMsg struct {
	prefs Prefs
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		msg := settingsDataMsg{prefs: LoadPrefs(s.store, s.defaults), overrides: map[string]bool{}}
		if s.store != nil {
			settings, _ := s.store.GetAllSettings()
			for _, st := range settings {
				msg.overrides[st.Key] = true
			}
			items, err := s.store.ListItems()
			if err != nil {
				logging.WithComponent("settings").WithError(err).Warn("list stored items")
			}
			msg.stored = items
		}
		if s.session != nil {
			msg.user, msg.hasUser = s.session.User()
			msg.expiresAt, msg.hasExpiry = s.session.ExpiresAt()
		}
		return msg
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.prefs = msg.prefs
		s.overrides = msg.overrides
		s.user, s.hasUser = msg.user, msg.hasUser
		s.expiresAt, s.hasExpiry = msg.expiresAt, msg.hasExpiry
		s.stored = msg.stored
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		case key.Matches(msg, keys.Clear):
			return s, s.resetDefaults()
		}
	}
	return s, nil
}

func positiveInt(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive whole number")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.taskPageSize = strconv.Itoa(s.prefs.TaskPageSize)
	*s.projectPageSize = strconv.Itoa(s.prefs.ProjectPageSize)
	*s.toastMillis = strconv.Itoa(int(s.prefs.ToastDuration / time.Millisecond))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Tasks per page").Value(s.taskPageSize).Validate(positiveInt),
			huh.NewInput().Title("Projects per page").Value(s.projectPageSize).Validate(positiveInt),
		).Title("Lists"),
		huh.NewGroup(
			huh.NewInput().Title("Notification duration (ms)").Value(s.toastMillis).Validate(positiveInt),
		).Title("Notifications"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	f, cmd := s.form.Update(msg)
	if f, ok := f.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, status(fmt.Sprintf("Could not save settings: %v", err), true)
		}
		return s, s.applied("Settings saved")
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	if s.store == nil {
		return fmt.Errorf("no local storage")
	}
	values := map[string]string{
		store.SettingTaskPageSize:    strings.TrimSpace(*s.taskPageSize),
		store.SettingProjectPageSize: strings.TrimSpace(*s.projectPageSize),
		store.SettingToastMillis:     strings.TrimSpace(*s.toastMillis),
	}
	for k, v := range values {
		if err := s.store.SetSetting(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) resetDefaults() tea.Cmd {
	if s.store == nil {
		return nil
	}
	for _, k := range []string{store.SettingTaskPageSize, store.SettingProjectPageSize, store.SettingToastMillis} {
		if err := s.store.DeleteSetting(k); err != nil {
			return status(fmt.Sprintf("Could not reset settings: %v", err), true)
		}
	}
	return s.applied("Settings reset to defaults")
}

// applied re-reads the store and broadcasts the effective preferences.
func (s settingsModel) applied(text string) tea.Cmd {
	prefs := LoadPrefs(s.store, s.defaults)
	return tea.Batch(
		s.refresh(),
		func() tea.Msg { return prefsChangedMsg{prefs: prefs} },
		status(text, false),
	)
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Account"), "")
	if s.hasUser {
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Name"), highlightStyle.Render(s.user.Name)))
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Email"), highlightStyle.Render(s.user.Email)))
	} else {
		rows = append(rows, mutedStyle.Render("  No profile cached"))
	}
	if s.hasExpiry {
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render("Session expires"), highlightStyle.Render(s.expiresAt.Local().Format("2006-01-02 15:04"))))
	}

	if len(s.stored) > 0 {
		rows = append(rows, "", mutedStyle.Render("  Stored on this machine"))
		for _, it := range s.stored {
			// Values hold the token; only keys are shown.
			rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(it.Key), mutedStyle.Render("updated "+it.UpdatedAt.Local().Format("2006-01-02 15:04"))))
		}
	}

	rows = append(rows, "", titleStyle.Render("Preferences"), "")
	rows = append(rows, s.settingRow("Tasks per page", store.SettingTaskPageSize, strconv.Itoa(s.prefs.TaskPageSize)))
	rows = append(rows, s.settingRow("Projects per page", store.SettingProjectPageSize, strconv.Itoa(s.prefs.ProjectPageSize)))
	rows = append(rows, s.settingRow("Notification duration", store.SettingToastMillis, formatMillis(s.prefs.ToastDuration)))

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings, c to reset to defaults, L to log out"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s settingsModel) settingRow(label, k, value string) string {
	l := lipgloss.NewStyle().Width(24).Render(label)
	v := highlightStyle.Render(value)
	if !s.overrides[k] {
		v += mutedStyle.Render(" (default)")
	}
	return fmt.Sprintf("  %s %s", l, v)
}

func formatMillis(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
