package tui

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/form"
	"github.com/sadopc/techflow/internal/listing"
	"github.com/sadopc/techflow/internal/model"
	"github.com/sadopc/techflow/internal/store"
)

// ============================================================
// Fakes
// ============================================================

type fakeService struct {
	mu    sync.Mutex
	calls map[string]int

	tasks    []model.Task
	projects []model.Project
	members  []model.TeamMember
	user     model.User

	listTasksErr error
	loginErr     error

	lastTaskQuery  api.TaskQuery
	lastCreate     api.CreateTaskRequest
	lastDeleted    string
	lastStatus     model.TaskStatus
	lastMemberID   string
	lastProjectID  string
	registeredWith string
}

func newFakeService() *fakeService {
	return &fakeService{calls: map[string]int{}}
}

func (f *fakeService) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) Register(_ context.Context, email, _, name string) (model.User, error) {
	f.record("Register")
	f.registeredWith = email
	return model.User{ID: "u-new", Email: email, Name: name}, nil
}

func (f *fakeService) Login(_ context.Context, email, _ string) (api.LoginResponse, error) {
	f.record("Login")
	if f.loginErr != nil {
		return api.LoginResponse{}, f.loginErr
	}
	return api.LoginResponse{Token: "tok", User: model.User{ID: "u1", Email: email, Name: "Ana"}}, nil
}

func (f *fakeService) Profile(context.Context) (model.User, error) {
	f.record("Profile")
	return f.user, nil
}

func (f *fakeService) Logout() error {
	f.record("Logout")
	return nil
}

func (f *fakeService) ListProjects(_ context.Context, q api.ProjectQuery) (api.Page[model.Project], error) {
	f.record("ListProjects")
	items := f.projects
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
	}
	return api.Page[model.Project]{Items: items, TotalPages: 1, CurrentPage: 1}, nil
}

func (f *fakeService) GetProject(_ context.Context, id string) (model.Project, error) {
	f.record("GetProject")
	f.lastProjectID = id
	for _, p := range f.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Project{}, &api.Error{StatusCode: http.StatusNotFound}
}

func (f *fakeService) CreateProject(_ context.Context, req api.ProjectRequest) (model.Project, error) {
	f.record("CreateProject")
	return model.Project{ID: "p-new", Name: req.Name, Status: req.Status}, nil
}

func (f *fakeService) UpdateProject(_ context.Context, id string, req api.ProjectRequest) (model.Project, error) {
	f.record("UpdateProject")
	return model.Project{ID: id, Name: req.Name, Status: req.Status}, nil
}

func (f *fakeService) DeleteProject(_ context.Context, id string) error {
	f.record("DeleteProject")
	f.lastProjectID = id
	return nil
}

func (f *fakeService) ListTasks(_ context.Context, q api.TaskQuery) (api.Page[model.Task], error) {
	f.record("ListTasks")
	f.mu.Lock()
	f.lastTaskQuery = q
	f.mu.Unlock()
	if f.listTasksErr != nil {
		return api.Page[model.Task]{}, f.listTasksErr
	}
	return api.Page[model.Task]{Items: f.tasks, TotalPages: 1, CurrentPage: 1}, nil
}

func (f *fakeService) GetTask(_ context.Context, id string) (model.Task, error) {
	f.record("GetTask")
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, &api.Error{StatusCode: http.StatusNotFound}
}

func (f *fakeService) CreateTask(_ context.Context, req api.CreateTaskRequest) (model.Task, error) {
	f.record("CreateTask")
	f.lastCreate = req
	return model.Task{ID: "t-new", Title: req.Title}, nil
}

func (f *fakeService) UpdateTask(_ context.Context, id string, req api.UpdateTaskRequest) (model.Task, error) {
	f.record("UpdateTask")
	return model.Task{ID: id, Title: req.Title}, nil
}

func (f *fakeService) UpdateTaskStatus(_ context.Context, id string, s model.TaskStatus) (model.Task, error) {
	f.record("UpdateTaskStatus")
	f.lastStatus = s
	return model.Task{ID: id, Status: s}, nil
}

func (f *fakeService) DeleteTask(_ context.Context, id string) error {
	f.record("DeleteTask")
	f.lastDeleted = id
	return nil
}

func (f *fakeService) ListMembers(context.Context) ([]model.TeamMember, error) {
	f.record("ListMembers")
	return f.members, nil
}

func (f *fakeService) ListMemberTasks(_ context.Context, memberID string) (api.Page[model.Task], error) {
	f.record("ListMemberTasks")
	f.lastMemberID = memberID
	return api.Page[model.Task]{Items: f.tasks, TotalPages: 1, CurrentPage: 1}, nil
}

type fakeSession struct {
	authed bool
	user   model.User
}

func (s fakeSession) Authenticated() bool { return s.authed }

func (s fakeSession) User() (model.User, bool) { return s.user, s.user.ID != "" }

func (s fakeSession) ExpiresAt() (time.Time, bool) { return time.Time{}, false }

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestBackend(svc api.Service) backend {
	return backend{ctx: context.Background(), svc: svc, clock: func() time.Time { return fixedNow }}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var testDefaults = Prefs{TaskPageSize: 20, ProjectPageSize: 10, ToastDuration: 3 * time.Second}

func sampleTasks() []model.Task {
	past := model.NewDate(fixedNow.AddDate(0, 0, -2))
	return []model.Task{
		{ID: "t1", Title: "Write docs", Status: model.TaskTodo, Priority: model.PriorityLow, ProjectID: "p1"},
		{ID: "t2", Title: "Fix login", Status: model.TaskInProgress, Priority: model.PriorityHigh, ProjectID: "p1", DueDate: &past},
		{ID: "t3", Title: "Ship", Status: model.TaskCompleted, Priority: model.PriorityUrgent, ProjectID: "p2"},
	}
}

// loadedTasks returns a tasks model with the given tasks applied.
func loadedTasks(t *testing.T, svc *fakeService) tasksModel {
	t.Helper()
	tm := newTasksModel(newTestBackend(svc), 20)
	msg := tm.load()()
	tm, _ = tm.update(msg)
	if tm.list.Len() != len(svc.tasks) {
		t.Fatalf("loaded %d tasks, want %d", tm.list.Len(), len(svc.tasks))
	}
	return tm
}

// ============================================================
// Tasks view
// ============================================================

func TestCreateTaskValidationSkipsNetwork(t *testing.T) {
	svc := newFakeService()
	tm := newTasksModel(newTestBackend(svc), 20)

	d := form.NewTaskDraft()
	d.ProjectID = "p1"
	msg := tm.create(d)()

	failed, ok := msg.(saveFailedMsg)
	if !ok {
		t.Fatalf("got %T, want saveFailedMsg", msg)
	}
	if failed.view != viewTasks || failed.text == "" {
		t.Fatalf("unexpected failure: %+v", failed)
	}
	if svc.count("CreateTask") != 0 {
		t.Fatal("invalid draft must not reach the server")
	}
}

func TestCreateTaskSendsPayload(t *testing.T) {
	svc := newFakeService()
	tm := newTasksModel(newTestBackend(svc), 20)

	d := form.NewTaskDraft()
	d.Title = "  Write tests "
	d.ProjectID = "p1"
	msg := tm.create(d)()

	if _, ok := msg.(savedMsg); !ok {
		t.Fatalf("got %T, want savedMsg", msg)
	}
	if svc.count("CreateTask") != 1 {
		t.Fatalf("CreateTask calls = %d", svc.count("CreateTask"))
	}
	if svc.lastCreate.Title != "Write tests" || svc.lastCreate.ProjectID != "p1" {
		t.Fatalf("payload = %+v", svc.lastCreate)
	}
}

func TestSaveFailedReopensFormWithDraft(t *testing.T) {
	svc := newFakeService()
	tm := newTasksModel(newTestBackend(svc), 20)
	tm, _ = tm.showCreateForm()
	tm.draft.Title = "kept"
	tm.formActive = false
	tm.form = nil

	tm, _ = tm.update(saveFailedMsg{view: viewTasks, text: "boom"})
	if !tm.formActive {
		t.Fatal("form should reopen after a failed save")
	}
	if tm.draft.Title != "kept" {
		t.Fatalf("draft lost: %q", tm.draft.Title)
	}
}

func TestTasksStaleResponseIgnored(t *testing.T) {
	tm := newTasksModel(newTestBackend(newFakeService()), 20)
	first := tm.list.Begin()
	second := tm.list.Begin()

	tm, _ = tm.update(tasksDataMsg{seq: second, page: api.Page[model.Task]{Items: []model.Task{{ID: "new"}}, TotalPages: 1}})
	tm, _ = tm.update(tasksDataMsg{seq: first, page: api.Page[model.Task]{Items: []model.Task{{ID: "old"}}, TotalPages: 1}})

	if tm.list.Len() != 1 || tm.list.Items[0].ID != "new" {
		t.Fatalf("stale response applied: %+v", tm.list.Items)
	}
}

func TestTaskLoadFailureShowsEmptyList(t *testing.T) {
	svc := newFakeService()
	svc.listTasksErr = &api.Error{StatusCode: http.StatusInternalServerError, Body: []byte("down")}
	tm := newTasksModel(newTestBackend(svc), 20)

	tm, cmd := tm.update(tm.load()())
	if tm.list.Len() != 0 || tm.list.Loading() {
		t.Fatalf("failed load should leave an empty loaded list: %+v", tm.list)
	}
	if tm.list.Err == nil {
		t.Fatal("error should be kept for display")
	}
	if cmd != nil {
		t.Fatal("non-auth failures are not escalated")
	}
}

func TestTaskLoadUnauthorizedExpiresSession(t *testing.T) {
	svc := newFakeService()
	svc.listTasksErr = &api.Error{StatusCode: http.StatusUnauthorized}
	tm := newTasksModel(newTestBackend(svc), 20)

	_, cmd := tm.update(tm.load()())
	if cmd == nil {
		t.Fatal("401 should produce a command")
	}
	if _, ok := cmd().(sessionExpiredMsg); !ok {
		t.Fatal("401 should expire the session")
	}
}

func TestTaskDeleteFlow(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	tm := loadedTasks(t, svc)

	tm, cmd := tm.update(keyPress("d"))
	if cmd != nil {
		t.Fatal("staging a delete must not fire a request")
	}
	if id, ok := tm.confirm.Pending(); !ok || id != "t1" {
		t.Fatalf("pending = %q %v", id, ok)
	}

	tm, cmd = tm.update(keyPress("y"))
	if cmd == nil {
		t.Fatal("confirm should fire the delete")
	}
	msg := cmd()
	if svc.count("DeleteTask") != 1 || svc.lastDeleted != "t1" {
		t.Fatalf("delete calls = %d, id = %q", svc.count("DeleteTask"), svc.lastDeleted)
	}

	// A second confirm has nothing staged.
	if _, cmd := tm.update(keyPress("y")); cmd != nil {
		t.Fatal("second confirm should be a no-op")
	}

	before := svc.count("ListTasks")
	tm, cmd = tm.update(msg)
	if cmd == nil {
		t.Fatal("success should reload")
	}
	cmd()
	if svc.count("ListTasks") != before+1 {
		t.Fatal("list should be re-fetched after delete")
	}
}

func TestTaskDeleteCancel(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	tm := loadedTasks(t, svc)

	tm, _ = tm.update(keyPress("d"))
	tm, cmd := tm.update(keyPress("n"))
	if cmd != nil {
		t.Fatal("cancel must not fire a request")
	}
	if _, ok := tm.confirm.Pending(); ok {
		t.Fatal("cancel should clear the pending delete")
	}
	if svc.count("DeleteTask") != 0 {
		t.Fatal("no delete expected")
	}
}

func TestTaskStatusCycle(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	tm := loadedTasks(t, svc)

	_, cmd := tm.update(keyPress("s"))
	if cmd == nil {
		t.Fatal("status key should fire a request")
	}
	if _, ok := cmd().(savedMsg); !ok {
		t.Fatal("status change should report success")
	}
	if svc.lastStatus != model.TaskInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", svc.lastStatus)
	}
}

func TestSavedWhileFilterFormOpenReloads(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	tm := loadedTasks(t, svc)

	pending := tm.changeStatus("t1", model.TaskInProgress)
	tm, _ = tm.showFilterForm()
	msg := pending()
	if _, ok := msg.(savedMsg); !ok {
		t.Fatalf("got %T, want savedMsg", msg)
	}

	before := svc.count("ListTasks")
	tm, next := tm.update(msg)
	if next == nil {
		t.Fatal("saved reply should reload the list")
	}
	tm, _ = tm.update(next())
	if svc.count("ListTasks") != before+1 {
		t.Fatalf("ListTasks calls = %d, want %d", svc.count("ListTasks"), before+1)
	}
	if tm.list.Loading() || tm.list.Len() != 3 {
		t.Fatalf("reloaded list not applied: loading=%v len=%d", tm.list.Loading(), tm.list.Len())
	}
	if !tm.formActive || tm.formMode != taskFormFilter {
		t.Fatal("filter form should stay open")
	}
}

func TestSaveFailedKeepsOpenForm(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	tm := loadedTasks(t, svc)
	tm, _ = tm.showFilterForm()

	tm, cmd := tm.update(saveFailedMsg{view: viewTasks, text: "nope"})
	if cmd != nil {
		t.Fatal("failed reply should not touch an open form")
	}
	if !tm.formActive || tm.formMode != taskFormFilter {
		t.Fatal("filter form should stay open")
	}
}

func TestFilterChangeResetsPage(t *testing.T) {
	tm := newTasksModel(newTestBackend(newFakeService()), 20)
	tm.query.Pager.SetTotal(5)
	tm.query.Pager.Page = 3

	if !tm.applyFilter(listing.TaskFilter{Status: model.TaskTodo}) {
		t.Fatal("filter should report a change")
	}
	if tm.query.Pager.Page != 1 {
		t.Fatalf("page = %d, want 1", tm.query.Pager.Page)
	}
	if tm.applyFilter(listing.TaskFilter{Status: model.TaskTodo}) {
		t.Fatal("same filter is not a change")
	}
}

func TestClearFiltersReloads(t *testing.T) {
	svc := newFakeService()
	tm := newTasksModel(newTestBackend(svc), 20)
	tm.query.SetPriority(model.PriorityHigh)
	tm.query.Pager.SetTotal(4)
	tm.query.Pager.Page = 2

	tm, cmd := tm.update(keyPress("c"))
	if cmd == nil {
		t.Fatal("clearing active filters should reload")
	}
	cmd()
	if svc.lastTaskQuery.Priority != "" || svc.lastTaskQuery.Page != 1 {
		t.Fatalf("query after clear = %+v", svc.lastTaskQuery)
	}
	if tm.query.ActiveCount() != 0 {
		t.Fatal("filters should be empty")
	}
}

func TestTaskRefsKeepRosterNilOnError(t *testing.T) {
	tm := newTasksModel(newTestBackend(newFakeService()), 20)
	tm, _ = tm.update(taskRefsMsg{membersErr: errors.New("offline")})
	if tm.roster != nil {
		t.Fatal("roster should stay unknown when members fail")
	}
	tm, _ = tm.update(taskRefsMsg{})
	if tm.roster == nil {
		t.Fatal("an empty team is still a loaded roster")
	}
}

// ============================================================
// Projects view
// ============================================================

func TestProjectDetailIgnoresOtherProject(t *testing.T) {
	pm := newProjectsModel(newTestBackend(newFakeService()), 10)
	pm.viewingDetail = true
	pm.detail = &model.Project{ID: "p2", Name: "Two"}
	pm.detailLoading = true

	pm, _ = pm.update(projectDetailMsg{id: "p1", project: model.Project{ID: "p1", Name: "One"}})
	if pm.detail.ID != "p2" || !pm.detailLoading {
		t.Fatal("response for another project must be ignored")
	}

	pm, _ = pm.update(projectDetailMsg{id: "p2", project: model.Project{ID: "p2", Name: "Two v2"}, tasks: sampleTasks()})
	if pm.detail.Name != "Two v2" || len(pm.detailTasks) != 3 {
		t.Fatalf("detail not applied: %+v", pm.detail)
	}
}

func TestProjectSavedWhileSearchOpenReloads(t *testing.T) {
	svc := newFakeService()
	svc.projects = []model.Project{{ID: "p1", Name: "One"}}
	pm := newProjectsModel(newTestBackend(svc), 10)
	pm, _ = pm.update(pm.load()())
	pm, _ = pm.showSearchForm()

	before := svc.count("ListProjects")
	pm, next := pm.update(savedMsg{view: viewProjects, text: "Project deleted"})
	if next == nil {
		t.Fatal("saved reply should reload the list")
	}
	pm, _ = pm.update(next())
	if svc.count("ListProjects") != before+1 {
		t.Fatalf("ListProjects calls = %d, want %d", svc.count("ListProjects"), before+1)
	}
	if !pm.formActive || pm.formType != "search" {
		t.Fatal("search form should stay open")
	}
}

func TestProjectDetailLoadsConcurrently(t *testing.T) {
	svc := newFakeService()
	svc.projects = []model.Project{{ID: "p1", Name: "One"}}
	svc.tasks = sampleTasks()
	pm := newProjectsModel(newTestBackend(svc), 10)

	msg := pm.loadDetail("p1")().(projectDetailMsg)
	if msg.err != nil || msg.project.Name != "One" {
		t.Fatalf("detail = %+v", msg)
	}
	if svc.lastTaskQuery.ProjectID != "p1" {
		t.Fatalf("tasks query = %+v", svc.lastTaskQuery)
	}
}

// ============================================================
// Team view
// ============================================================

func TestTeamOpensMemberTasks(t *testing.T) {
	svc := newFakeService()
	svc.members = []model.TeamMember{{ID: "u1", Name: "Ana"}, {ID: "u2", Name: "Ben"}}
	svc.tasks = sampleTasks()
	tm := newTeamModel(newTestBackend(svc))

	tm, _ = tm.update(tm.load()())
	tm, _ = tm.update(keyPress("j"))
	tm, cmd := tm.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !tm.viewingTasks {
		t.Fatal("enter should open the member's tasks")
	}
	tm, _ = tm.update(cmd())
	if svc.lastMemberID != "u2" {
		t.Fatalf("member = %q, want u2", svc.lastMemberID)
	}
	if tm.tasks.Len() != 3 {
		t.Fatalf("tasks = %d", tm.tasks.Len())
	}
}

// ============================================================
// Dashboard
// ============================================================

func TestDashboardStats(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	svc.projects = []model.Project{{ID: "p1", Name: "One", Status: model.ProjectActive}}
	d := newDashboardModel(newTestBackend(svc))
	d.setSize(120, 40)

	d, _ = d.update(d.loadData()())
	want := model.Stats{Total: 3, Completed: 1, Pending: 2, Overdue: 1}
	if d.stats != want {
		t.Fatalf("stats = %+v, want %+v", d.stats, want)
	}
	if svc.lastTaskQuery.Limit != model.DashboardTaskLimit {
		t.Fatalf("dashboard limit = %d", svc.lastTaskQuery.Limit)
	}
	if !strings.Contains(d.view(), "Fix login") {
		t.Fatal("recent tasks should be rendered")
	}
}

func TestDashboardFailureZeroesStats(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	svc.listTasksErr = errors.New("offline")
	d := newDashboardModel(newTestBackend(svc))

	d, _ = d.update(d.loadData()())
	if d.stats != (model.Stats{}) || d.err == nil {
		t.Fatalf("stats = %+v err = %v", d.stats, d.err)
	}
}

// ============================================================
// Auth screen
// ============================================================

func TestLoginValidationSkipsNetwork(t *testing.T) {
	svc := newFakeService()
	a := newAuthModel(newTestBackend(svc))
	*a.login = form.LoginDraft{Email: "not-an-email", Password: "x"}

	a, _ = a.submit()
	if a.err == "" {
		t.Fatal("invalid email should show an error")
	}
	if svc.count("Login") != 0 {
		t.Fatal("invalid input must not reach the server")
	}
	if a.login.Email != "not-an-email" {
		t.Fatal("input should be kept")
	}
}

func TestLoginSuccess(t *testing.T) {
	svc := newFakeService()
	a := newAuthModel(newTestBackend(svc))
	*a.login = form.LoginDraft{Email: "ana@example.com", Password: "secret"}

	a, cmd := a.submit()
	if !a.busy || cmd == nil {
		t.Fatal("valid input should start a login")
	}
	msg, ok := cmd().(loggedInMsg)
	if !ok || msg.user.ID != "u1" {
		t.Fatalf("got %+v", msg)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	svc := newFakeService()
	svc.loginErr = &api.Error{StatusCode: http.StatusUnauthorized, Server: api.ParseServerError([]byte(`{"message":"Invalid credentials"}`))}
	a := newAuthModel(newTestBackend(svc))
	*a.login = form.LoginDraft{Email: "ana@example.com", Password: "wrong"}

	a, cmd := a.submit()
	a, _ = a.update(cmd())
	if a.err != "Invalid credentials" || a.busy {
		t.Fatalf("err = %q busy = %v", a.err, a.busy)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	svc := newFakeService()
	a := newAuthModel(newTestBackend(svc))
	a, _ = a.toggle()
	if a.mode != authRegister {
		t.Fatal("toggle should switch to register")
	}
	*a.register = form.RegisterDraft{Name: "Ana", Email: "ana@example.com", Password: "secret1"}

	a, cmd := a.submit()
	msg := cmd()
	if _, ok := msg.(registeredMsg); !ok {
		t.Fatalf("got %T", msg)
	}
	a, _ = a.update(msg)
	if a.mode != authLogin || a.login.Email != "ana@example.com" {
		t.Fatalf("mode = %v email = %q", a.mode, a.login.Email)
	}
	if svc.count("Login") != 0 {
		t.Fatal("registration must not log in")
	}
}

// ============================================================
// Settings
// ============================================================

func TestLoadPrefsOverrides(t *testing.T) {
	s := newTestStore(t)
	if got := LoadPrefs(s, testDefaults); got != testDefaults {
		t.Fatalf("empty store should give defaults, got %+v", got)
	}
	if err := s.SetSetting(store.SettingTaskPageSize, "50"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(store.SettingToastMillis, "1500"); err != nil {
		t.Fatal(err)
	}
	got := LoadPrefs(s, testDefaults)
	if got.TaskPageSize != 50 || got.ToastDuration != 1500*time.Millisecond || got.ProjectPageSize != 10 {
		t.Fatalf("prefs = %+v", got)
	}
}

func TestSettingsSaveAndReset(t *testing.T) {
	s := newTestStore(t)
	sm := newSettingsModel(s, fakeSession{}, testDefaults)
	*sm.taskPageSize = "30"
	*sm.projectPageSize = "5"
	*sm.toastMillis = "2000"

	if err := sm.saveSettings(); err != nil {
		t.Fatal(err)
	}
	if LoadPrefs(s, testDefaults).TaskPageSize != 30 {
		t.Fatal("setting not persisted")
	}

	sm.resetDefaults()
	if got := LoadPrefs(s, testDefaults); got != testDefaults {
		t.Fatalf("reset should restore defaults, got %+v", got)
	}
}

func TestSettingsListsStoredKeys(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetItems(map[string]string{store.KeyToken: "secret-token", store.KeyUser: `{"id":"u1"}`}); err != nil {
		t.Fatal(err)
	}
	sm := newSettingsModel(s, fakeSession{}, testDefaults)
	sm.setSize(100, 40)

	msg := sm.refresh()().(settingsDataMsg)
	if len(msg.stored) != 2 || msg.stored[0].Key != store.KeyToken {
		t.Fatalf("stored = %+v", msg.stored)
	}
	sm, _ = sm.update(msg)
	out := sm.view()
	if !strings.Contains(out, store.KeyUser) {
		t.Fatal("stored keys should be listed")
	}
	if strings.Contains(out, "secret-token") {
		t.Fatal("stored values must not be shown")
	}
}

func TestPositiveInt(t *testing.T) {
	for _, v := range []string{"0", "-3", "abc", ""} {
		if positiveInt(v) == nil {
			t.Errorf("%q should be rejected", v)
		}
	}
	if positiveInt(" 25 ") != nil {
		t.Error("25 should be accepted")
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T, svc *fakeService, authed bool) App {
	t.Helper()
	sess := fakeSession{authed: authed}
	if authed {
		sess.user = model.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}
	}
	app := NewApp(Options{
		Service:   svc,
		Session:   sess,
		Store:     newTestStore(t),
		Defaults:  testDefaults,
		ExportDir: t.TempDir(),
		Clock:     func() time.Time { return fixedNow },
	})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App)
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t, newFakeService(), true)
	if app.activeView != viewDashboard {
		t.Fatal("default view should be dashboard")
	}
	if app.showHelp || app.exportPicking || app.isFormActive() {
		t.Fatal("no overlays should be active initially")
	}
}

func TestAppLoadingState(t *testing.T) {
	app := NewApp(Options{Service: newFakeService(), Session: fakeSession{}})
	if out := app.View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestAppShowsAuthWithoutSession(t *testing.T) {
	app := newTestApp(t, newFakeService(), false)
	m, _ := app.Update(initMsg{})
	app = m.(App)
	if !strings.Contains(app.View(), "Log in to TechFlow") {
		t.Fatal("unauthenticated app should show the login screen")
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t, newFakeService(), true)
	for i := range viewNames {
		app.activeView = viewState(i)
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", i)
		}
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t, newFakeService(), true)
	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppTabSwitchLoadsView(t *testing.T) {
	svc := newFakeService()
	svc.members = []model.TeamMember{{ID: "u1", Name: "Ana"}}
	app := newTestApp(t, svc, true)

	m, cmd := app.Update(keyPress("4"))
	app = m.(App)
	if app.activeView != viewTeam || cmd == nil {
		t.Fatal("4 should open the team view and load it")
	}
	m, _ = app.Update(cmd())
	app = m.(App)
	if app.team.members.Len() != 1 {
		t.Fatal("members message should reach the team view")
	}
}

func TestAppToastLifecycle(t *testing.T) {
	app := newTestApp(t, newFakeService(), true)

	m, _ := app.Update(statusMsg{text: "first"})
	m, _ = m.Update(statusMsg{text: "second", isError: true})
	app = m.(App)
	if !strings.Contains(app.renderFooter(), "second") {
		t.Fatal("footer should show the latest toast")
	}

	// The first toast's timer must not clear the second.
	m, _ = app.Update(statusExpiredMsg{id: app.toastID - 1})
	app = m.(App)
	if app.toast != "second" {
		t.Fatal("stale expiry cleared the toast")
	}
	m, _ = app.Update(statusExpiredMsg{id: app.toastID})
	app = m.(App)
	if app.toast != "" {
		t.Fatal("toast should expire")
	}

	m, _ = app.Update(statusMsg{text: "third"})
	m, _ = m.Update(keyPress("z"))
	if m.(App).toast != "" {
		t.Fatal("z should dismiss the toast")
	}
}

func TestAppSessionExpired(t *testing.T) {
	svc := newFakeService()
	app := newTestApp(t, svc, true)
	app.activeView = viewTasks

	m, _ := app.Update(sessionExpiredMsg{})
	app = m.(App)
	if app.authed {
		t.Fatal("expired session should return to the auth screen")
	}
	if !strings.Contains(app.toast, "Session expired") {
		t.Fatalf("toast = %q", app.toast)
	}
	if !strings.Contains(app.View(), "Log in") {
		t.Fatal("auth screen should render")
	}
}

func TestAppLogout(t *testing.T) {
	svc := newFakeService()
	app := newTestApp(t, svc, true)

	m, cmd := app.Update(keyPress("L"))
	if cmd == nil {
		t.Fatal("L should log out")
	}
	msg := cmd()
	if svc.count("Logout") != 1 {
		t.Fatal("logout should clear the stored session")
	}
	m, _ = m.Update(msg)
	if m.(App).authed {
		t.Fatal("app should be signed out")
	}
}

func TestAppLoginEntersDashboard(t *testing.T) {
	svc := newFakeService()
	app := newTestApp(t, svc, false)

	m, cmd := app.Update(loggedInMsg{user: model.User{ID: "u1", Name: "Ana"}})
	app = m.(App)
	if !app.authed || app.activeView != viewDashboard || cmd == nil {
		t.Fatal("login should enter the dashboard")
	}
	if !strings.Contains(app.renderHeader(), "Ana") {
		t.Fatal("header should name the user")
	}
}

func TestAppRoutesSavedToOriginView(t *testing.T) {
	svc := newFakeService()
	app := newTestApp(t, svc, true)
	app.activeView = viewDashboard

	before := svc.count("ListTasks")
	m, cmd := app.Update(savedMsg{view: viewTasks, text: "Task created"})
	app = m.(App)
	if app.toast != "Task created" {
		t.Fatalf("toast = %q", app.toast)
	}
	if cmd == nil {
		t.Fatal("saved message should trigger a reload")
	}
	// The batch holds the toast tick and the reload; run only the reload.
	for _, c := range cmd().(tea.BatchMsg) {
		if c == nil {
			continue
		}
		done := make(chan tea.Msg, 1)
		go func(c tea.Cmd) { done <- c() }(c)
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
	}
	if svc.count("ListTasks") != before+1 {
		t.Fatal("tasks view should reload after save")
	}
}

func TestAppPrefsChanged(t *testing.T) {
	app := newTestApp(t, newFakeService(), true)
	m, _ := app.Update(prefsChangedMsg{prefs: Prefs{TaskPageSize: 42, ProjectPageSize: 7, ToastDuration: time.Second}})
	app = m.(App)
	if app.tasks.query.Pager.Limit != 42 || app.projects.query.Pager.Limit != 7 {
		t.Fatalf("limits = %d/%d", app.tasks.query.Pager.Limit, app.projects.query.Pager.Limit)
	}
	if app.prefs.ToastDuration != time.Second {
		t.Fatal("toast duration not applied")
	}
}

func TestAppExportCSV(t *testing.T) {
	svc := newFakeService()
	svc.tasks = sampleTasks()
	app := newTestApp(t, svc, true)

	msg := app.doExport(0)()
	done, ok := msg.(exportDoneMsg)
	if !ok {
		t.Fatalf("got %#v", msg)
	}
	if !strings.HasSuffix(done.path, "techflow-tasks-2025-06-15.csv") {
		t.Fatalf("path = %s", done.path)
	}
	if _, err := os.Stat(done.path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	if svc.lastTaskQuery.Limit != refLimit {
		t.Fatalf("export limit = %d", svc.lastTaskQuery.Limit)
	}
}

func TestExportOnlyFromTasksView(t *testing.T) {
	app := newTestApp(t, newFakeService(), true)
	m, _ := app.Update(keyPress("x"))
	if m.(App).exportPicking {
		t.Fatal("export is only offered on the tasks view")
	}
	app.activeView = viewTasks
	m, _ = app.Update(keyPress("x"))
	if !m.(App).exportPicking {
		t.Fatal("x should open the export picker on the tasks view")
	}
}

// ============================================================
// Helpers
// ============================================================

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a longer title", 8, "a longe…"},
		{"ünïcödé", 4, "ünï…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestPageLabel(t *testing.T) {
	if got := pageLabel(2, 5); got != "page 2/5" {
		t.Fatalf("got %q", got)
	}
	if got := pageLabel(1, 0); got != "page 1/1" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatMillis(t *testing.T) {
	if formatMillis(3*time.Second) != "3s" || formatMillis(1500*time.Millisecond) != "1.5s" {
		t.Fatal("unexpected duration formatting")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"statValue", func() string { return statValueStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"toastSuccess", func() string { return toastSuccessStyle.Render("test") }},
		{"toastError", func() string { return toastErrorStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"taskBadge", func() string { return badge(model.TaskInProgress.Label(), taskStatusColor(model.TaskInProgress)) }},
		{"priorityBadge", func() string { return badge(model.PriorityUrgent.Label(), priorityColor(model.PriorityUrgent)) }},
		{"projectBadge", func() string { return badge(model.ProjectOnHold.Label(), projectStatusColor(model.ProjectOnHold)) }},
	}
	for _, s := range styles {
		if s.fn() == "" {
			t.Errorf("style %s rendered empty", s.name)
		}
	}
}
