package api

import (
	"context"

	"github.com/sadopc/techflow/internal/model"
)

// Service is everything the terminal UI needs from the backend. *Client
// satisfies it; tests substitute fakes.
type Service interface {
	Register(ctx context.Context, email, password, name string) (model.User, error)
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	Profile(ctx context.Context) (model.User, error)
	Logout() error

	ListProjects(ctx context.Context, q ProjectQuery) (Page[model.Project], error)
	GetProject(ctx context.Context, id string) (model.Project, error)
	CreateProject(ctx context.Context, req ProjectRequest) (model.Project, error)
	UpdateProject(ctx context.Context, id string, req ProjectRequest) (model.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListTasks(ctx context.Context, q TaskQuery) (Page[model.Task], error)
	GetTask(ctx context.Context, id string) (model.Task, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (model.Task, error)
	UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (model.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) (model.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ListMembers(ctx context.Context) ([]model.TeamMember, error)
	ListMemberTasks(ctx context.Context, memberID string) (Page[model.Task], error)
}

var _ Service = (*Client)(nil)
