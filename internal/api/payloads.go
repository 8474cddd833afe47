package api

import "github.com/sadopc/techflow/internal/model"

// CreateTaskRequest is the create body. The backend expects snake_case here
// and rejects empty optional keys, so they are omitted when unset.
type CreateTaskRequest struct {
	Title       string         `json:"title"`
	ProjectID   string         `json:"project_id"`
	Priority    model.Priority `json:"priority"`
	Description string         `json:"description,omitempty"`
	DueDate     string         `json:"due_date,omitempty"`
	AssignedTo  string         `json:"assigned_to,omitempty"`
}

// UpdateTaskRequest uses the camelCase names the backend accepts on PUT.
type UpdateTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	ProjectID   string           `json:"projectId"`
	Priority    model.Priority   `json:"priority"`
	Status      model.TaskStatus `json:"status,omitempty"`
	DueDate     string           `json:"dueDate,omitempty"`
	AssignedTo  string           `json:"assignedTo,omitempty"`
}

type ProjectRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Status      model.ProjectStatus `json:"status,omitempty"`
}

type statusRequest struct {
	Status model.TaskStatus `json:"status"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type projectsResponse struct {
	Projects    []model.Project `json:"projects"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

type tasksResponse struct {
	Tasks       []model.Task `json:"tasks"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
}

type membersResponse struct {
	Members []model.TeamMember `json:"members"`
}
