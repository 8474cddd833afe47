package api

import (
	"context"
	"net/http"

	"github.com/sadopc/techflow/internal/model"
)

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) (Page[model.Task], error) {
	var resp tasksResponse
	if err := c.doJSON(ctx, http.MethodGet, "/tasks", q.Values(), nil, &resp); err != nil {
		return Page[model.Task]{}, err
	}
	return Page[model.Task]{
		Items:       resp.Tasks,
		TotalPages:  resp.TotalPages,
		CurrentPage: resp.CurrentPage,
	}, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (model.Task, error) {
	var t model.Task
	err := c.doJSON(ctx, http.MethodGet, "/tasks/"+escape(id), nil, nil, &t)
	return t, err
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (model.Task, error) {
	var t model.Task
	err := c.doJSON(ctx, http.MethodPost, "/tasks", nil, req, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (model.Task, error) {
	var t model.Task
	err := c.doJSON(ctx, http.MethodPut, "/tasks/"+escape(id), nil, req, &t)
	return t, err
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status model.TaskStatus) (model.Task, error) {
	var t model.Task
	err := c.doJSON(ctx, http.MethodPatch, "/tasks/"+escape(id)+"/status", nil, statusRequest{Status: status}, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/tasks/"+escape(id), nil, nil, nil)
}
