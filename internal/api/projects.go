package api

import (
	"context"
	"net/http"

	"github.com/sadopc/techflow/internal/model"
)

func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) (Page[model.Project], error) {
	var resp projectsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/projects", q.Values(), nil, &resp); err != nil {
		return Page[model.Project]{}, err
	}
	return Page[model.Project]{
		Items:       resp.Projects,
		TotalPages:  resp.TotalPages,
		CurrentPage: resp.CurrentPage,
	}, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (model.Project, error) {
	var p model.Project
	err := c.doJSON(ctx, http.MethodGet, "/projects/"+escape(id), nil, nil, &p)
	return p, err
}

func (c *Client) CreateProject(ctx context.Context, req ProjectRequest) (model.Project, error) {
	var p model.Project
	err := c.doJSON(ctx, http.MethodPost, "/projects", nil, req, &p)
	return p, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, req ProjectRequest) (model.Project, error) {
	var p model.Project
	err := c.doJSON(ctx, http.MethodPut, "/projects/"+escape(id), nil, req, &p)
	return p, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/projects/"+escape(id), nil, nil, nil)
}
