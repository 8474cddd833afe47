package api

import (
	"context"
	"net/http"

	"github.com/sadopc/techflow/internal/model"
)

func (c *Client) ListMembers(ctx context.Context) ([]model.TeamMember, error) {
	var resp membersResponse
	err := c.doJSON(ctx, http.MethodGet, "/team/members", nil, nil, &resp)
	return resp.Members, err
}

func (c *Client) ListMemberTasks(ctx context.Context, memberID string) (Page[model.Task], error) {
	var resp tasksResponse
	if err := c.doJSON(ctx, http.MethodGet, "/team/members/"+escape(memberID)+"/tasks", nil, nil, &resp); err != nil {
		return Page[model.Task]{}, err
	}
	return Page[model.Task]{Items: resp.Tasks, TotalPages: resp.TotalPages, CurrentPage: resp.CurrentPage}, nil
}
