package api

import (
	"net/url"
	"strconv"

	"github.com/sadopc/techflow/internal/model"
)

// Page is one page of a paginated list.
type Page[T any] struct {
	Items       []T
	TotalPages  int
	CurrentPage int
}

// TaskQuery holds optional filters; zero values are absent and not sent.
type TaskQuery struct {
	ProjectID  string
	Status     model.TaskStatus
	Priority   model.Priority
	AssignedTo string
	Page       int
	Limit      int
}

func (q TaskQuery) Values() url.Values {
	v := url.Values{}
	if q.ProjectID != "" {
		v.Set("projectId", q.ProjectID)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Priority != "" {
		v.Set("priority", string(q.Priority))
	}
	if q.AssignedTo != "" {
		v.Set("assignedTo", q.AssignedTo)
	}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	return v
}

type ProjectQuery struct {
	Page   int
	Limit  int
	Search string
}

func (q ProjectQuery) Values() url.Values {
	v := url.Values{}
	setInt(v, "page", q.Page)
	setInt(v, "limit", q.Limit)
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

func setInt(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}
