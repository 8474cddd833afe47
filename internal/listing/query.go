package listing

import (
	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/model"
)

// TaskFilter fields are absent when empty.
type TaskFilter struct {
	Status     model.TaskStatus
	Priority   model.Priority
	ProjectID  string
	AssignedTo string
}

// TaskQueryState is the filter plus pagination for the task list. Every
// filter change returns to page 1.
type TaskQueryState struct {
	Filter TaskFilter
	Pager  Pager
}

func NewTaskQueryState(limit int) TaskQueryState {
	return TaskQueryState{Pager: NewPager(limit)}
}

func (q *TaskQueryState) SetStatus(s model.TaskStatus) {
	q.Filter.Status = s
	q.Pager.Reset()
}

func (q *TaskQueryState) SetPriority(p model.Priority) {
	q.Filter.Priority = p
	q.Pager.Reset()
}

func (q *TaskQueryState) SetProject(id string) {
	q.Filter.ProjectID = id
	q.Pager.Reset()
}

func (q *TaskQueryState) SetAssignee(id string) {
	q.Filter.AssignedTo = id
	q.Pager.Reset()
}

func (q *TaskQueryState) Clear() {
	q.Filter = TaskFilter{}
	q.Pager.Reset()
}

func (q TaskQueryState) ActiveCount() int {
	n := 0
	for _, v := range []string{string(q.Filter.Status), string(q.Filter.Priority), q.Filter.ProjectID, q.Filter.AssignedTo} {
		if v != "" {
			n++
		}
	}
	return n
}

func (q TaskQueryState) Query() api.TaskQuery {
	return api.TaskQuery{
		ProjectID:  q.Filter.ProjectID,
		Status:     q.Filter.Status,
		Priority:   q.Filter.Priority,
		AssignedTo: q.Filter.AssignedTo,
		Page:       q.Pager.Page,
		Limit:      q.Pager.Limit,
	}
}

type ProjectQueryState struct {
	Search string
	Pager  Pager
}

func NewProjectQueryState(limit int) ProjectQueryState {
	return ProjectQueryState{Pager: NewPager(limit)}
}

// SetSearch reports whether the term changed; only a change resets the page.
func (q *ProjectQueryState) SetSearch(s string) bool {
	if s == q.Search {
		return false
	}
	q.Search = s
	q.Pager.Reset()
	return true
}

func (q ProjectQueryState) Query() api.ProjectQuery {
	return api.ProjectQuery{Page: q.Pager.Page, Limit: q.Pager.Limit, Search: q.Search}
}
