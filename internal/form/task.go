package form

import (
	"strings"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/model"
)

// TaskDraft is a detached copy of a task's editable fields. Editing a draft
// never touches the task it was built from.
type TaskDraft struct {
	Title       string           `form:"title" validate:"required"`
	Description string           `form:"description" validate:"max=2000"`
	ProjectID   string           `form:"project" validate:"required"`
	Priority    model.Priority   `form:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
	Status      model.TaskStatus `form:"status" validate:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
	DueDate     string           `form:"due_date" validate:"omitempty,datetime=2006-01-02"`
	AssignedTo  string           `form:"assignee"`
}

func NewTaskDraft() TaskDraft {
	return TaskDraft{Priority: model.PriorityMedium}
}

func FromTask(t model.Task) TaskDraft {
	d := TaskDraft{
		Title:       t.Title,
		Description: t.Description,
		ProjectID:   t.ProjectID,
		Priority:    t.Priority,
		Status:      t.Status,
		AssignedTo:  t.AssignedTo,
	}
	if d.ProjectID == "" && t.Project != nil {
		d.ProjectID = t.Project.ID
	}
	if t.DueDate != nil {
		d.DueDate = t.DueDate.String()
	}
	return d
}

func (d TaskDraft) trimmed() TaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.ProjectID = strings.TrimSpace(d.ProjectID)
	d.DueDate = strings.TrimSpace(d.DueDate)
	d.AssignedTo = strings.TrimSpace(d.AssignedTo)
	return d
}

func (d TaskDraft) Validate() error {
	return check(d.trimmed())
}

// CreatePayload validates the draft and builds the create body. roster is
// the team loaded for this form session; nil means it could not be loaded.
func (d TaskDraft) CreatePayload(roster []model.TeamMember) (api.CreateTaskRequest, error) {
	t := d.trimmed()
	if err := check(t); err != nil {
		return api.CreateTaskRequest{}, err
	}
	return api.CreateTaskRequest{
		Title:       t.Title,
		ProjectID:   t.ProjectID,
		Priority:    t.Priority,
		Description: t.Description,
		DueDate:     t.DueDate,
		AssignedTo:  AssigneeRef(t.AssignedTo, roster),
	}, nil
}

func (d TaskDraft) UpdatePayload() (api.UpdateTaskRequest, error) {
	t := d.trimmed()
	if err := check(t); err != nil {
		return api.UpdateTaskRequest{}, err
	}
	return api.UpdateTaskRequest{
		Title:       t.Title,
		Description: t.Description,
		ProjectID:   t.ProjectID,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     t.DueDate,
		AssignedTo:  t.AssignedTo,
	}, nil
}

// minAssigneeLen: references this short are never sent. The backend answers
// 400 for anything that is not a full user id.
const minAssigneeLen = 20

// AssigneeRef returns the assignee to forward, or "" to create the task
// unassigned. With a roster the value must be a member id; without one the
// value must look like a generated id (a dash, or at least 30 characters).
func AssigneeRef(value string, roster []model.TeamMember) string {
	v := strings.TrimSpace(value)
	if len(v) <= minAssigneeLen {
		return ""
	}
	if roster != nil {
		for _, m := range roster {
			if m.ID == v {
				return v
			}
		}
		return ""
	}
	if strings.Contains(v, "-") || len(v) >= 30 {
		return v
	}
	return ""
}
