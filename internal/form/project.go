package form

import (
	"strings"

	"github.com/sadopc/techflow/internal/api"
	"github.com/sadopc/techflow/internal/model"
)

type ProjectDraft struct {
	Name        string              `form:"name" validate:"required,max=120"`
	Description string              `form:"description" validate:"max=2000"`
	Status      model.ProjectStatus `form:"status" validate:"required,oneof=ACTIVE COMPLETED ON_HOLD"`
}

func NewProjectDraft() ProjectDraft {
	return ProjectDraft{Status: model.ProjectActive}
}

func FromProject(p model.Project) ProjectDraft {
	d := ProjectDraft{Name: p.Name, Description: p.Description, Status: p.Status}
	if d.Status == "" {
		d.Status = model.ProjectActive
	}
	return d
}

func (d ProjectDraft) trimmed() ProjectDraft {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	return d
}

func (d ProjectDraft) Validate() error {
	return check(d.trimmed())
}

func (d ProjectDraft) Payload() (api.ProjectRequest, error) {
	t := d.trimmed()
	if err := check(t); err != nil {
		return api.ProjectRequest{}, err
	}
	return api.ProjectRequest{Name: t.Name, Description: t.Description, Status: t.Status}, nil
}
