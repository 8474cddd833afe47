package form

import "strings"

type LoginDraft struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func (d LoginDraft) Validate() error {
	d.Email = strings.TrimSpace(d.Email)
	return check(d)
}

type RegisterDraft struct {
	Name     string `form:"name" validate:"required,max=120"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

func (d RegisterDraft) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	return check(d)
}
