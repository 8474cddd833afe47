// Package form holds the editable drafts behind the create/edit forms and
// turns them into request payloads once they validate.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError names the first offending field. It is raised before any
// request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// messages maps field/tag pairs to user-facing text. Pairs without an entry
// get a generic message.
var messages = map[string]string{
	"title/required":    "title is required",
	"project/required":  "a project must be selected",
	"priority/required": "priority is required",
	"priority/oneof":    "priority must be one of LOW, MEDIUM, HIGH, URGENT",
	"status/oneof":      "status is not valid",
	"status/required":   "status is required",
	"due_date/datetime": "due date must be YYYY-MM-DD",
	"name/required":     "name is required",
	"name/max":          "name is too long",
	"description/max":   "description is too long",
	"email/required":    "email is required",
	"email/email":       "email is not valid",
	"password/required": "password is required",
	"password/min":      "password must be at least 6 characters",
}

func check(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := messages[fe.Field()+"/"+fe.Tag()]
	if !ok {
		msg = fmt.Sprintf("%s is not valid", fe.Field())
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
