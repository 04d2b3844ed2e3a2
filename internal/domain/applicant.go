package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Applicant is a job application submitted through the careers form.
// Records are created once and never updated.
type Applicant struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name" validate:"required"`
	Email          string    `json:"email" validate:"required,email"`
	Phone          string    `json:"phone" validate:"required"`
	Address        string    `json:"address" validate:"required"`
	OfficeLocation string    `json:"officeLocation" validate:"required"`
	ResumeFile     *string   `json:"resumeFile,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Normalize trims surrounding whitespace from every text field.
func (a Applicant) Normalize() Applicant {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Address = strings.TrimSpace(a.Address)
	a.OfficeLocation = strings.TrimSpace(a.OfficeLocation)
	return a
}

// Validate checks required fields and the email format. The first failing
// field is returned as a *ValidationError.
func (a Applicant) Validate() error {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	// Report a missing field ahead of a malformed one.
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Field: fieldName(fe.Field()), Message: msgRequired}
		}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fieldName(fe.Field()), Message: "invalid " + fe.Tag()}
}

func fieldName(structField string) string {
	if structField == "" {
		return ""
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}
