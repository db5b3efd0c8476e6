// Package profile validates, normalizes and renders job-seeker profiles, and
// decodes the resume documents they can be populated from.
package profile

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"tailorpro/internal/errors"
	"tailorpro/internal/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator returns the shared struct validator configured with JSON field names.
func Validator() *validator.Validate {
	return validate
}

// Normalize trims every string, replaces nil lists with empty ones and assigns
// an ID to each list entry that lacks one. It mutates p in place.
func Normalize(p *types.UserProfile) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)

	skills := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	p.Skills = skills

	if p.Experiences == nil {
		p.Experiences = []types.WorkExperience{}
	}
	for i := range p.Experiences {
		e := &p.Experiences[i]
		e.ID = ensureID(e.ID)
		e.JobTitle = strings.TrimSpace(e.JobTitle)
		e.Company = strings.TrimSpace(e.Company)
		e.StartDate = strings.TrimSpace(e.StartDate)
		e.EndDate = strings.TrimSpace(e.EndDate)
		e.Description = strings.TrimSpace(e.Description)
	}

	if p.Education == nil {
		p.Education = []types.Education{}
	}
	for i := range p.Education {
		e := &p.Education[i]
		e.ID = ensureID(e.ID)
		e.Institution = strings.TrimSpace(e.Institution)
		e.Degree = strings.TrimSpace(e.Degree)
		e.FieldOfStudy = strings.TrimSpace(e.FieldOfStudy)
		e.GraduationDate = strings.TrimSpace(e.GraduationDate)
	}

	if p.Projects == nil {
		p.Projects = []types.Project{}
	}
	for i := range p.Projects {
		pr := &p.Projects[i]
		pr.ID = ensureID(pr.ID)
		pr.Name = strings.TrimSpace(pr.Name)
		pr.Description = strings.TrimSpace(pr.Description)
		pr.URL = strings.TrimSpace(pr.URL)
	}

	if p.Certifications == nil {
		p.Certifications = []types.Certification{}
	}
	for i := range p.Certifications {
		c := &p.Certifications[i]
		c.ID = ensureID(c.ID)
		c.Name = strings.TrimSpace(c.Name)
		c.IssuingOrganization = strings.TrimSpace(c.IssuingOrganization)
		c.DateEarned = strings.TrimSpace(c.DateEarned)
	}
}

func ensureID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// Validate checks the profile constraints and returns a validation AppError
// whose "fields" context maps JSON field paths to messages.
func Validate(p types.UserProfile) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInternalError(errors.ErrCodeProfileInvalid, "profile validation failed", err)
	}

	fields := FieldErrors(verrs)
	return errors.NewValidationError(errors.ErrCodeProfileInvalid,
		fmt.Sprintf("profile has %d invalid field(s)", len(fields)), nil).
		WithContext("fields", fields)
}

// FieldErrors converts validator errors into a field path -> message map.
func FieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		fields[path] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", displayName(fe.Field()))
	case "email":
		return "Invalid email address"
	case "url":
		return "Invalid URL"
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func displayName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
