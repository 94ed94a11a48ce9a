// Package profile holds the user-supplied identity fields and the skill set
// that end up in the generated README.
package profile

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names a single profile attribute.
type Field string

const (
	FieldName      Field = "name"
	FieldGitHub    Field = "github"
	FieldLinkedIn  Field = "linkedin"
	FieldPortfolio Field = "portfolio"
	FieldEmail     Field = "email"
)

// Fields lists every profile field in prompt order.
var Fields = []Field{FieldName, FieldGitHub, FieldLinkedIn, FieldPortfolio, FieldEmail}

// ParseField maps a user-typed key (case-insensitive, with common aliases)
// onto a Field.
func ParseField(key string) (Field, bool) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "name", "full name", "fullname":
		return FieldName, true
	case "github", "gh", "github username", "github handle":
		return FieldGitHub, true
	case "linkedin", "linked in", "linkedin url":
		return FieldLinkedIn, true
	case "portfolio", "website", "site", "web", "homepage", "blog":
		return FieldPortfolio, true
	case "email", "e-mail", "mail":
		return FieldEmail, true
	}
	return "", false
}

// Profile is the identity block of a README. Every field is optional until
// the conversation requires it.
type Profile struct {
	Name      string `json:"name,omitempty" validate:"omitempty,personname"`
	GitHub    string `json:"github,omitempty" validate:"omitempty,githubhandle"`
	LinkedIn  string `json:"linkedin,omitempty" validate:"omitempty,url,linkedinurl"`
	Portfolio string `json:"portfolio,omitempty" validate:"omitempty,http_url"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// Get returns the current value of a field.
func (p Profile) Get(f Field) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldGitHub:
		return p.GitHub
	case FieldLinkedIn:
		return p.LinkedIn
	case FieldPortfolio:
		return p.Portfolio
	case FieldEmail:
		return p.Email
	}
	return ""
}

func (p *Profile) set(f Field, v string) {
	switch f {
	case FieldName:
		p.Name = v
	case FieldGitHub:
		p.GitHub = v
	case FieldLinkedIn:
		p.LinkedIn = v
	case FieldPortfolio:
		p.Portfolio = v
	case FieldEmail:
		p.Email = v
	}
}

// Missing returns the required fields that are still empty, in the order given.
func (p Profile) Missing(required []Field) []Field {
	var out []Field
	for _, f := range required {
		if p.Get(f) == "" {
			out = append(out, f)
		}
	}
	return out
}

// Require returns a *ValidationError naming each required field that is
// empty, or nil when all of them are set.
func (p Profile) Require(required []Field) error {
	missing := p.Missing(required)
	if len(missing) == 0 {
		return nil
	}
	ve := &ValidationError{}
	for _, f := range missing {
		ve.Fields = append(ve.Fields, FieldError{Field: f, Reason: "required and cannot be cleared"})
	}
	return ve
}

// Assignment is one parsed "field: value" pair.
type Assignment struct {
	Field Field
	Value string
}

// With returns a copy of p with the assignments applied and validated.
// Either every assignment is applied or none is: on a validation error the
// receiver is returned unchanged alongside a *ValidationError. Later
// assignments to the same field win.
func (p Profile) With(assignments []Assignment) (Profile, error) {
	next := p
	for _, a := range assignments {
		next.set(a.Field, canonical(a.Field, a.Value))
	}
	if err := validate.Struct(next); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return p, newValidationError(verrs)
		}
		return p, fmt.Errorf("validating profile: %w", err)
	}
	return next, nil
}

// canonical trims the value and strips decorations users commonly paste.
func canonical(f Field, v string) string {
	v = strings.TrimSpace(v)
	switch f {
	case FieldGitHub:
		v = strings.TrimPrefix(v, "@")
		for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
			v = strings.TrimPrefix(v, prefix)
		}
		v = strings.TrimSuffix(v, "/")
	case FieldLinkedIn, FieldPortfolio:
		if v != "" && !strings.Contains(v, "://") {
			v = "https://" + v
		}
	case FieldEmail:
		v = strings.TrimPrefix(v, "mailto:")
	case FieldName:
		v = strings.Join(strings.Fields(v), " ")
	}
	return v
}

// FieldError describes one rejected field.
type FieldError struct {
	Field  Field
	Reason string
}

// ValidationError is returned when one or more profile fields fail validation.
type ValidationError struct {
	Fields []FieldError
}

func newValidationError(verrs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{}
	for _, fe := range verrs {
		f := Field(fe.Field())
		ve.Fields = append(ve.Fields, FieldError{Field: f, Reason: reasonFor(f)})
	}
	return ve
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Reason))
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

func reasonFor(f Field) string {
	switch f {
	case FieldName:
		return "use 2 to 50 letters, spaces, hyphens, apostrophes or dots"
	case FieldGitHub:
		return "use a GitHub username (letters, digits and inner hyphens, at most 39 characters)"
	case FieldLinkedIn:
		return "use a full URL like https://linkedin.com/in/your-name"
	case FieldPortfolio:
		return "use a full URL starting with http:// or https://"
	case FieldEmail:
		return "use an address like you@example.com"
	}
	return "invalid value"
}

var (
	personNameRe   = regexp.MustCompile(`^[\p{L}\s\-'.]+$`)
	githubHandleRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,37}[a-zA-Z0-9])?$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		n := len([]rune(s))
		return n >= 2 && n <= 50 && personNameRe.MatchString(s)
	})
	mustRegister(v, "githubhandle", func(fl validator.FieldLevel) bool {
		return githubHandleRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "linkedinurl", func(fl validator.FieldLevel) bool {
		s := strings.ToLower(fl.Field().String())
		return strings.Contains(s, "linkedin.com/in/") || strings.Contains(s, "linkedin.com/company/")
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("registering %s validation: %v", tag, err))
	}
}
