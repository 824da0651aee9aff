// Package validator provides struct validation utilities with custom validators.
package validator

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/incidenthq/api/pkg/domain/notification"
	"github.com/incidenthq/api/pkg/domain/rbac"
	"github.com/incidenthq/api/pkg/domain/report"
)

// slugRegex validates slugs: lowercase letters, numbers, hyphens.
// Must start and end with alphanumeric, no consecutive hyphens.
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validator wraps the go-playground validator with custom validations.
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, e := range v {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return sb.String()
}

// New creates a new Validator with custom validators registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("report_state", validateReportState)
	_ = v.RegisterValidation("report_type", validateReportType)
	_ = v.RegisterValidation("report_severity", validateReportSeverity)
	_ = v.RegisterValidation("comment_visibility", validateCommentVisibility)
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("notification_type", validateNotificationType)
	_ = v.RegisterValidation("slug", validateSlug)

	return &Validator{validate: v}
}

// Validate validates a struct and returns ValidationErrors if validation fails.
func (v *Validator) Validate(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !stderrors.As(err, &validationErrors) {
		return err
	}

	result := make(ValidationErrors, 0, len(validationErrors))
	for _, e := range validationErrors {
		result = append(result, ValidationError{
			Field:   toSnakeCase(e.Field()),
			Message: formatErrorMessage(e),
		})
	}

	return result
}

// validateReportState validates that a string is a valid report State.
func validateReportState(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	_, err := report.ParseState(value)
	return err == nil
}

// validateReportType validates that a string is a valid report Type.
func validateReportType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	_, err := report.ParseType(value)
	return err == nil
}

// validateReportSeverity validates that a string is a valid Severity.
func validateReportSeverity(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	_, err := report.ParseSeverity(value)
	return err == nil
}

// validateCommentVisibility validates that a string is a valid comment Visibility.
func validateCommentVisibility(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	_, err := report.ParseVisibility(value)
	return err == nil
}

// validateRole validates that a string is a valid Role.
func validateRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	_, err := rbac.ParseRole(value)
	return err == nil
}

// validateNotificationType validates that a string is a canonical
// notification Type. Legacy aliases are normalized upstream, so they
// are not accepted here.
func validateNotificationType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return notification.Type(value).IsValid()
}

// validateSlug validates that a string is a valid URL slug.
// Valid: lowercase letters, numbers, hyphens. Must start/end with alphanumeric.
func validateSlug(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return slugRegex.MatchString(value)
}

// formatErrorMessage converts validation errors to human-readable messages.
func formatErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "report_state":
		return fmt.Sprintf("must be one of: %s", joinStates())
	case "report_type":
		return "must be one of: harassment, safety, other"
	case "report_severity":
		return "must be one of: critical, high, medium, low"
	case "comment_visibility":
		return "must be one of: public, internal"
	case "role":
		return fmt.Sprintf("must be one of: %s", joinRoles())
	case "notification_type":
		return "must be a valid notification type"
	case "slug":
		return "must be a valid slug (lowercase letters, numbers, hyphens)"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("failed validation: %s", e.Tag())
	}
}

// toSnakeCase converts PascalCase/camelCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

func joinStates() string {
	states := report.AllStates()
	strs := make([]string, len(states))
	for i, s := range states {
		strs[i] = string(s)
	}
	return strings.Join(strs, ", ")
}

func joinRoles() string {
	roles := rbac.AllRoles()
	strs := make([]string, len(roles))
	for i, r := range roles {
		strs[i] = string(r)
	}
	return strings.Join(strs, ", ")
}
