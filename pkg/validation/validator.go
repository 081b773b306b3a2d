package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	MaxGraphNameLength = 200

	graphNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]*$`)
)

func init() {
	validate = validator.New()
}

// TranslateRequest is the query of a POST /api/translate call. Format is
// only checked for shape here; translate.ParseKind decides which names and
// aliases are known.
type TranslateRequest struct {
	Format string `json:"format" validate:"omitempty,max=32,printascii"`
	Name   string `json:"name" validate:"omitempty,max=200"`
}

// LayoutRequest selects a server-side layout algorithm.
type LayoutRequest struct {
	Algorithm  string `json:"algorithm" validate:"omitempty,oneof=force circular hierarchical"`
	Iterations int    `json:"iterations" validate:"omitempty,min=1,max=5000"`
}

// Struct validates v against its `validate` tags and returns the first
// failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// ValidateTranslateRequest validates a translation request.
func ValidateTranslateRequest(req *TranslateRequest) error {
	if req == nil {
		return errors.New("translate request cannot be nil")
	}
	if err := Struct(req); err != nil {
		return err
	}
	if req.Name != "" {
		if err := ValidateGraphName(req.Name); err != nil {
			return fmt.Errorf("Name: %w", err)
		}
	}
	return nil
}

// ValidateLayoutRequest validates a layout request.
func ValidateLayoutRequest(req *LayoutRequest) error {
	if req == nil {
		return errors.New("layout request cannot be nil")
	}
	return Struct(req)
}

// ValidateGraphName checks a graph name used in URLs and output file names.
func ValidateGraphName(name string) error {
	if name == "" {
		return errors.New("graph name cannot be empty")
	}
	if len(name) > MaxGraphNameLength {
		return fmt.Errorf("graph name exceeds maximum length of %d characters", MaxGraphNameLength)
	}
	if !graphNamePattern.MatchString(name) {
		return fmt.Errorf("graph name %q contains invalid characters", name)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "dive":
			return fmt.Errorf("%s: invalid element in array", field)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
