// Package validation checks admin forms before they are sent to the backend.
// Struct rules live in validate tags on the model types; this package registers
// the custom tags they use and turns failures into per-field messages.
package validation

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strings"

	"github.com/Veraticus/commerce-admin/internal/common"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var clockPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// Errors collects every failed rule of a form. It matches common.ErrValidation.
type Errors []FieldError

func (e Errors) Error() string {
	lines := make([]string, len(e))
	for i, fe := range e {
		lines[i] = fe.Field + ": " + fe.Message
	}
	return "Validation errors:\n" + strings.Join(lines, "\n")
}

// Is matches common.ErrValidation.
func (e Errors) Is(target error) bool {
	return target == common.ErrValidation
}

// Field returns the message for field, or "" when it passed.
func (e Errors) Field(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Validator validates forms and sanitizes free text.
type Validator struct {
	validate *validator.Validate
	policy   *bluemonday.Policy
}

// New returns a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("country", func(fl validator.FieldLevel) bool {
		_, ok := model.Countries[fl.Field().String()]
		return ok
	})
	_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
		_, ok := model.Currencies[fl.Field().String()]
		return ok
	})
	_ = v.RegisterValidation("tax_regime", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, r := range model.TaxRegimes {
			if r == value {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockPattern.MatchString(fl.Field().String())
	})

	return &Validator{
		validate: v,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Sanitize strips markup from user input and trims surrounding space. The
// policy escapes entities, so they are decoded again to keep "&" and quotes.
func (v *Validator) Sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(v.policy.Sanitize(s)))
}

// Struct validates s against its validate tags. Failures are returned as Errors
// keyed by the JSON path of the field, e.g. "company.ruc".
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe),
		})
	}
	return out
}

// fieldPath drops the top-level struct name from a namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "country":
		return field + " is not a supported country"
	case "currency_code":
		return field + " is not a supported currency"
	case "tax_regime":
		return field + " is not a known tax regime"
	case "clock":
		return field + " must be a time in HH:MM format"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
