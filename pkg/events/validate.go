package events

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

// literal is implemented by every closed literal-set type in this package.
type literal interface {
	Valid() bool
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("awsenum", func(fl validator.FieldLevel) bool {
			if l, ok := fl.Field().Interface().(literal); ok {
				return l.Valid()
			}
			return false
		})

		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if s, ok := field.Interface().(StringOrSlice); ok {
				return s.Values()
			}
			return nil
		}, StringOrSlice{})

		v.RegisterStructValidation(func(sl validator.StructLevel) {
			c := sl.Current().Interface().(CustomResourceEventCommon)
			if c.ResourceProperties != nil && c.ResourceProperties.ServiceToken() == "" {
				sl.ReportError(c.ResourceProperties, "ResourceProperties", "ResourceProperties", "servicetoken", "")
			}
		}, CustomResourceEventCommon{})

		validate = v
	})
	return validate
}

// Validate checks v against the documented constraints of its event type:
// required fields, closed literal sets and tagged-union requirements.
func Validate(v any) error {
	if envelope, ok := v.(CustomResourceEventEnvelope); ok {
		v = envelope.Event
	}
	if envelope, ok := v.(*CustomResourceEventEnvelope); ok {
		v = envelope.Event
	}

	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("events: validating %T: %w", v, err)
	}
	return formatValidationErrors(verrs)
}

func formatValidationErrors(verrs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(verrs))
	for _, err := range verrs {
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Namespace())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Namespace(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Namespace(), err.Param())
		case "awsenum":
			message = fmt.Sprintf("%s has undocumented value %q", err.Namespace(), fmt.Sprint(err.Value()))
		case "servicetoken":
			message = fmt.Sprintf("%s must contain a ServiceToken", err.Namespace())
		case "url":
			message = fmt.Sprintf("%s must be a URL", err.Namespace())
		default:
			message = fmt.Sprintf("%s is invalid", err.Namespace())
		}

		out = append(out, ValidationError{
			Field:   err.Namespace(),
			Tag:     err.Tag(),
			Value:   fmt.Sprintf("%v", err.Value()),
			Message: message,
		})
	}
	return out
}
