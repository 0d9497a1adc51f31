package dto

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("harness_role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
	return v
}

// validateStruct runs struct tags and converts the first failure into a
// domain validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return domain.ErrInvalidField("body", err.Error())
	}

	fe := ves[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return domain.ErrMissingField(field)
	case "email":
		return domain.ErrInvalidField(field, "invalid format")
	case "max":
		return domain.ErrInvalidField(field, "must be at most "+fe.Param()+" characters")
	case "harness_role":
		return domain.ErrInvalidField(field, "unknown role "+fe.Value().(string))
	default:
		return domain.ErrInvalidField(field, "failed "+fe.Tag())
	}
}
