package usecase

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"learnplatform/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// check runs struct validation and turns the first failure into a domain validation error.
func check(in interface{}) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Validation("invalid input")
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return domain.Validation("%s is required", field)
	case "email":
		return domain.Validation("%s must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return domain.Validation("%s must be at least %s characters", field, fe.Param())
		}
		return domain.Validation("%s must be at least %s", field, fe.Param())
	case "max":
		return domain.Validation("%s must be at most %s", field, fe.Param())
	case "oneof":
		return domain.Validation("%s must be one of: %s", field, fe.Param())
	default:
		return domain.Validation("%s is invalid", field)
	}
}
