package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dangerclosesec/partnerhub/internal/domain"
	"github.com/go-playground/validator/v10"
)

// newValidator reports field errors under their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validationError folds validator output into domain.ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return domain.Validationf("%s is required", fe.Field())
		case "oneof":
			return domain.Validationf("%s must be one of [%s]", fe.Field(), fe.Param())
		case "email":
			return domain.Validationf("%s must be a valid email address", fe.Field())
		case "min", "max":
			return domain.Validationf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param())
		default:
			return domain.Validationf("%s is invalid", fe.Field())
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrValidation, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
