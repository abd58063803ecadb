package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hgarciaospina/library-management/util/errs"
)

// Validator runs struct-tag rules and reports failures as *errs.ValidationError
// keyed by the JSON field name. It satisfies echo.Validator.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(i interface{}) error {
	err := v.v.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &errs.ValidationError{}
	for _, fe := range ves {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

// Check validates i and hands the resulting field set to more, which may add
// rules that tags cannot express. The combined set is returned.
func (v *Validator) Check(i interface{}, more func(ve *errs.ValidationError)) error {
	ve := &errs.ValidationError{}
	if err := v.Validate(i); err != nil {
		if !errors.As(err, &ve) {
			return err
		}
	}
	if more != nil {
		more(ve)
	}
	return ve.OrNil()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "isbn":
		return "must be a valid ISBN-10 or ISBN-13"
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
