package service

import (
	"errors"
	"reflect"
	"strings"

	"dealflow/internal/model"

	"github.com/go-playground/validator/v10"
)

func newValidator(catalog model.Catalog) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("deal_type", func(fl validator.FieldLevel) bool {
		return catalog.IsDealType(fl.Field().String())
	})
	_ = v.RegisterValidation("class_of_trade", func(fl validator.FieldLevel) bool {
		return catalog.IsClassOfTrade(fl.Field().String())
	})
	return v
}

// toValidationError converts validator output into a ValidationError.
func toValidationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range ves {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "this field is required"
	case "deal_type", "class_of_trade":
		return "value is not in the catalog"
	case "oneof":
		return "should have value in: " + fe.Param()
	case "lte", "max":
		return "should be less or equal than " + fe.Param()
	case "gte", "min":
		return "should be greater or equal than " + fe.Param()
	}
	return "incorrect value passed"
}
