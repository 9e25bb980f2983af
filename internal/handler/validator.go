package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the shared validator. Field names in errors follow
// the json tags of the request structs.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// FieldError is a single failed constraint.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		switch {
		case f.Tag == "required":
			parts = append(parts, f.Field+" is required")
		case f.Param != "":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", f.Field, f.Tag, f.Param))
		default:
			parts = append(parts, fmt.Sprintf("%s must be a valid %s", f.Field, f.Tag))
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StructValidator adapts go-playground/validator to fiber.Config.StructValidator.
type StructValidator struct{}

// Validate runs the struct tags of out.
func (StructValidator) Validate(out any) error {
	err := getValidator().Struct(out)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{
			Field: fe.Field(),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return ve
}
