package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"booklibrary/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var isbnCharset = regexp.MustCompile(`^[\d-]+$`)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	validate.RegisterValidation("isbn", validateISBN)
}

// ValidISBN reports whether s is made of digits and hyphens and carries exactly 10 or 13 digits.
func ValidISBN(s string) bool {
	if !isbnCharset.MatchString(s) {
		return false
	}
	digits := len(strings.ReplaceAll(s, "-", ""))
	return digits == 10 || digits == 13
}

func validateISBN(fl validator.FieldLevel) bool {
	return ValidISBN(fl.Field().String())
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateStruct returns one FieldError per failed rule, or nil.
func ValidateStruct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		field := fe.Field()
		param := fe.Param()

		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", field, param)
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", field, param)
		case "isbn":
			message = "Invalid ISBN format"
		case "gte":
			message = fmt.Sprintf("%s must be at least %s", field, param)
		case "lte":
			message = fmt.Sprintf("%s must be at most %s", field, param)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, param)
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		out = append(out, FieldError{Field: field, Message: message})
	}
	return out
}

// Validate runs ValidateStruct and folds the result into a VALIDATION_ERROR.
func Validate(s any) error {
	if fieldErrors := ValidateStruct(s); len(fieldErrors) > 0 {
		return apperr.Validation(fieldErrors[0].Message).WithDetails(fieldErrors)
	}
	return nil
}
