package application

import (
	"errors"
	"fmt"
	"lending/pkg/domain"
	"lending/pkg/serrors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint: gochecknoglobals

// submission groups the validated parts of an application so field errors
// carry the request's JSON names.
type submission struct {
	PersonalInfo domain.PersonalInfo `json:"personalInfo" validate:"required"`
	LoanDetails  domain.LoanDetails  `json:"loanDetails"  validate:"required"`
}

func init() { //nolint: gochecknoinits
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})
}

// Validate checks the applicant and loan fields.
func Validate(info domain.PersonalInfo, loan domain.LoanDetails) error {
	err := validate.Struct(submission{PersonalInfo: info, LoanDetails: loan})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("could not validate application: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}

	return serrors.Wrap(serrors.ErrValidation, err, "%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "submission.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "numeric":
		return field + " must be numeric"
	case "len":
		return fmt.Sprintf("%s must be %s characters long", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
