package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/models"
)

var validate = New()

// New returns validator that reports fields by json name and knows bookstore tags:
//   - role: one of admin, manager, staff
//   - book_status: one of in_stock, out_of_stock, discontinued
//
// Decimal fields are compared as numbers, so gt=0 works on prices
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(useJSONTagNames)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("book_status", validateBookStatus)
	return v
}

// Struct checks v against its validate tags.
// Returns *apperrors.ValidationError with a message per failed field
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	return &apperrors.ValidationError{Fields: Messages(errs)}
}

// Messages turn validator errors into user facing text keyed by field
func Messages(errs validator.ValidationErrors) map[string][]string {
	fields := make(map[string][]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = append(fields[fe.Field()], Message(fe))
	}
	return fields
}

func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least %s item(s) required", fe.Param())
		}
		return fmt.Sprintf("Value is too short (minimum %s)", fe.Param())
	case "max":
		return fmt.Sprintf("Value is too long (maximum %s)", fe.Param())
	case "gt":
		return fmt.Sprintf("Value must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Value must be at least %s", fe.Param())
	case "email":
		return "Enter a valid email address"
	case "eqfield":
		return fmt.Sprintf("Must match %s", fe.Param())
	case "role":
		return "Unknown role"
	case "book_status":
		return "Unknown book status"
	default:
		return "Invalid value"
	}
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateRole(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

func validateBookStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case models.BookStatusInStock, models.BookStatusOutOfStock, models.BookStatusDiscontinued:
		return true
	default:
		return false
	}
}

func decimalValue(field reflect.Value) any {
	d, ok := field.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}
