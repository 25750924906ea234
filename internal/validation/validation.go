package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Lelo88/inventory-pricing-api/internal/catalog"
)

// Precio con hasta dos decimales, sin signo ni separador de miles.
var priceFormat = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

var validate = newValidator()

// Errors mapea campo (nombre json) → mensaje.
type Errors struct {
	Fields map[string]string
}

func (errs *Errors) Error() string {
	keys := make([]string, 0, len(errs.Fields))
	for key := range errs.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+" "+errs.Fields[key])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		tag := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return field.Name
		}
		return tag
	})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return ValidPrice(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := catalog.ParseCategory(fl.Field().String())
		return ok
	})
	return v
}

// ValidPrice acepta "10", "10.5" o "10.50" y exige > 0.
func ValidPrice(value string) bool {
	value = strings.TrimSpace(value)
	if !priceFormat.MatchString(value) {
		return false
	}
	price, err := decimal.NewFromString(value)
	return err == nil && price.IsPositive()
}

// Struct valida tags `validate` y devuelve *Errors si algo falla.
func Struct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	out := &Errors{Fields: map[string]string{}}
	for _, fieldErr := range fieldErrors {
		out.Fields[fieldErr.Field()] = message(fieldErr)
	}
	return out
}

func message(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fieldErr.Param())
		}
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
		}
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
	case "price":
		return "must be a positive number with up to 2 decimals"
	case "category":
		return "must be one of the known categories"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	}
	return "is invalid"
}
