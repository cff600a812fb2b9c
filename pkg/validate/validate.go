// Package validate wraps go-playground/validator with conform string
// normalisation and maps validation failures onto the sentinel errors of
// package types.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"

	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

var (
	valid *Validator
	once  sync.Once
)

// Validator checks struct tags. Obtain the shared instance with Get.
type Validator struct {
	validate *validator.Validate
}

// New builds a Validator with the custom "mounting" tag registered.
func New() *Validator {
	v := &Validator{validate: validator.New()}
	if err := v.validate.RegisterValidation("mounting", validMounting); err != nil {
		panic(err)
	}
	return v
}

// Get returns the process-wide Validator, building it on first use.
func Get() *Validator {
	once.Do(func() {
		valid = New()
	})
	return valid
}

// Measurement validates field readings. Any failure wraps
// types.ErrMeasurementOutOfRange.
func (m *Validator) Measurement(i interface{}) error {
	return m.check(i, types.ErrMeasurementOutOfRange)
}

// Specification trims string fields with conform and validates nameplate or
// design data. Any failure wraps types.ErrInvalidSpecification.
func (m *Validator) Specification(i interface{}) error {
	if err := conform.Strings(i); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidSpecification, err)
	}
	return m.check(i, types.ErrInvalidSpecification)
}

func (m *Validator) check(i interface{}, sentinel error) error {
	err := m.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", sentinel, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", sentinel, strings.Join(msgs, "; "))
}

// describe renders one field error as "Namespace must be >= 0, got -1".
func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", field, fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s, got %v", field, fe.Param(), fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "mounting":
		return fmt.Sprintf("%s must be Rigid or Flexible, got %v", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", field, fe.Tag())
	}
}

// validMounting accepts the two ISO 10816-3 support classes, case-insensitive.
func validMounting(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "rigid", "flexible":
		return true
	}
	return false
}
