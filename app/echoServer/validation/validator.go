package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()
	// "dateonly": an ISO calendar date without a time component, the wire
	// format for loan due dates.
	_ = v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.v.Struct(i)
}

// Validate exposes the underlying validator for controllers that hold one
// directly.
func (v *Validator) Underlying() *validator.Validate { return v.v }
