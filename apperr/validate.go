package apperr

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = NewValidator()

// NewValidator returns a validator that reports json field names and
// compares decimal amounts numerically.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	Configure(v)
	return v
}

// Configure applies the json-name and decimal rules to an existing validator,
// such as the one behind gin's binding.
func Configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := d.Float64()
			return f
		case decimal.NullDecimal:
			if !d.Valid {
				return nil
			}
			f, _ := d.Decimal.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})
}

// Check validates s and converts failures into a VALIDATION_ERROR.
func Check(s any) error {
	if err := validate.Struct(s); err != nil {
		return FromValidator(err)
	}
	return nil
}
