package models

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so errors match the payload keys
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals reach the rules below as their exact string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// bounds follow the decimal(10,2) price column
	mustRegister(v, "dec_gte", func(d, param decimal.Decimal) bool { return d.GreaterThanOrEqual(param) })
	mustRegister(v, "dec_lt", func(d, param decimal.Decimal) bool { return d.LessThan(param) })
	mustRegister(v, "dec_places", func(d, param decimal.Decimal) bool {
		return d.Equal(d.Truncate(int32(param.IntPart())))
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, check func(d, param decimal.Decimal) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return check(d, decimal.RequireFromString(fl.Param()))
	})
	if err != nil {
		panic(err)
	}
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte", "dec_gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "dec_lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "dec_places":
		return fmt.Sprintf("must have at most %s decimal places", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
