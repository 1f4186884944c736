package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"cpap-admin-server/internal/payment"
	"cpap-admin-server/internal/severity"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with the domain tags registered:
// "iah" for apnea-hypopnea indexes and "paymethod" for payment method codes.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("iah", func(fl validator.FieldLevel) bool {
			return severity.Validate(fl.Field().Float()) == nil
		})
		_ = validate.RegisterValidation("paymethod", func(fl validator.FieldLevel) bool {
			m := payment.Method(fl.Field().String())
			for _, known := range payment.Methods {
				if m == known {
					return true
				}
			}
			return false
		})
	})
	return validate
}

// Validate performs validation on a struct.
func Validate(s interface{}) error {
	return Validator().Struct(s)
}

// FormatValidationError formats validation errors into a readable string.
func FormatValidationError(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Param() != "" {
			messages = append(messages, e.Field()+" failed "+e.Tag()+"="+e.Param())
		} else {
			messages = append(messages, e.Field()+" failed "+e.Tag())
		}
	}
	return strings.Join(messages, ", ")
}

// FieldErrors maps each rejected field to a readable reason, or returns nil when err
// does not come from the validator.
func FieldErrors(err error) map[string]string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}
	fields := make(map[string]string, len(errs))
	for _, e := range errs {
		fields[e.Field()] = fieldReason(e)
	}
	return fields
}

func fieldReason(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "iah":
		return fmt.Sprintf("must be an apnea-hypopnea index between 0 and %d", severity.MaxIAH)
	case "paymethod":
		names := make([]string, len(payment.Methods))
		for i, m := range payment.Methods {
			names[i] = string(m)
		}
		return "must be one of " + strings.Join(names, ", ")
	case "oneof":
		return "must be one of " + e.Param()
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	}
	if e.Param() != "" {
		return "failed " + e.Tag() + "=" + e.Param()
	}
	return "failed " + e.Tag()
}

// BindAndValidate binds the request body to a struct and validates it.
// If validation fails, it sends a BadRequest response and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		BadRequest(c, "Invalid request payload: "+err.Error())
		return false
	}
	if err := Validate(obj); err != nil {
		ValidationFailed(c, err)
		return false
	}
	return true
}
