package validator

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	hhmmPattern  = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	phonePattern = regexp.MustCompile(`^[+]?[\d\s\-()]{6,15}$`)
)

func init() {
	validate = validator.New()

	// report json field names so handlers can return them as-is
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
}

var messages = map[string]string{
	"required": "is required",
	"min":      "is too short",
	"max":      "is too long",
	"gt":       "must be a positive number",
	"email":    "must be a valid email address",
	"hhmm":     "must be a time in HH:MM format",
	"phone":    "must be a valid phone number",
	"isodate":  "must be a date in YYYY-MM-DD format",
	"oneof":    "has an unsupported value",
}

// Validate struct fields. Returns nil when v is valid, otherwise a map of
// json field name to a human readable reason.
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	errors := make(map[string]string, len(verrs))
	for _, e := range verrs {
		msg, ok := messages[e.Tag()]
		if !ok {
			msg = "is invalid"
		}
		errors[e.Field()] = msg
	}
	return errors
}
