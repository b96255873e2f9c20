package middleware

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var dateYMD = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// SetupValidator configures the binding validator: JSON tag names in error
// messages and the dateymd tag for the YYYY-MM-DD date strings the store
// documents use.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	return v.RegisterValidation("dateymd", func(fl validator.FieldLevel) bool {
		return dateYMD.MatchString(fl.Field().String())
	})
}
