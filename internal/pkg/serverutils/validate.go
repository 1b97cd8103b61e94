package serverutils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation and returns a flat message so
// callers can bubble it straight to the error handler.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			first := errs[0]
			return fmt.Errorf("validation failed on field '%s' (rule: %s)", first.Field(), first.Tag())
		}
		return err
	}
	return nil
}
