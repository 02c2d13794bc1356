package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var pairingCodeRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

func init() {
	validate.RegisterValidation("pairingcode", func(fl validator.FieldLevel) bool {
		return pairingCodeRegex.MatchString(fl.Field().String())
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}
