package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg against its struct tags (required fields, enum
// membership, numeric ranges, host:port syntax).
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			return fmt.Errorf("%d validation error(s): %w", len(verrs), verrs)
		}
		return err
	}
	return nil
}
