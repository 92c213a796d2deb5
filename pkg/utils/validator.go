package utils

import (
	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// Custom validations
	v.RegisterValidation("premium_tier", validateTier)

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Struct(s interface{}) error {
	return v.validate.Struct(s)
}

func validateTier(fl validator.FieldLevel) bool {
	tier := fl.Field().String()
	supportedTiers := map[string]bool{
		"monthly":    true,
		"quarterly":  true,
		"semiannual": true,
		"annual":     true,
	}
	return supportedTiers[tier]
}
