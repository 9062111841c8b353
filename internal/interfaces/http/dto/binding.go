package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidations wires project-specific validation tags into
// gin's binding validator. Call once during server startup.
func RegisterCustomValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("discounttype", validateDiscountType)
}

// validateDiscountType accepts the two discount modes used on document lines
func validateDiscountType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "FIXED", "PERCENTAGE":
		return true
	}
	return false
}
