// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"brandnft/internal/address"
	"brandnft/internal/money"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("eth_address", validateAddress)
		_ = v.RegisterValidation("amount", validateAmount)
		_ = v.RegisterValidation("positive_amount", validatePositiveAmount)
	}
}

// validateAddress accepts 0x-prefixed 40 hex digit addresses in any case.
func validateAddress(fl validator.FieldLevel) bool {
	return address.IsValid(fl.Field().String())
}

// validateAmount accepts non-negative decimal strings with at most
// money.Decimals fractional digits.
func validateAmount(fl validator.FieldLevel) bool {
	_, err := money.Parse(fl.Field().String())
	return err == nil
}

func validatePositiveAmount(fl validator.FieldLevel) bool {
	_, err := money.ParsePositive(fl.Field().String())
	return err == nil
}
