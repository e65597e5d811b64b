// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("zakah_currency", validateCurrency)
		_ = v.RegisterValidation("karat", validateKarat)
		_ = v.RegisterValidation("asset_type", validateAssetType)
	}
}

// validateCurrency accepts codes in the supported set, case-insensitively.
func validateCurrency(fl validator.FieldLevel) bool {
	_, ok := models.ParseCurrency(fl.Field().String())
	return ok
}

func validateKarat(fl validator.FieldLevel) bool {
	return models.Karat(fl.Field().Int()).Valid()
}

func validateAssetType(fl validator.FieldLevel) bool {
	switch models.AssetKind(fl.Field().String()) {
	case models.AssetKindGold, models.AssetKindCurrency:
		return true
	}
	return false
}
