// internal/utils/validator.go
package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("entity_type", validateEntityType)
	validate.RegisterValidation("verification_status", validateVerificationStatus)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateEntityType(fl validator.FieldLevel) bool {
	return models.EntityType(fl.Field().String()).Valid()
}

func validateVerificationStatus(fl validator.FieldLevel) bool {
	return models.VerificationStatus(fl.Field().String()).Valid()
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "entity_type":
		return "Entity type must be one of track, copyright, transfer, license"
	case "verification_status":
		return "Verification status must be one of pending, verified, rejected"
	default:
		return e.Field() + " is invalid"
	}
}
