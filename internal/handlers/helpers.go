// Package handlers implements the HTTP surface of the zakah calculator.
package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/middleware"
)

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Code    string `json:"code" example:"INVALID_INPUT"`
	Message string `json:"message" example:"Invalid input"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// respondWithError writes err in the ErrorResponse shape and stops the chain.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// invalidInput converts a binding failure into an INVALID_INPUT error.
func invalidInput(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid input: "+err.Error())
}
