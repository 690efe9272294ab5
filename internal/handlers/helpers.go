package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"brandnft/internal/address"
	apperrors "brandnft/internal/errors"
	"brandnft/internal/middleware"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// getCaller returns the ledger address of the authenticated user.
func getCaller(c *gin.Context) (string, error) {
	caller := c.GetString(middleware.ContextAddress)
	if caller == "" {
		return "", apperrors.ErrUnauthorized
	}
	return caller, nil
}

// parseAssetID parses the :id path parameter. Asset IDs start at 1.
func parseAssetID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid asset id")
	}
	return id, nil
}

// parseAddressParam validates an address path parameter and returns its
// checksummed form.
func parseAddressParam(c *gin.Context, param string) (string, error) {
	addr, err := address.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return addr, nil
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
