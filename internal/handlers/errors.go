package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/usamapuri/frontbench-api/internal/services"
)

// respondServiceError maps service sentinel errors to HTTP status codes.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrReasonRequired),
		errors.Is(err, services.ErrTransactionNumRequired),
		errors.Is(err, services.ErrUnknownAdjustmentType),
		errors.Is(err, services.ErrUnknownPaymentMethod),
		errors.Is(err, services.ErrNoActiveEnrollments):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAmountExceedsBalance),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
