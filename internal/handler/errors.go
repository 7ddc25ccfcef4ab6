package handler

import (
	"errors"
	"net/http"

	"rentalyard/internal/billing"
	"rentalyard/internal/calendar"
	"rentalyard/internal/lifecycle"
	"rentalyard/internal/model"
	"rentalyard/internal/service"
	"rentalyard/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEquipmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrTransitionNotAllowed),
		errors.Is(err, service.ErrDuplicateSerial),
		errors.Is(err, model.ErrInvariantViolated):
		return http.StatusConflict
	case errors.Is(err, calendar.ErrInvalidRange),
		errors.Is(err, calendar.ErrUnparseableDate),
		errors.Is(err, billing.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// abortWithError writes the mapped status. Server failures are logged and
// their message is not returned to the client.
func abortWithError(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, response.FromError(code, err))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
