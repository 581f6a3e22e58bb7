package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"dealflow/internal/service"
	"dealflow/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError writes err as a standard error response. Unexpected errors are
// logged and hidden from the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		c.JSON(status, response.ErrorWithDetails(status, "Please fill in all required fields", ve.Fields))
		return
	}
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed",
				slog.String("method", c.Request.Method),
				slog.String("path", c.FullPath()),
				slog.String("error", err.Error()),
			)
		}
		c.JSON(status, response.Error(status, "internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
