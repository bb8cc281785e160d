package handler

import (
	"errors"
	"net/http"

	"ledgerdesk/internal/repository"
	"ledgerdesk/internal/service"
	"ledgerdesk/pkg/response"

	"github.com/gin-gonic/gin"
)

// EventPublisher pushes change notifications to connected clients
type EventPublisher interface {
	Publish(event string, data interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

// statusFor maps service error kinds to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrLineIndex):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateSKU), errors.Is(err, service.ErrSKUAlreadyBound):
		return http.StatusConflict
	case errors.Is(err, service.ErrQuantityExceedsStock), errors.Is(err, service.ErrInsufficientStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrGenerationExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respond writes data on success. A persistence failure still reports success
// because the change was applied, with the failure carried as a warning.
// It returns whether the operation took effect.
func respond(c *gin.Context, status int, data interface{}, err error) bool {
	switch {
	case err == nil:
		c.JSON(status, response.Success(status, data))
		return true
	case errors.Is(err, repository.ErrPersistence):
		c.JSON(status, response.SuccessWithWarning(status, data, err.Error()))
		return true
	default:
		code := statusFor(err)
		c.JSON(code, response.Error(code, err.Error()))
		return false
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
