package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/domain"
)

// WriteProblem renders a simplified RFC 7807 problem document.
func WriteProblem(c *gin.Context, code int, typ, detail string) {
	c.AbortWithStatusJSON(code, gin.H{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

// WriteError maps the domain error taxonomy onto HTTP statuses.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		WriteProblem(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
	case errors.Is(err, broker.ErrNotConnected):
		WriteProblem(c, http.StatusServiceUnavailable, "not_connected", err.Error())
	case errors.Is(err, domain.ErrUnknownOrder):
		WriteProblem(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInProgress):
		WriteProblem(c, http.StatusConflict, "in_progress", err.Error())
	case errors.Is(err, domain.ErrPublishFailed):
		WriteProblem(c, http.StatusBadGateway, "publish_failed", err.Error())
	default:
		WriteProblem(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// IntParam reads a positive integer route parameter.
func IntParam(c *gin.Context, key string) (int, bool) {
	n, err := strconv.Atoi(c.Param(key))
	if err != nil || n <= 0 {
		WriteProblem(c, http.StatusBadRequest, "bad_request", key+" must be a positive integer")
		return 0, false
	}
	return n, true
}
