package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"hospitality-backoffice/services"
	"hospitality-backoffice/utils"
)

// ActorHeader carries the id of the back-office user performing the action.
const ActorHeader = "X-Actor-ID"

// respondError maps service errors to HTTP statuses and error codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.JSONError(c, http.StatusUnprocessableEntity, "error.validation", err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.not_found", err.Error())
	case errors.Is(err, services.ErrAvailabilityConflict):
		utils.JSONError(c, http.StatusConflict, "error.availability_conflict", err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		utils.JSONError(c, http.StatusConflict, "error.invalid_transition", err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.JSONError(c, http.StatusConflict, "error.conflict", err.Error())
	case errors.Is(err, services.ErrImmutableRate):
		utils.JSONError(c, http.StatusForbidden, "error.immutable_rate", err.Error())
	default:
		_ = c.Error(err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "internal server error")
	}
}

func badRequest(c *gin.Context, message string) {
	utils.JSONError(c, http.StatusBadRequest, "error.bad_request", message)
}

func parseID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func actorID(c *gin.Context) *uint {
	raw := strings.TrimSpace(c.GetHeader(ActorHeader))
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}
