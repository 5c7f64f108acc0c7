package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"room-service/services"
	"room-service/utils"
)

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var (
		vErr *services.ValidationError
		nErr *services.NotFoundError
		tErr *services.InvalidTransitionError
		pErr *services.PersistenceError
	)
	switch {
	case errors.As(err, &vErr):
		utils.JSONFieldError(c, http.StatusBadRequest, vErr.Field, vErr.Message)
	case errors.As(err, &nErr):
		utils.JSONError(c, http.StatusNotFound, nErr.Error())
	case errors.As(err, &tErr):
		utils.JSONError(c, http.StatusConflict, tErr.Error())
	case errors.As(err, &pErr):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("❌ storage error")
		utils.JSONError(c, http.StatusServiceUnavailable, "We couldn't save or load your data right now. Please try again.")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("❌ unexpected error")
		utils.JSONError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONFieldError(c, http.StatusBadRequest, name, "invalid id")
		return 0, false
	}
	return id, true
}
