package handler

import (
	"errors"
	"net/http"

	"github.com/Aditya06pandey1368/LMS-Project/internal/response"
	"github.com/Aditya06pandey1368/LMS-Project/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// classify maps a service error to its HTTP status and error code.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, response.ErrValidation
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrSessionNotActive):
		return http.StatusConflict, response.ErrSessionNotActive
	case errors.Is(err, service.ErrSessionExpired):
		return http.StatusGone, response.ErrSessionExpired
	case errors.Is(err, service.ErrStartInProgress):
		return http.StatusConflict, response.ErrStartInProgress
	case errors.Is(err, service.ErrGeneration):
		return http.StatusBadGateway, response.ErrGenerationFailed
	case errors.Is(err, service.ErrStorage):
		return http.StatusServiceUnavailable, response.ErrStorageUnavailable
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWithError writes the envelope for err. Validation errors keep the
// service's message so the client learns which field was wrong.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	status, code := classify(err)
	switch {
	case code == response.ErrValidation:
		response.FailWithMessage(c, status, code, err.Error())
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, status, code)
	default:
		response.Fail(c, status, code)
	}
}
