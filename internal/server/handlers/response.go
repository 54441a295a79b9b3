package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salonpos/internal/apperror"
	"github.com/mamadbah2/salonpos/pkg/clients/backend"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// renderError writes err as JSON. Errors that are not AppErrors are hidden behind
// an internal error.
func renderError(c *gin.Context, logger *zap.Logger, err error) {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		appErr = apperror.NewInternal(err)
	}

	fields := []zap.Field{
		zap.String("code", appErr.Code),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Warn("request rejected", fields...)
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	})
}

// backendError maps a failed gateway call made directly by a handler.
func backendError(operation, entity string, id any, err error) error {
	switch backend.StatusOf(err) {
	case http.StatusNotFound:
		return apperror.NewNotFound(entity, id).WithCause(err)
	case http.StatusUnauthorized:
		return apperror.NewUnauthorized("session rejected by backend").WithCause(err)
	default:
		return apperror.NewGateway(operation, err)
	}
}

func bindError(err error) error {
	return apperror.NewValidation("invalid request body").WithCause(err)
}

func int64Param(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation(name+" must be a positive integer").WithDetail(name, c.Param(name))
	}
	return id, nil
}
