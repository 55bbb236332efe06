package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
)

// Response is the envelope of every API reply.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

const (
	CodeBadRequest   = "BadRequest"
	CodeUnauthorized = "Unauthorized"
	CodeForbidden    = "Forbidden"
	CodeNotFound     = "NotFound"
	CodeConflict     = "Conflict"
	CodeInternal     = "InternalError"
)

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, code, message, field string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Message: message,
		Error:   &ErrorBody{Code: code, Field: field},
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, CodeBadRequest, message, "")
}

// writeError maps service and workflow errors to HTTP replies.
func writeError(c *gin.Context, err error) {
	var rej *workflow.Rejection
	switch {
	case errors.As(err, &rej):
		status := http.StatusConflict
		if rej.Kind == workflow.KindValidation {
			status = http.StatusUnprocessableEntity
		}
		fail(c, status, string(rej.Kind), rej.Reason, rej.Field)
	case errors.Is(err, errs.ErrInquiryNotFound),
		errors.Is(err, errs.ErrUserNotFound),
		errors.Is(err, errs.ErrFileNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, err.Error(), "")
	case errors.Is(err, errs.ErrInvalidCredentials), errors.Is(err, errs.ErrUserInactive):
		fail(c, http.StatusUnauthorized, CodeUnauthorized, err.Error(), "")
	case errors.Is(err, errs.ErrForbidden):
		fail(c, http.StatusForbidden, CodeForbidden, err.Error(), "")
	case errors.Is(err, errs.ErrUserExists):
		fail(c, http.StatusConflict, CodeConflict, err.Error(), "user_id")
	case errors.Is(err, errs.ErrInvalidFile):
		fail(c, http.StatusUnprocessableEntity, string(workflow.KindValidation), err.Error(), "files")
	default:
		slog.Error("handler: request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("err", err))
		fail(c, http.StatusInternalServerError, CodeInternal, "internal server error", "")
	}
}
