package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"careerpath/internal/diagnostics"
	"careerpath/internal/task"

	"github.com/gin-gonic/gin"
)

func statusFor(kind task.Kind) int {
	switch kind {
	case task.KindInputValidation:
		return http.StatusBadRequest
	case task.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case task.KindUpstreamError, task.KindInvalidJSON, task.KindSchemaMismatch:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func messageFor(e *task.Error) string {
	switch e.Kind {
	case task.KindInputValidation:
		return e.Diagnostic
	case task.KindUpstreamTimeout:
		return "Model did not respond in time"
	case task.KindUpstreamError:
		return "Model service is unavailable"
	case task.KindInvalidJSON:
		return "Model did not return valid JSON"
	case task.KindSchemaMismatch:
		return "Model response did not match the expected format"
	}
	return "Something went wrong"
}

func respondError(c *gin.Context, err error) {
	var taskErr *task.Error
	if !errors.As(err, &taskErr) {
		slog.Error("unexpected error", "error", err, "path", c.FullPath(), "request_id", requestID(c))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Something went wrong", Kind: "internal"})
		return
	}

	res := ErrorResponse{
		Error:  messageFor(taskErr),
		Kind:   string(taskErr.Kind),
		Raw:    taskErr.Raw,
		Fields: taskErr.Fields,
	}
	if taskErr.Kind != task.KindInputValidation {
		res.Diagnostic = taskErr.Diagnostic
	}
	c.JSON(statusFor(taskErr.Kind), res)
}

func requestID(c *gin.Context) string {
	return diagnostics.RequestIDFrom(c.Request.Context())
}

func respondInvalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Kind: string(task.KindInputValidation)})
}
