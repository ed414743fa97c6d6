package server

import (
	"encoding/json"
	"maps"
	"net/http"

	"github.com/dataworks/dataworks/engine/core"
	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/gin-gonic/gin"
)

const problemContentType = "application/problem+json"

// StatusForCode maps a failure code to its HTTP status.
func StatusForCode(code string) int {
	switch code {
	case task.CodeAccessDenied:
		return http.StatusForbidden
	case task.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case task.CodeExternalCallFailed:
		return http.StatusBadGateway
	case task.CodeUnknownTask:
		return http.StatusNotFound
	case task.CodeInvalidInput:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ProblemFromError converts a task failure into a problem document.
func ProblemFromError(err error) *core.Problem {
	code := task.ErrorCode(err)
	extras := map[string]any{}
	detail := err.Error()
	if coreErr, ok := core.AsError(err); ok {
		detail = coreErr.Message
		maps.Copy(extras, coreErr.Details)
	}
	extras["code"] = code
	return &core.Problem{
		Status: StatusForCode(code),
		Detail: detail,
		Extras: extras,
	}
}

// RespondProblem writes an RFC 7807 error response.
func RespondProblem(c *gin.Context, problem *core.Problem) {
	prepared := core.NormalizeProblem(problem)
	if prepared.Instance == "" {
		prepared.Instance = c.Request.URL.Path
	}
	body := core.BuildProblemBody(prepared)
	log := logger.FromContext(c.Request.Context())
	payload, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal problem", "error", err)
		c.Data(http.StatusInternalServerError, problemContentType, []byte(`{"status":500,"error":"Internal Server Error"}`))
		c.Abort()
		return
	}
	fields := []any{"status", prepared.Status, "detail", prepared.Detail, "path", c.Request.URL.Path}
	if code, ok := prepared.Extras["code"]; ok {
		fields = append(fields, "code", code)
	}
	if prepared.Status >= http.StatusInternalServerError {
		log.Error("Request failed", fields...)
	} else {
		log.Warn("Request failed", fields...)
	}
	c.Data(prepared.Status, problemContentType, payload)
	c.Abort()
}

func RespondProblemWithCode(c *gin.Context, status int, code, detail string) {
	RespondProblem(c, &core.Problem{
		Status: status,
		Detail: detail,
		Extras: map[string]any{"code": code},
	})
}
