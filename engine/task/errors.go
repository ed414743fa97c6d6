package task

import (
	"github.com/dataworks/dataworks/engine/core"
	"github.com/dataworks/dataworks/engine/sandbox"
)

// Canonical failure codes shared across task bodies.
const (
	CodeAccessDenied       = sandbox.CodeAccessDenied
	CodePreconditionFailed = "PreconditionFailed"
	CodeExternalCallFailed = "ExternalCallFailed"
	CodeResetFailed        = "ResetFailed"
	CodeUnknownTask        = "UnknownTask"
	CodeInvalidInput       = "InvalidInput"
	CodeInternal           = "Internal"
)

func newError(code string, err error, details map[string]any) *core.Error {
	return core.NewError(err, code, details)
}

// AccessDenied reports a path that escaped the data root.
func AccessDenied(err error, details map[string]any) *core.Error {
	return newError(CodeAccessDenied, err, details)
}

// PreconditionFailed reports a missing input artifact.
func PreconditionFailed(err error, details map[string]any) *core.Error {
	return newError(CodePreconditionFailed, err, details)
}

// ExternalCallFailed reports a non-success HTTP status or subprocess exit.
func ExternalCallFailed(err error, details map[string]any) *core.Error {
	return newError(CodeExternalCallFailed, err, details)
}

// ResetFailed reports a failure while clearing previous output.
func ResetFailed(err error, details map[string]any) *core.Error {
	return newError(CodeResetFailed, err, details)
}

func UnknownTask(err error, details map[string]any) *core.Error {
	return newError(CodeUnknownTask, err, details)
}

// InvalidInput reports an input artifact that exists but cannot be used.
func InvalidInput(err error, details map[string]any) *core.Error {
	return newError(CodeInvalidInput, err, details)
}

func Internal(err error, details map[string]any) *core.Error {
	return newError(CodeInternal, err, details)
}

// ErrorCode returns the code carried by err, or CodeInternal.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if coreErr, ok := core.AsError(err); ok && coreErr.Code != "" {
		return coreErr.Code
	}
	return CodeInternal
}
