package core

import (
	"errors"
	"maps"
)

// Error is the structured failure returned across package boundaries.
type Error struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// NewError wraps err with a machine-readable code and optional details.
func NewError(err error, code string, details map[string]any) *Error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &Error{
		Message: message,
		Code:    code,
		Details: details,
		cause:   err,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// WithDetail returns a copy of e with key set in its details.
func (e *Error) WithDetail(key string, value any) *Error {
	if e == nil {
		return nil
	}
	details := make(map[string]any, len(e.Details)+1)
	maps.Copy(details, e.Details)
	details[key] = value
	return &Error{Message: e.Message, Code: e.Code, Details: details, cause: e.cause}
}

// AsMap renders the error for JSON payloads.
func (e *Error) AsMap() map[string]any {
	if e == nil {
		return nil
	}
	out := map[string]any{
		"message": e.Message,
		"code":    e.Code,
	}
	if len(e.Details) > 0 {
		out["details"] = e.Details
	}
	return out
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var coreErr *Error
	if errors.As(err, &coreErr) && coreErr != nil {
		return coreErr, true
	}
	return nil, false
}
