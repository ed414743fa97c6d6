package core

import (
	"context"
	"errors"
)

type requestIDKey struct{}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func GetRequestID(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", errors.New("context is nil")
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	if !ok || id == "" {
		return "", errors.New("request id not found in context")
	}
	return id, nil
}
