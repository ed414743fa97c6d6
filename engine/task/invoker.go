package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dataworks/dataworks/engine/core"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dataworks/dataworks/engine/task"

// Locker serializes invocations across callers. Lock gives up when ctx ends.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}

type InvokerOption func(*Invoker)

// WithTracer replaces the globally registered tracer.
func WithTracer(t trace.Tracer) InvokerOption {
	return func(i *Invoker) {
		i.tracer = t
	}
}

// WithLocker holds l for the duration of every run.
func WithLocker(l Locker) InvokerOption {
	return func(i *Invoker) {
		i.locker = l
	}
}

// Invoker runs registered tasks and normalizes their outcome.
type Invoker struct {
	registry *Registry
	locker   Locker
	tracer   trace.Tracer
	now      func() time.Time
}

func NewInvoker(registry *Registry, opts ...InvokerOption) *Invoker {
	inv := &Invoker{registry: registry, tracer: otel.Tracer(tracerName), now: time.Now}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

func (i *Invoker) Registry() *Registry {
	return i.registry
}

// Run executes the task registered under id (or one of its aliases).
// The returned error, when non-nil, is always a *core.Error carrying task_id.
func (i *Invoker) Run(ctx context.Context, id string) (*Envelope, error) {
	def, ok := i.registry.Lookup(id)
	if !ok {
		return nil, UnknownTask(fmt.Errorf("no task registered for %q", id), map[string]any{"task_id": id})
	}
	if i.locker != nil {
		if err := i.locker.Lock(ctx); err != nil {
			return nil, Internal(fmt.Errorf("failed to acquire run lock: %w", err), map[string]any{"task_id": def.ID})
		}
		defer func() {
			if err := i.locker.Unlock(); err != nil {
				logger.FromContext(ctx).Warn("Failed to release run lock", "task_id", def.ID, "error", err)
			}
		}()
	}
	invocationID, err := core.GetRequestID(ctx)
	if err != nil {
		invocationID = uuid.NewString()
		ctx = core.WithRequestID(ctx, invocationID)
	}
	ctx, span := i.tracer.Start(ctx, "task.run", trace.WithAttributes(
		attribute.String("task.id", def.ID),
		attribute.String("task.requested_id", id),
		attribute.String("task.invocation_id", invocationID),
	))
	defer span.End()
	log := logger.FromContext(ctx).With("task_id", def.ID, "invocation_id", invocationID)
	ctx = logger.ContextWithLogger(ctx, log)
	start := i.now()
	log.Info("Task started", "requested_id", id)
	envelope, runErr := runDefinition(ctx, def)
	duration := i.now().Sub(start)
	if runErr != nil {
		failure := normalizeError(def.ID, runErr)
		RecordInvocation(ctx, def.ID, StatusFailure, duration, failure.Code)
		span.SetAttributes(attribute.String("task.error_code", failure.Code))
		span.SetStatus(codes.Error, failure.Message)
		log.Error("Task failed", "code", failure.Code, "error", failure.Message, "duration_ms", duration.Milliseconds())
		return nil, failure
	}
	RecordInvocation(ctx, def.ID, StatusSuccess, duration, "")
	log.Info("Task completed", "message", envelope.Message, "duration_ms", duration.Milliseconds())
	return envelope, nil
}

func runDefinition(ctx context.Context, def Definition) (*Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, Internal(err, nil)
	}
	if def.Precondition != nil {
		if err := def.Precondition(ctx); err != nil {
			return nil, err
		}
	}
	envelope, err := def.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if envelope == nil {
		return nil, Internal(errors.New("task returned no result"), nil)
	}
	return envelope, nil
}

func normalizeError(taskID string, err error) *core.Error {
	if coreErr, ok := core.AsError(err); ok {
		return coreErr.WithDetail("task_id", taskID)
	}
	return Internal(err, map[string]any{"task_id": taskID})
}
