// Package engine abstracts workflow-style scheduling for sub-chats (C7): a
// pluggable interface so the in-memory implementation used in this module can
// later be swapped for a durable backend (e.g. Temporal) without touching
// callers. Adapted from the teacher's runtime/agent/engine abstraction,
// narrowed to the single-shot "run and wait for a result" shape a sub-chat
// needs instead of the teacher's full workflow/activity/signal surface.
package engine

import (
	"context"
	"errors"

	"github.com/refact-ai/agentcore/internal/telemetry"
)

// ErrNotRegistered is returned by Start when the named task has no handler.
var ErrNotRegistered = errors.New("engine: task not registered")

// TaskFunc is a unit of schedulable work. It receives a Context bound to one
// execution and arbitrary input, returning a result or error.
type TaskFunc func(ctx Context, input any) (any, error)

// Context exposes engine operations to a running task.
type Context interface {
	// Context returns the underlying Go context for cancellation/deadlines.
	Context() context.Context
	// ID is the unique identifier of this execution.
	ID() string
	Logger() telemetry.Logger
	Metrics() telemetry.Metrics
	Tracer() telemetry.Tracer
}

// Handle represents a running or completed task execution.
type Handle interface {
	// Wait blocks until the task completes and returns its result.
	Wait(ctx context.Context) (any, error)
	// Cancel requests cancellation of the task's Context.
	Cancel()
}

// Engine schedules and runs TaskFuncs. The in-memory implementation in this
// package runs every task on its own goroutine; a durable backend would
// instead enqueue the task for a worker pool and persist its progress.
type Engine interface {
	// Register binds a TaskFunc to a logical name.
	Register(name string, fn TaskFunc) error
	// Start schedules a registered task and returns immediately with a
	// Handle the caller can Wait on.
	Start(ctx context.Context, id, name string, input any) (Handle, error)
}
