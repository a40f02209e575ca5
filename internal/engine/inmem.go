package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/refact-ai/agentcore/internal/telemetry"
)

type inmemEngine struct {
	mu    sync.RWMutex
	tasks map[string]TaskFunc

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
}

// NewInMem returns an Engine that runs every started task on its own
// goroutine, with no persistence or replay guarantees. This is the only
// Engine implementation this module ships; a Temporal-backed Engine would
// satisfy the same interface but is out of scope here (see DESIGN.md).
func NewInMem(logger telemetry.Logger, metrics telemetry.Metrics, tracer telemetry.Tracer) Engine {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	if tracer == nil {
		tracer = telemetry.NoopTracer{}
	}
	return &inmemEngine{tasks: make(map[string]TaskFunc), logger: logger, metrics: metrics, tracer: tracer}
}

func (e *inmemEngine) Register(name string, fn TaskFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("engine: invalid task registration for %q", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks[name] = fn
	return nil
}

func (e *inmemEngine) Start(ctx context.Context, id, name string, input any) (Handle, error) {
	e.mu.RLock()
	fn, ok := e.tasks[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	h := &inmemHandle{done: make(chan struct{}), cancel: cancel}
	tc := &inmemContext{ctx: taskCtx, id: id, logger: e.logger, metrics: e.metrics, tracer: e.tracer}

	go func() {
		defer close(h.done)
		result, err := fn(tc, input)
		h.mu.Lock()
		h.result, h.err = result, err
		h.mu.Unlock()
	}()
	return h, nil
}

type inmemContext struct {
	ctx     context.Context
	id      string
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
}

func (c *inmemContext) Context() context.Context   { return c.ctx }
func (c *inmemContext) ID() string                 { return c.id }
func (c *inmemContext) Logger() telemetry.Logger   { return c.logger }
func (c *inmemContext) Metrics() telemetry.Metrics { return c.metrics }
func (c *inmemContext) Tracer() telemetry.Tracer   { return c.tracer }

type inmemHandle struct {
	mu     sync.Mutex
	done   chan struct{}
	cancel context.CancelFunc
	result any
	err    error
}

func (h *inmemHandle) Wait(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.result, h.err
	}
}

func (h *inmemHandle) Cancel() { h.cancel() }
