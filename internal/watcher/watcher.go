// Package watcher implements the trajectory filesystem watcher and reload
// coordinator (C10): a debounced fsnotify watch over the trajectory
// directory that reconciles external edits with live sessions per spec
// §4.9. Grounded on the fsnotify usage patterns in the retrieval pack
// (haasonsaas-nexus and vanducng-goclaw both watch directories with
// fsnotify.Watcher for config/file reload; this package follows the same
// event-loop-plus-debounce-timer shape).
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/refact-ai/agentcore/internal/telemetry"
	"github.com/refact-ai/agentcore/internal/trajectory"
)

// debounceWindow is the minimum quiet period per chat id before a
// filesystem event is acted on (spec §4.9: "debounced (>=200ms) per
// chat-id").
const debounceWindow = 200 * time.Millisecond

// Registry looks up live sessions by chat id. SessionForID's zero value
// (nil, false) means "no live session": the watcher then ignores creates and
// modifications for that id, and for a removal only publishes the deleted
// event.
type Registry interface {
	SessionForID(id string) (*trajectory.Session, bool)
}

// Watcher watches a trajectory store's directory and reconciles external
// Create/Write/Remove events with live sessions.
type Watcher struct {
	dir         string
	store       *trajectory.Store
	broadcaster *trajectory.Broadcaster
	registry    Registry
	logger      telemetry.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]fsnotify.Op
}

// New constructs a Watcher over store's directory.
func New(dir string, store *trajectory.Store, broadcaster *trajectory.Broadcaster, registry Registry, logger telemetry.Logger) *Watcher {
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	return &Watcher{
		dir: dir, store: store, broadcaster: broadcaster, registry: registry, logger: logger,
		timers: map[string]*time.Timer{}, pending: map[string]fsnotify.Op{},
	}
}

// Run watches until ctx is canceled. Background failures are logged and the
// watcher continues (spec §4.12's error-handling policy for background
// tasks).
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(ctx, "trajectory watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if strings.HasSuffix(name, ".tmp") || !strings.HasSuffix(name, ".json") {
		return
	}
	id := strings.TrimSuffix(name, ".json")

	w.mu.Lock()
	w.pending[id] = ev.Op
	if t, ok := w.timers[id]; ok {
		t.Stop()
	}
	w.timers[id] = time.AfterFunc(debounceWindow, func() { w.fire(ctx, id) })
	w.mu.Unlock()
}

func (w *Watcher) fire(ctx context.Context, id string) {
	w.mu.Lock()
	op, ok := w.pending[id]
	delete(w.pending, id)
	delete(w.timers, id)
	w.mu.Unlock()
	if !ok {
		return
	}

	if op&fsnotify.Remove != 0 {
		w.reconcileRemove(ctx, id)
		return
	}
	if op&(fsnotify.Create|fsnotify.Write) != 0 {
		w.reconcileCreateOrModify(ctx, id)
	}
}

func (w *Watcher) reconcileRemove(ctx context.Context, id string) {
	now := time.Now()
	if w.broadcaster != nil {
		w.broadcaster.Publish(trajectory.Event{Type: trajectory.EventDeleted, ID: id, UpdatedAt: now})
	}
	sess, ok := w.registry.SessionForID(id)
	if !ok {
		return
	}
	if sess.State() == trajectory.Idle && !sess.Dirty() {
		sess.Clear()
		return
	}
	sess.MarkExternalReloadPending()
}

func (w *Watcher) reconcileCreateOrModify(ctx context.Context, id string) {
	t, err := w.store.Load(id)
	if err != nil {
		w.logger.Error(ctx, "trajectory watcher: reloading changed file", "id", id, "error", err)
		return
	}
	sess, ok := w.registry.SessionForID(id)
	if !ok {
		return
	}
	if sess.State() == trajectory.Idle && !sess.Dirty() {
		sess.ApplyReload(t)
		return
	}
	sess.MarkExternalReloadPending()
}

// DrainPending applies any pending external reload for sess if it has since
// become Idle and clean, loading the current on-disk trajectory. Call this
// whenever a session transitions to Idle (spec §4.9: "When later the
// session goes Idle and not dirty, apply the pending reload").
func (w *Watcher) DrainPending(sess *trajectory.Session) error {
	if !sess.ExternalReloadPending() {
		return nil
	}
	t, err := w.store.Load(sess.ChatID())
	if err != nil {
		return err
	}
	sess.ApplyPendingReload(t)
	return nil
}
