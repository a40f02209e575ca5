package trajectory

import (
	"testing"
	"time"

	"github.com/refact-ai/agentcore/internal/model"
)

func TestFlushClearsDirtyWhenVersionUnchanged(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	b := NewBroadcaster()
	sess := NewSession("abc", time.Now())
	sess.SetMessages([]model.Message{model.NewSimpleText(model.RoleUser, "hi")})
	if !sess.Dirty() {
		t.Fatal("expected session to be dirty after SetMessages")
	}
	if err := sess.Flush(store, b, time.Now()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sess.Dirty() {
		t.Fatal("expected session to be clean after Flush")
	}
}

func TestFlushEmitsCreatedThenUpdated(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	b := NewBroadcaster()
	ch, unsub := b.Subscribe()
	defer unsub()

	sess := NewSession("abc", time.Now())
	sess.SetMessages([]model.Message{model.NewSimpleText(model.RoleUser, "hi")})
	if err := sess.Flush(store, b, time.Now()); err != nil {
		t.Fatalf("first Flush: %v", err)
	}
	ev := <-ch
	if ev.Type != EventCreated {
		t.Fatalf("expected first flush to emit created, got %v", ev.Type)
	}

	sess.SetMessages([]model.Message{model.NewSimpleText(model.RoleUser, "hi again")})
	if err := sess.Flush(store, b, time.Now()); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	ev2 := <-ch
	if ev2.Type != EventUpdated {
		t.Fatalf("expected second flush to emit updated, got %v", ev2.Type)
	}
}

func TestApplyPendingReloadOnlyWhenIdleAndClean(t *testing.T) {
	sess := NewSession("abc", time.Now())
	sess.MarkExternalReloadPending()

	sess.SetState(Running)
	if sess.ApplyPendingReload(NewTrajectory("abc", time.Now())) {
		t.Fatal("expected no reload while Running")
	}

	sess.SetState(Idle)
	sess.SetMessages([]model.Message{model.NewSimpleText(model.RoleUser, "local edit")})
	if sess.ApplyPendingReload(NewTrajectory("abc", time.Now())) {
		t.Fatal("expected no reload while dirty")
	}

	// Flush to clear dirty, then the pending reload should apply.
	store, _ := NewStore(t.TempDir())
	_ = sess.Flush(store, nil, time.Now())
	incoming := NewTrajectory("abc", time.Now())
	incoming.SetMessages([]model.Message{model.NewSimpleText(model.RoleUser, "external edit")})
	if !sess.ApplyPendingReload(incoming) {
		t.Fatal("expected reload to apply once Idle and clean")
	}
	if got := sess.Messages(); len(got) != 1 || got[0].Text != "external edit" {
		t.Fatalf("unexpected messages after reload: %+v", got)
	}
}
