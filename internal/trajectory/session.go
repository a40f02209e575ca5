package trajectory

import (
	"sync"
	"time"

	"github.com/refact-ai/agentcore/internal/model"
)

// RuntimeState is a session's tool-call-loop lifecycle state (spec §5).
type RuntimeState string

const (
	Idle    RuntimeState = "idle"
	Running RuntimeState = "running"
)

// Session is the in-memory owner of one chat's live messages and thread
// metadata (spec §4.2's Session type). The session exclusively owns
// Messages and Thread; the trajectory file on disk is shared with other
// processes/editors and reconciled through Flush and the watcher (C10).
type Session struct {
	mu sync.Mutex

	chatID                string
	thread                Trajectory
	messages              []model.Message
	state                 RuntimeState
	dirty                 bool
	version               uint64
	externalReloadPending bool
}

// NewSession constructs a fresh, empty session for chatID.
func NewSession(chatID string, now time.Time) *Session {
	return &Session{chatID: chatID, thread: NewTrajectory(chatID, now), state: Idle}
}

// LoadSession constructs a session from an existing trajectory, back-filling
// tool-call indices on its messages (spec §4.9's "if a trajectory file with
// that id exists, messages are loaded and tool-call indices back-filled").
func LoadSession(t Trajectory) *Session {
	msgs := t.ToModelMessages()
	for i := range msgs {
		model.BackfillToolCallIndices(msgs[i].ToolCalls)
	}
	return &Session{chatID: t.ID, thread: t, messages: msgs, state: Idle}
}

// ChatID returns the session's id.
func (s *Session) ChatID() string { return s.chatID }

// State returns the session's current runtime state.
func (s *Session) State() RuntimeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session's runtime state.
func (s *Session) SetState(state RuntimeState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Dirty reports whether persisted fields have changed since the last
// successful Flush.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ExternalReloadPending reports whether a watcher-observed external change
// is waiting to be applied once the session goes Idle and clean.
func (s *Session) ExternalReloadPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.externalReloadPending
}

// Messages returns a copy of the session's current message list.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetMessages replaces the session's message list and marks it dirty.
func (s *Session) SetMessages(msgs []model.Message) {
	s.mu.Lock()
	s.messages = msgs
	s.dirty = true
	s.version++
	s.mu.Unlock()
}

// Title returns the session's current trajectory title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thread.Title
}

// SetTitle updates the trajectory title and marks the session dirty.
func (s *Session) SetTitle(title string, generated bool) {
	s.mu.Lock()
	s.thread.Title = title
	s.thread.IsTitleGenerated = generated
	s.dirty = true
	s.version++
	s.mu.Unlock()
}

// IsTitleGenerated reports the trajectory's isTitleGenerated flag.
func (s *Session) IsTitleGenerated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.thread.IsTitleGenerated
}

// snapshot captures the fields Flush needs under the lock, plus the version
// to check against after the write.
type snapshot struct {
	version  uint64
	thread   Trajectory
	messages []model.Message
}

func (s *Session) snapshot(now time.Time) snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.thread
	t.UpdatedAt = now
	t.SetMessages(s.messages)
	return snapshot{version: s.version, thread: t, messages: s.messages}
}

// Flush implements spec §4.9's write flow: snapshot the session while
// holding its lock, write outside the lock, and clear dirty only if the
// session's version has not advanced since the snapshot was taken
// (concurrent mutation during the write keeps it dirty so a later Flush
// picks up the change).
func (s *Session) Flush(store *Store, broadcaster *Broadcaster, now time.Time) error {
	snap := s.snapshot(now)

	wasCreate := !store.Exists(snap.thread.ID)
	if err := store.Save(snap.thread); err != nil {
		return err
	}

	s.mu.Lock()
	if s.version == snap.version {
		s.dirty = false
	}
	title := s.thread.Title
	s.mu.Unlock()

	if broadcaster != nil {
		evType := EventUpdated
		if wasCreate {
			evType = EventCreated
		}
		broadcaster.Publish(Event{Type: evType, ID: snap.thread.ID, UpdatedAt: now, Title: title})
	}
	return nil
}

// MarkExternalReloadPending records that an external (watcher-observed)
// change is waiting; applied later via ApplyPendingReload.
func (s *Session) MarkExternalReloadPending() {
	s.mu.Lock()
	s.externalReloadPending = true
	s.mu.Unlock()
}

// ApplyReload replaces the session's in-memory state from t unconditionally.
// Callers must already have confirmed the session is Idle and not dirty
// (the watcher does this before calling, per spec §4.9).
func (s *Session) ApplyReload(t Trajectory) {
	msgs := t.ToModelMessages()
	for i := range msgs {
		model.BackfillToolCallIndices(msgs[i].ToolCalls)
	}
	s.mu.Lock()
	s.thread = t
	s.messages = msgs
	s.externalReloadPending = false
	s.mu.Unlock()
}

// ApplyPendingReload replaces the session's in-memory state from the given
// trajectory if a reload was pending and the session is currently Idle and
// clean, clearing the pending flag. It is a no-op otherwise (spec §4.9's "when
// later the session goes Idle and not dirty, apply the pending reload").
func (s *Session) ApplyPendingReload(t Trajectory) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.externalReloadPending || s.state != Idle || s.dirty {
		return false
	}
	msgs := t.ToModelMessages()
	for i := range msgs {
		model.BackfillToolCallIndices(msgs[i].ToolCalls)
	}
	s.thread = t
	s.messages = msgs
	s.externalReloadPending = false
	return true
}

// Clear empties the session's messages, used when an external delete is
// observed while the session is Idle and clean (spec's edge case E4).
func (s *Session) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.externalReloadPending = false
	s.mu.Unlock()
}
