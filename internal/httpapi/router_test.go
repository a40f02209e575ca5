package httpapi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/refact-ai/agentcore/internal/trajectory"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := trajectory.NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return &Server{Store: store, Broadcaster: trajectory.NewBroadcaster()}, dir
}

func TestHandleSaveRejectsBodyIDMismatch(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	body, _ := json.Marshal(map[string]any{"id": "other-id"})
	resp, err := http.Post(srv.URL+"/v1/trajectories/chat-1", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSaveRejectsInvalidID(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/trajectories/..%2Fetc", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSaveThenGetRoundTrips(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	traj := trajectory.NewTrajectory("chat-1", time.Now())
	body, _ := json.Marshal(traj)
	resp, err := http.Post(srv.URL+"/v1/trajectories/chat-1", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want 200", resp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/v1/trajectories/chat-1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", getResp.StatusCode)
	}
	var got trajectory.Trajectory
	if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "chat-1" {
		t.Fatalf("got.ID = %q", got.ID)
	}
}

func TestHandleGetMissingReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/trajectories/does-not-exist")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleDeleteMissingReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/trajectories/nope", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleListSortsByUpdatedAtDesc(t *testing.T) {
	s, _ := newTestServer(t)
	older := trajectory.NewTrajectory("old", time.Now().Add(-time.Hour))
	newer := trajectory.NewTrajectory("new", time.Now())
	if err := s.Store.Save(older); err != nil {
		t.Fatalf("Save(older): %v", err)
	}
	if err := s.Store.Save(newer); err != nil {
		t.Fatalf("Save(newer): %v", err)
	}

	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/trajectories/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var list []trajectory.Trajectory
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Fatalf("list = %+v, want [new, old]", list)
	}
}

func TestHandleSubscribeStreamsPublishedEvent(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/trajectories/subscribe", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET subscribe: %v", err)
	}
	defer resp.Body.Close()

	done := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if len(line) > 6 && line[:6] == "data: " {
				done <- line[6:]
				return
			}
		}
	}()

	time.Sleep(50 * time.Millisecond)
	s.Broadcaster.Publish(trajectory.Event{Type: trajectory.EventCreated, ID: "chat-2", UpdatedAt: time.Now(), Title: "New Chat"})

	select {
	case data := <-done:
		var ev trajectory.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.ID != "chat-2" {
			t.Fatalf("ev.ID = %q", ev.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SSE event")
	}
}
