// Package httpapi implements the subset of the HTTP surface spec §6 names as
// relevant to the core: trajectory CRUD plus an SSE subscribe endpoint. The
// teacher itself speaks Goa-generated transports and exposes no raw HTTP
// router; this package is grounded on the pack's other router-bearing repo,
// digitallysavvy-go-ai (examples/chi-server/main.go), for chi wiring
// conventions (middleware stack, route registration), generalized from that
// example's single-handler server to the five trajectory endpoints spec.md
// names.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/refact-ai/agentcore/internal/telemetry"
	"github.com/refact-ai/agentcore/internal/toolerrors"
	"github.com/refact-ai/agentcore/internal/trajectory"
)

// Server wires the trajectory store and broadcaster into an http.Handler.
type Server struct {
	Store       *trajectory.Store
	Broadcaster *trajectory.Broadcaster
	Logger      telemetry.Logger
}

// Router builds the chi router for this server's endpoints.
func (s *Server) Router() http.Handler {
	if s.Logger == nil {
		s.Logger = telemetry.NewNoopLogger()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/v1/trajectories", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/subscribe", s.handleSubscribe)
		r.Get("/{id}", s.handleGet)
		r.Post("/{id}", s.handleSave)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

// handleList implements "GET /v1/trajectories — list metadata, sorted by
// updated_at desc" (spec §6).
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.Store.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGet implements "GET /v1/trajectories/{id} — raw JSON body".
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.Store.Load(id)
	if err != nil {
		writeError(w, toolerrors.NewWithCause(toolerrors.KindNotFound, fmt.Sprintf("trajectory %q not found", id), err))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleSave implements "POST /v1/trajectories/{id} — write; body must
// satisfy body.id == {id}; 400 on mismatch; 400 on id containing /\..\0".
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := trajectory.ValidateID(id); err != nil {
		writeError(w, toolerrors.NewWithCause(toolerrors.KindValidation, "invalid trajectory id", err))
		return
	}

	var t trajectory.Trajectory
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, toolerrors.NewWithCause(toolerrors.KindValidation, "malformed trajectory body", err))
		return
	}
	if t.ID != id {
		writeError(w, toolerrors.New(toolerrors.KindValidation, fmt.Sprintf("body.id %q does not match path id %q", t.ID, id)))
		return
	}

	existed := s.Store.Exists(id)
	if err := s.Store.Save(t); err != nil {
		writeError(w, err)
		return
	}

	evType := trajectory.EventUpdated
	if !existed {
		evType = trajectory.EventCreated
	}
	if s.Broadcaster != nil {
		s.Broadcaster.Publish(trajectory.Event{Type: evType, ID: t.ID, UpdatedAt: t.UpdatedAt, Title: t.Title})
	}
	writeJSON(w, http.StatusOK, t)
}

// handleDelete implements "DELETE /v1/trajectories/{id} — 404 if missing".
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Store.Exists(id) {
		writeError(w, toolerrors.New(toolerrors.KindNotFound, fmt.Sprintf("trajectory %q not found", id)))
		return
	}
	if err := s.Store.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	if s.Broadcaster != nil {
		s.Broadcaster.Publish(trajectory.Event{Type: trajectory.EventDeleted, ID: id, UpdatedAt: time.Now()})
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSubscribe implements "GET /v1/trajectories/subscribe — Server-Sent-
// Events of TrajectoryEvent" (spec §6). Connections are dropped cleanly when
// the client disconnects (request context cancellation).
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, toolerrors.New(toolerrors.KindExecution, "streaming unsupported"))
		return
	}
	if s.Broadcaster == nil {
		writeError(w, toolerrors.New(toolerrors.KindExecution, "no broadcaster configured"))
		return
	}

	events, unsubscribe := s.Broadcaster.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.Logger.Warn(ctx, "httpapi: marshaling trajectory event", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a ToolError's Kind to an HTTP status per spec §7's
// propagation policy ("HTTP handlers surface the above kinds with matching
// status codes"); any other error is treated as an unclassified 500.
func writeError(w http.ResponseWriter, err error) {
	var te *toolerrors.ToolError
	status := http.StatusInternalServerError
	if errors.As(err, &te) {
		switch te.Kind {
		case toolerrors.KindValidation:
			status = http.StatusBadRequest
		case toolerrors.KindNotFound:
			status = http.StatusNotFound
		case toolerrors.KindPermission:
			status = http.StatusForbidden
		case toolerrors.KindBudget:
			status = http.StatusUnprocessableEntity
		}
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
