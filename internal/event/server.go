package event

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/eventbus"
	"github.com/twominute/twominute/pkg/cerr"
	"github.com/twominute/twominute/pkg/clog"
)

const (
	subscriberBuffer  = 64
	keepAliveInterval = 25 * time.Second
)

// Server streams the caller's events as Server-Sent Events.
type Server struct {
	eventBus  *eventbus.Bus
	keepAlive time.Duration
}

func NewServer(eventBus *eventbus.Bus) *Server {
	return &Server{eventBus: eventBus, keepAlive: keepAliveInterval}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/events", s.StreamEvents)
}

// StreamEvents writes every event owned by the caller until the client goes
// away. ?types=a,b restricts the stream to those event types.
func (s *Server) StreamEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.CurrentUserID(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "unauthorized", nil)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unimplemented, "streaming unsupported", nil)
		return
	}

	typeFilter := map[eventbus.EventType]struct{}{}
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				typeFilter[eventbus.EventType(t)] = struct{}{}
			}
		}
	}

	subID, ch := s.eventBus.Subscribe(subscriberBuffer)
	defer s.eventBus.Unsubscribe(subID)

	cerr.MarkHijacked(ctx)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.UserID != userID {
				continue
			}
			if len(typeFilter) > 0 {
				if _, match := typeFilter[ev.Type]; !match {
					continue
				}
			}
			data, err := json.Marshal(ev)
			if err != nil {
				clog.AddError(ctx, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
