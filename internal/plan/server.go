package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/eventbus"
	"github.com/twominute/twominute/pkg/cerr"
)

type Server struct {
	service  *Service
	eventBus *eventbus.Bus
}

func NewServer(service *Service, eventBus *eventbus.Bus) *Server {
	return &Server{service: service, eventBus: eventBus}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/starter", s.CreateStarter)
}

const minTaskLength = 4

// starterRequest is the wire form of Request. The short field names are
// accepted as aliases for older clients.
type starterRequest struct {
	Task                *string `json:"task"`
	BadDay              bool    `json:"badDay"`
	SprintLengthMinutes *int    `json:"sprintLengthMinutes"`
	SprintLength        *int    `json:"sprintLength"`
	UseRemoteModel      *bool   `json:"useRemoteModel"`
	LLM                 *bool   `json:"llm"`
}

func (w starterRequest) toRequest() (Request, error) {
	if w.Task == nil {
		e := cerr.NewError(cerr.InvalidArgument, "invalid payload", nil)
		return Request{}, e.AddDetailMessageWithCode("task is required", "task.required")
	}
	// Blank text is left to the guardrail; short non-blank text is malformed.
	if trimmed := strings.TrimSpace(*w.Task); trimmed != "" && utf8.RuneCountInString(trimmed) < minTaskLength {
		e := cerr.NewError(cerr.InvalidArgument, "invalid payload", nil)
		return Request{}, e.AddDetailMessageWithCode(fmt.Sprintf("task must be at least %d characters", minTaskLength), "task.min_len")
	}
	req := Request{Task: *w.Task, BadDay: w.BadDay, UseRemoteModel: true}
	sprint := w.SprintLengthMinutes
	if sprint == nil {
		sprint = w.SprintLength
	}
	if sprint != nil {
		// An explicit 0 is out of range rather than "unset".
		if *sprint == 0 {
			return Request{}, sprintLengthError()
		}
		req.SprintLengthMinutes = *sprint
	}
	switch {
	case w.UseRemoteModel != nil:
		req.UseRemoteModel = *w.UseRemoteModel
	case w.LLM != nil:
		req.UseRemoteModel = *w.LLM
	}
	return req, nil
}

type blockedResponse struct {
	Blocked bool   `json:"blocked"`
	Error   string `json:"error"`
}

func (s *Server) CreateStarter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.CurrentUserID(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "unauthorized", nil)
		return
	}

	var body starterRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid payload", err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	p, err := s.service.Generate(ctx, req)
	if errors.Is(err, ErrBlocked) {
		cerr.SetJSONResponseWithStatus(ctx, http.StatusUnprocessableEntity, blockedResponse{
			Blocked: true,
			Error:   "Blocked by guardrails",
		})
		return
	}
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.EventTypePlanGenerated, "", userID, map[string]string{"source": p.Source})
	cerr.SetJSONResponse(ctx, p)
}
