package task

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/eventbus"
	"github.com/twominute/twominute/pkg/cerr"
)

const (
	minTextLength   = 3
	maxSteps        = 3
	minSprintLength = 5
	maxSprintLength = 30
)

type Server struct {
	repo     Repository
	eventBus *eventbus.Bus
	now      func() time.Time
}

func NewServer(repo Repository, eventBus *eventbus.Bus) *Server {
	return &Server{repo: repo, eventBus: eventBus, now: time.Now}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/tasks", s.ListTasks)
	r.Post("/tasks", s.CreateTask)
	r.Delete("/tasks/{id}", s.DeleteTask)
}

type listTasksResponse struct {
	Tasks []*Task `json:"tasks"`
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.CurrentUserID(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "unauthorized", nil)
		return
	}
	tasks, err := s.repo.ListRecent(ctx, userID, RecentLimit)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	cerr.SetJSONResponse(ctx, listTasksResponse{Tasks: tasks})
}

type createTaskRequest struct {
	Text         string   `json:"text"`
	Starter      string   `json:"starter"`
	Steps        []string `json:"steps"`
	SprintLength int      `json:"sprintLength"`
	Mode         string   `json:"mode"`
}

func (req *createTaskRequest) validate() error {
	e := cerr.NewError(cerr.InvalidArgument, "invalid payload", nil)
	if utf8.RuneCountInString(strings.TrimSpace(req.Text)) < minTextLength {
		_ = e.AddDetailMessageWithCode(fmt.Sprintf("text must be at least %d characters", minTextLength), "text.min_len")
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Starter)) < minTextLength {
		_ = e.AddDetailMessageWithCode(fmt.Sprintf("starter must be at least %d characters", minTextLength), "starter.min_len")
	}
	if len(req.Steps) > maxSteps {
		_ = e.AddDetailMessageWithCode(fmt.Sprintf("steps must have at most %d items", maxSteps), "steps.max_items")
	}
	if req.SprintLength < minSprintLength || req.SprintLength > maxSprintLength {
		_ = e.AddDetailMessageWithCode(
			fmt.Sprintf("sprintLength must be between %d and %d", minSprintLength, maxSprintLength),
			"sprint_length.range",
		)
	}
	switch req.Mode {
	case "":
		req.Mode = ModeNormal
	case ModeNormal, ModeBadDay:
	default:
		_ = e.AddDetailMessageWithCode(fmt.Sprintf("mode must be %q or %q", ModeNormal, ModeBadDay), "mode.in")
	}
	if len(e.Details) > 0 {
		return e
	}
	return nil
}

type taskResponse struct {
	Task *Task `json:"task"`
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.CurrentUserID(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "unauthorized", nil)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid payload", err)
		return
	}
	if err := req.validate(); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	now := s.now().UTC()
	steps := req.Steps
	if steps == nil {
		steps = []string{}
	}
	t := &Task{
		ID:           ulid.Make().String(),
		UserID:       userID,
		Text:         strings.TrimSpace(req.Text),
		Starter:      strings.TrimSpace(req.Starter),
		Steps:        steps,
		SprintLength: req.SprintLength,
		Mode:         req.Mode,
		Status:       StatusDone,
		CreatedAt:    now,
		CompletedAt:  &now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.eventBus.PublishNew(eventbus.EventTypeTaskLogged, t.ID, userID, map[string]string{"mode": t.Mode})
	cerr.SetJSONResponse(ctx, taskResponse{Task: t})
}

type deleteTaskResponse struct {
	OK bool `json:"ok"`
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.CurrentUserID(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "unauthorized", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := ulid.ParseStrict(id); err != nil {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", err)
		return
	}
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.eventBus.PublishNew(eventbus.EventTypeTaskDeleted, id, userID, nil)
	cerr.SetJSONResponse(ctx, deleteTaskResponse{OK: true})
}
