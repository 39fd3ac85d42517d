package progress

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/task"
	"github.com/twominute/twominute/pkg/cerr"
)

type Server struct {
	tasks task.Repository
}

func NewServer(tasks task.Repository) *Server {
	return &Server{tasks: tasks}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/progress", s.GetProgress)
}

func (s *Server) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := auth.CurrentUserID(ctx)
	if !ok {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "unauthorized", nil)
		return
	}
	tasks, err := s.tasks.ListRecent(ctx, userID, 0)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, Summarize(tasks))
}
