package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/config"
	"github.com/twominute/twominute/internal/event"
	"github.com/twominute/twominute/internal/plan"
	"github.com/twominute/twominute/internal/progress"
	"github.com/twominute/twominute/internal/task"
	"github.com/twominute/twominute/internal/user"
	"github.com/twominute/twominute/pkg/cerr"
	"github.com/twominute/twominute/pkg/clog"
)

type Server struct {
	server         *http.Server
	env            *config.Env
	issuer         *auth.Issuer
	userServer     *user.Server
	planServer     *plan.Server
	taskServer     *task.Server
	progressServer *progress.Server
	eventServer    *event.Server
	probe          HealthProbe
}

func NewServer(
	env *config.Env,
	issuer *auth.Issuer,
	userServer *user.Server,
	planServer *plan.Server,
	taskServer *task.Server,
	progressServer *progress.Server,
	eventServer *event.Server,
	probe HealthProbe,
) *Server {
	return &Server{
		env:            env,
		issuer:         issuer,
		userServer:     userServer,
		planServer:     planServer,
		taskServer:     taskServer,
		progressServer: progressServer,
		eventServer:    eventServer,
		probe:          probe,
	}
}

// Handler builds the full handler chain. It is separate from ListenAndServe
// so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			middleware.RequestID,
			clog.SlogChiMiddleware(),
			cerr.NewConvertErrorChiMiddleware(),
			auth.Middleware(s.issuer),
		)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.Unimplemented, "method not allowed", nil)
		})

		s.userServer.Routes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			s.planServer.Routes(r)
			s.taskServer.Routes(r)
			s.progressServer.Routes(r)
			s.eventServer.Routes(r)
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(
		&storeChecker{probe: s.probe},
		connect.WithInterceptors(s.interceptors()...),
	))

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   s.env.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux), &http2.Server{})
}

// ListenAndServe starts the HTTP server. ctx becomes the base context of every
// request, so cancelling it also ends open event streams.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.QuietOnSuccess(clog.IsHealthCheck)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}
