package user

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/pkg/cerr"
	"github.com/twominute/twominute/pkg/clog"
)

const (
	minPasswordLength = 6
	minNameLength     = 2
)

type Server struct {
	repo       Repository
	issuer     *auth.Issuer
	bcryptCost int
	now        func() time.Time
}

func NewServer(repo Repository, issuer *auth.Issuer) *Server {
	return &Server{repo: repo, issuer: issuer, bcryptCost: bcrypt.DefaultCost, now: time.Now}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/register", s.Register)
	r.Post("/login", s.Login)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (req *registerRequest) validate() error {
	e := cerr.NewError(cerr.InvalidArgument, "invalid payload", nil)
	if _, err := mail.ParseAddress(req.Email); err != nil || strings.ContainsAny(req.Email, "<> ") {
		_ = e.AddDetailMessageWithCode("email must be a valid address", "email.format")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		_ = e.AddDetailMessageWithCode(fmt.Sprintf("password must be at least %d characters", minPasswordLength), "password.min_len")
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.Name)) < minNameLength {
		_ = e.AddDetailMessageWithCode(fmt.Sprintf("name must be at least %d characters", minNameLength), "name.min_len")
	}
	if len(e.Details) > 0 {
		return e
	}
	return nil
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid payload", err)
		return
	}
	req.Email = NormalizeEmail(req.Email)
	if err := req.validate(); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", fmt.Errorf("failed to hash password: %w", err))
		return
	}
	u := &User{
		ID:           ulid.Make().String(),
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddAttribute(ctx, "user_id", u.ID)
	cerr.SetJSONResponse(ctx, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid payload", err)
		return
	}

	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "invalid credentials", err)
			return
		}
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		cerr.SetNewJSONError(ctx, cerr.Unauthenticated, "invalid credentials", err)
		return
	}

	token, err := s.issuer.Issue(u.ID)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	clog.AddAttribute(ctx, "user_id", u.ID)
	cerr.SetJSONResponse(ctx, loginResponse{Token: token, User: u})
}
