package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/greenmarket/sso/internal/domain/repository"
	httpx "github.com/greenmarket/sso/internal/http"
	httperrors "github.com/greenmarket/sso/internal/http/errors"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/provider"
	"github.com/greenmarket/sso/internal/sso"
)

// SocialHandler serves the public social auth endpoints: login (code
// exchange), signup completion, and the provider list.
type SocialHandler struct {
	login    *sso.LoginService
	signup   *sso.SignupService
	registry *provider.Registry
}

// NewSocialHandler creates the public social auth handler.
func NewSocialHandler(login *sso.LoginService, signup *sso.SignupService, registry *provider.Registry) *SocialHandler {
	return &SocialHandler{login: login, signup: signup, registry: registry}
}

// Register mounts the public routes.
func (h *SocialHandler) Register(r chi.Router) {
	r.Post("/v1/auth/social/login", h.Login)
	r.Post("/v1/auth/social/signup", h.Signup)
	r.Get("/v1/auth/social/providers", h.Providers)
}

type loginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	Store    string `json:"store,omitempty"`
}

type profileView struct {
	Provider  string `json:"provider"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	BirthYear string `json:"birthYear,omitempty"`
	Birthday  string `json:"birthday,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

type userView struct {
	ID       int64  `json:"id"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Nickname string `json:"nickname"`
	Status   string `json:"status"`
}

func viewUser(u *repository.User) userView {
	return userView{
		ID:       u.ID,
		Email:    u.Email,
		Phone:    u.Phone,
		Nickname: u.Nickname,
		Status:   string(u.Status),
	}
}

type loginResponse struct {
	IsNewUser bool `json:"isNewUser"`

	SignupToken string       `json:"signupToken,omitempty"`
	Profile     *profileView `json:"profile,omitempty"`

	SessionToken string    `json:"sessionToken,omitempty"`
	User         *userView `json:"user,omitempty"`
}

// Login handles POST /v1/auth/social/login.
func (h *SocialHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("SocialHandler.Login"))

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Provider = strings.ToLower(strings.TrimSpace(req.Provider))
	if req.Provider == "" || req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("provider and code are required"))
		return
	}

	result, err := h.login.Login(ctx, req.Provider, req.Code, req.Store)
	if err != nil {
		httpx.RecordLogin(req.Provider, loginResultLabel(err))
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	if result.IsNewUser {
		httpx.RecordLogin(req.Provider, "pending_signup")
		writeJSON(w, http.StatusOK, loginResponse{
			IsNewUser:   true,
			SignupToken: result.SignupToken,
			Profile: &profileView{
				Provider:  result.Profile.Provider,
				Name:      result.Profile.Name,
				Email:     result.Profile.Email,
				Phone:     result.Profile.Phone,
				BirthYear: result.Profile.BirthYear,
				Birthday:  result.Profile.Birthday,
				Gender:    result.Profile.Gender,
			},
		})
		return
	}

	httpx.RecordLogin(req.Provider, "ok")
	user := viewUser(result.User)
	writeJSON(w, http.StatusOK, loginResponse{
		IsNewUser:    false,
		SessionToken: result.SessionToken,
		User:         &user,
	})
	log.Debug("social login ok", logger.Provider(req.Provider))
}

func loginResultLabel(err error) string {
	var suspended *sso.SuspendedError
	switch {
	case errors.Is(err, sso.ErrRequiresLink):
		return "requires_link"
	case errors.As(err, &suspended):
		return "suspended"
	default:
		return "error"
	}
}

type signupRequest struct {
	SignupToken string `json:"signupToken"`
	Nickname    string `json:"nickname,omitempty"`
}

type signupResponse struct {
	SessionToken string   `json:"sessionToken"`
	User         userView `json:"user"`
}

// Signup handles POST /v1/auth/social/signup.
func (h *SocialHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SignupToken == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("signupToken is required"))
		return
	}

	result, err := h.signup.Complete(ctx, sso.SignupInput{
		SignupToken: req.SignupToken,
		Nickname:    strings.TrimSpace(req.Nickname),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, signupResponse{
		SessionToken: result.SessionToken,
		User:         viewUser(result.User),
	})
}

type providersResponse struct {
	Providers []string `json:"providers"`
}

// Providers handles GET /v1/auth/social/providers.
func (h *SocialHandler) Providers(w http.ResponseWriter, _ *http.Request) {
	names := h.registry.Names()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, providersResponse{Providers: names})
}
