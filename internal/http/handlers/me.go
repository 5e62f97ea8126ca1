package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	httpx "github.com/greenmarket/sso/internal/http"
	httperrors "github.com/greenmarket/sso/internal/http/errors"
	"github.com/greenmarket/sso/internal/http/middlewares"
	"github.com/greenmarket/sso/internal/observability/logger"
	"github.com/greenmarket/sso/internal/sso"
)

// MeHandler serves the authenticated link-management endpoints.
type MeHandler struct {
	links *sso.LinkManager
}

// NewMeHandler creates the authenticated link-management handler.
func NewMeHandler(links *sso.LinkManager) *MeHandler {
	return &MeHandler{links: links}
}

// Register mounts the authenticated routes. The caller wraps the group with
// the session auth middleware.
func (h *MeHandler) Register(r chi.Router) {
	r.Post("/v1/users/me/social/{provider}", h.Link)
	r.Delete("/v1/users/me/social/{provider}", h.Unlink)
	r.Delete("/v1/users/me", h.Withdraw)
}

type linkRequest struct {
	Code string `json:"code"`
}

type linkResponse struct {
	Provider string `json:"provider"`
	Linked   bool   `json:"linked"`
}

// Link handles POST /v1/users/me/social/{provider}.
func (h *MeHandler) Link(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := middlewares.Session(ctx)
	providerName := strings.ToLower(chi.URLParam(r, "provider"))

	var req linkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Code == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("code is required"))
		return
	}

	if _, err := h.links.Link(ctx, session.UserID, providerName, req.Code); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, linkResponse{Provider: providerName, Linked: true})
}

// Unlink handles DELETE /v1/users/me/social/{provider}.
func (h *MeHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := middlewares.Session(ctx)
	providerName := strings.ToLower(chi.URLParam(r, "provider"))

	if err := h.links.Unlink(ctx, session.UserID, providerName); err != nil {
		httpx.RecordRevoke(providerName, "failed")
		writeDomainError(w, r, err)
		return
	}
	httpx.RecordRevoke(providerName, "ok")
	w.WriteHeader(http.StatusNoContent)
}

type withdrawResponse struct {
	Withdrawn bool `json:"withdrawn"`
	Accounts  int  `json:"accounts"`
	Revoked   int  `json:"revoked"`
	Failed    int  `json:"failed"`
}

// Withdraw handles DELETE /v1/users/me. The account is withdrawn even when
// some provider revokes fail; the response reports the split.
func (h *MeHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := middlewares.Session(ctx)
	log := logger.From(ctx).With(logger.Op("MeHandler.Withdraw"))

	result, err := h.links.Withdraw(ctx, session.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	for _, o := range result.Outcomes {
		if o.Err != nil {
			httpx.RecordRevoke(o.Account.Provider, "failed")
		} else {
			httpx.RecordRevoke(o.Account.Provider, "ok")
		}
	}

	log.Info("withdrawal done",
		logger.Count(len(result.Outcomes)),
		logger.String("failed", strconv.Itoa(result.Failed)),
	)
	writeJSON(w, http.StatusOK, withdrawResponse{
		Withdrawn: true,
		Accounts:  len(result.Outcomes),
		Revoked:   result.Revoked,
		Failed:    result.Failed,
	})
}
