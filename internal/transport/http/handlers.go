// Package httptransport is the thin HTTP layer. Handlers delegate to the
// provider engine and translate its response descriptors; no business logic
// lives here.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"oidcp/internal/auth/models"
	dErrors "oidcp/pkg/domain-errors"
)

// AssertionCookieName is the cookie the external identity source sets with
// the encoded assertion about the current Hub user.
const AssertionCookieName = "jupyterhub-oidcp-user"

// ProviderService is the engine surface the transport needs.
type ProviderService interface {
	Authorize(ctx context.Context, query url.Values, cookie string) (*models.Response, error)
	Token(ctx context.Context, form url.Values, authHeader string) (*models.Response, error)
	Userinfo(ctx context.Context, authHeader string) (*models.Response, error)
	Discovery(internal bool) (*models.Response, error)
	JWKS() (*models.Response, error)
}

// Handler serves the OIDC endpoints.
type Handler struct {
	provider ProviderService
	logger   *slog.Logger
}

func NewHandler(provider ProviderService, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, logger: logger}
}

func (h *Handler) handleAuthorization(w http.ResponseWriter, r *http.Request) {
	var cookie string
	if c, err := r.Cookie(AssertionCookieName); err == nil {
		value, err := url.QueryUnescape(c.Value)
		if err != nil {
			h.writeError(w, r, dErrors.New(dErrors.CodeInvalidAssertion, "assertion cookie is malformed"))
			return
		}
		cookie = value
	}

	resp, err := h.provider.Authorize(r.Context(), r.URL.Query(), cookie)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResponse(w, r, resp)
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	resp, err := h.provider.Token(r.Context(), r.PostForm, r.Header.Get("Authorization"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResponse(w, r, resp)
}

func (h *Handler) handleUserinfo(w http.ResponseWriter, r *http.Request) {
	resp, err := h.provider.Userinfo(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResponse(w, r, resp)
}

func (h *Handler) handleDiscovery(internal bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.provider.Discovery(internal)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeResponse(w, r, resp)
	}
}

func (h *Handler) handleJWKS(w http.ResponseWriter, r *http.Request) {
	resp, err := h.provider.JWKS()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeResponse(w, r, resp)
}

// writeResponse translates an engine response descriptor. Redirect statuses
// use the Location header; everything else passes through verbatim.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, resp *models.Response) {
	if resp.Redirect() {
		http.Redirect(w, r, resp.Headers["Location"], resp.Status)
		return
	}
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

// writeError centralizes domain error translation into OAuth-style JSON
// error envelopes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		h.logger.WarnContext(r.Context(), "request rejected", "error", err)
	}

	body := map[string]string{"error": dErrors.OAuthError(code)}
	if e, ok := err.(*dErrors.Error); ok && status < http.StatusInternalServerError {
		body["error_description"] = e.Message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
