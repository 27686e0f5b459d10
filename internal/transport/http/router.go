package httptransport

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the OIDC endpoints under the JupyterHub service prefix,
// plus the operational endpoints at the root.
func NewRouter(h *Handler, servicePrefix string, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	prefix := strings.TrimSuffix(servicePrefix, "/")
	if prefix == "" {
		prefix = "/"
	}

	r.Route(prefix, func(r chi.Router) {
		r.Get("/.well-known/openid-configuration", h.handleDiscovery(false))
		r.Get("/.well-known/openid-configuration-internal", h.handleDiscovery(true))
		r.Get("/authorization", h.handleAuthorization)
		r.Post("/token", h.handleToken)
		r.Get("/userinfo", h.handleUserinfo)
		r.Get("/jwks.json", h.handleJWKS)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
