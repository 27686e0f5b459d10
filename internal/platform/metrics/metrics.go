package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the provider.
type Metrics struct {
	AuthorizationsIssued prometheus.Counter
	TokensIssued         prometheus.Counter
	UserinfoRequests     prometheus.Counter
	UsersUpserted        prometheus.Counter
}

// New creates and registers the provider metrics on reg. Tests pass a fresh
// registry so parallel constructions never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuthorizationsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "oidcp_authorizations_issued_total",
			Help: "Total number of authorization codes issued",
		}),
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "oidcp_tokens_issued_total",
			Help: "Total number of token exchanges completed",
		}),
		UserinfoRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "oidcp_userinfo_requests_total",
			Help: "Total number of successful userinfo resolutions",
		}),
		UsersUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "oidcp_users_upserted_total",
			Help: "Total number of user records upserted at authorization time",
		}),
	}
}
