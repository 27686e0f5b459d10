// Package service implements the OIDC provider engine: the authorization
// flow, the token exchange, and the userinfo/discovery/jwks queries. The
// engine owns the client registry, key material, and session store; the
// transport layer only translates its response descriptors.
package service

import (
	"context"
	"log/slog"
	"time"

	"oidcp/internal/auth/emailpattern"
	"oidcp/internal/auth/store"
	"oidcp/internal/identity"
	"oidcp/internal/keys"
	"oidcp/internal/platform/metrics"
	"oidcp/internal/registry"
)

// Policy decides whether a subject may obtain a grant for a client. The
// default allows everything; deployments replace it without protocol changes.
type Policy func(a identity.Assertion, client *registry.Client) error

// AllowAll is the default authorization policy.
func AllowAll(identity.Assertion, *registry.Client) error { return nil }

// Config carries the engine's static settings.
type Config struct {
	Issuer          string
	BaseURL         string
	InternalBaseURL string
	CodeTTL         time.Duration
	TokenTTL        time.Duration
}

// Service is the provider engine. Construct once at startup; safe for
// concurrent use by many request-handling goroutines.
type Service struct {
	cfg      Config
	registry *registry.Registry
	keys     *keys.Manager
	sessions store.SessionStore
	users    store.UserStore
	email    *emailpattern.Pattern
	policy   Policy
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithPolicy replaces the default allow-all authorization policy.
func WithPolicy(policy Policy) Option {
	return func(s *Service) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithClock injects the time source. Tests pin it; production uses time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs the provider engine.
func New(
	cfg Config,
	reg *registry.Registry,
	km *keys.Manager,
	sessions store.SessionStore,
	users store.UserStore,
	email *emailpattern.Pattern,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		cfg:      cfg,
		registry: reg,
		keys:     km,
		sessions: sessions,
		users:    users,
		email:    email,
		policy:   AllowAll,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// emailFor derives the email claim for uid, or "" when no pattern is
// configured. The admin flag comes from the user store; unseen subjects get
// the non-admin pattern.
func (s *Service) emailFor(ctx context.Context, uid string) string {
	if s.email == nil {
		return ""
	}
	admin := false
	if user, err := s.users.FindByUID(ctx, uid); err == nil {
		admin = user.Admin
	}
	return s.email.Email(uid, admin)
}
