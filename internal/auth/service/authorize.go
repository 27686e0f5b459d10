package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"oidcp/internal/auth/models"
	"oidcp/internal/identity"
	dErrors "oidcp/pkg/domain-errors"
	"oidcp/pkg/platform/sentinel"
)

// Authorize runs the authorization flow for one request: decode the identity
// assertion, resolve the client, mint a single-use session, and emit the
// redirect descriptor carrying the authorization code.
func (s *Service) Authorize(ctx context.Context, query url.Values, cookie string) (*models.Response, error) {
	assertion, err := identity.Decode(cookie)
	if err != nil {
		return nil, err
	}

	redirectURI := query.Get("redirect_uri")
	if redirectURI == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "redirect_uri is required")
	}
	redirectTo, err := url.Parse(redirectURI)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "redirect_uri is not a valid URL")
	}
	if rt := query.Get("response_type"); rt != "code" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unsupported response_type")
	}

	// The nominal client_id must at least exist, but it does not decide the
	// client: the redirect URI is the authoritative key, matched against
	// every registered client's list with the first match winning. Preserved
	// for compatibility with existing deployments.
	if nominal := query.Get("client_id"); nominal != "" {
		if _, err := s.registry.Get(nominal); err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidClient, "unknown client_id")
		}
	}
	client, err := s.registry.FindByRedirectURI(redirectURI)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeClientNotFound, "no client registered for redirect_uri")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "client resolution failed")
	}

	if err := s.policy(assertion, client); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeForbidden, "authorization denied")
	}

	now := s.now()
	session := &models.Session{
		Code:        uuid.NewString(),
		ClientID:    client.ClientID,
		UID:         assertion.UID,
		RedirectURI: redirectURI,
		Scopes:      splitScopes(query.Get("scope")),
		State:       query.Get("state"),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.CodeTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store authorization session")
	}

	// Best-effort side effect; a user store failure must never fail the
	// authorization response.
	go s.upsertUser(assertion)

	s.metrics.AuthorizationsIssued.Inc()
	s.logger.InfoContext(ctx, "authorization code issued",
		"client_id", client.ClientID,
		"uid", assertion.UID,
	)

	q := redirectTo.Query()
	q.Set("code", session.Code)
	if session.State != "" {
		q.Set("state", session.State)
	}
	redirectTo.RawQuery = q.Encode()

	return &models.Response{
		Status:  http.StatusFound,
		Headers: map[string]string{"Location": redirectTo.String()},
	}, nil
}

func (s *Service) upsertUser(a identity.Assertion) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.users.Save(ctx, models.User{UID: a.UID, Admin: a.Admin}); err != nil {
		s.logger.Warn("user store upsert failed", "uid", a.UID, "error", err)
		return
	}
	s.metrics.UsersUpserted.Inc()
}

func splitScopes(scope string) []string {
	fields := strings.Fields(scope)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
