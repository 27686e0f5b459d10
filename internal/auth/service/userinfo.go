package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"oidcp/internal/auth/models"
	dErrors "oidcp/pkg/domain-errors"
)

type userinfoResponse struct {
	Sub               string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email,omitempty"`
}

// Userinfo resolves a presented access token to claims about its subject.
// Tokens are self-describing: the subject comes from the signature-verified
// payload, never from server-side session state.
func (s *Service) Userinfo(ctx context.Context, authHeader string) (*models.Response, error) {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "bearer token required")
	}

	var claims models.Claims
	if err := s.keys.Verify(token, &claims); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "token has no subject")
	}

	uid := claims.Subject
	body, err := json.Marshal(userinfoResponse{
		Sub:               uid,
		Name:              uid,
		PreferredUsername: uid,
		Email:             s.emailFor(ctx, uid),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode userinfo")
	}

	s.metrics.UserinfoRequests.Inc()
	return jsonResponse(http.StatusOK, body), nil
}
