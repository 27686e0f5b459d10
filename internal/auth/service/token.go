package service

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"oidcp/internal/auth/models"
	"oidcp/internal/registry"
	dErrors "oidcp/pkg/domain-errors"
	"oidcp/pkg/platform/sentinel"
)

// Token exchanges an authorization code for signed ID and access tokens. The
// form is the parsed OAuth token-request body; authHeader is the raw
// Authorization header, used for HTTP Basic client authentication.
func (s *Service) Token(ctx context.Context, form url.Values, authHeader string) (*models.Response, error) {
	client, err := s.authenticateClient(form, authHeader)
	if err != nil {
		return nil, err
	}

	if gt := form.Get("grant_type"); gt != "authorization_code" {
		return nil, dErrors.New(dErrors.CodeUnsupportedGrant, "unsupported grant_type")
	}
	code := form.Get("code")
	if code == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "code is required")
	}

	now := s.now()
	session, err := s.sessions.Consume(ctx, code, now)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound),
			errors.Is(err, sentinel.ErrExpired),
			errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeInvalidGrant, "invalid or expired authorization code")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume authorization code")
		}
	}

	if session.ClientID != client.ClientID {
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "code was issued to another client")
	}
	if ru := form.Get("redirect_uri"); ru != "" && ru != session.RedirectURI {
		return nil, dErrors.New(dErrors.CodeInvalidGrant, "redirect_uri does not match the authorization request")
	}

	expiresAt := now.Add(s.cfg.TokenTTL)
	base := models.Claims{
		Name:              session.UID,
		PreferredUsername: session.UID,
		Email:             s.emailFor(ctx, session.UID),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   session.UID,
			Audience:  jwt.ClaimStrings{client.ClientID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	accessClaims := base
	accessClaims.ID = uuid.NewString()
	accessToken, err := s.keys.Sign(accessClaims)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}

	idClaims := base
	idClaims.ID = uuid.NewString()
	idToken, err := s.keys.Sign(idClaims)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign id token")
	}

	s.metrics.TokensIssued.Inc()
	s.logger.InfoContext(ctx, "tokens issued",
		"client_id", client.ClientID,
		"uid", session.UID,
	)

	body, err := json.Marshal(models.TokenResult{
		AccessToken: accessToken,
		IDToken:     idToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.cfg.TokenTTL.Seconds()),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode token response")
	}
	return jsonResponse(http.StatusOK, body), nil
}

// authenticateClient resolves the caller's credentials, preferring HTTP Basic
// over body parameters, and checks the secret in constant time.
func (s *Service) authenticateClient(form url.Values, authHeader string) (*registry.Client, error) {
	clientID, secret, ok := basicCredentials(authHeader)
	if !ok {
		clientID, secret = form.Get("client_id"), form.Get("client_secret")
	}
	if clientID == "" || secret == "" {
		return nil, dErrors.New(dErrors.CodeInvalidClient, "client authentication required")
	}

	client, err := s.registry.Get(clientID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidClient, "unknown client")
	}
	if subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(secret)) != 1 {
		return nil, dErrors.New(dErrors.CodeInvalidClient, "invalid client credentials")
	}
	return client, nil
}

func basicCredentials(authHeader string) (clientID, secret string, ok bool) {
	encoded, found := strings.CutPrefix(authHeader, "Basic ")
	if !found {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", false
	}
	clientID, secret, found = strings.Cut(string(decoded), ":")
	return clientID, secret, found
}

func jsonResponse(status int, body []byte) *models.Response {
	return &models.Response{
		Status:  status,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
}
