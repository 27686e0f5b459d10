package service

import (
	"encoding/json"
	"net/http"
	"net/url"

	"oidcp/internal/auth/models"
	"oidcp/internal/keys"
	dErrors "oidcp/pkg/domain-errors"
)

type providerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
}

// Discovery emits the provider's well-known metadata. The internal variant
// rewrites the scheme and host of every endpoint URL to the internally
// reachable base URL; it reports not-found when no internal base URL is
// configured rather than falling back silently.
func (s *Service) Discovery(internal bool) (*models.Response, error) {
	doc := providerMetadata{
		Issuer:                            s.cfg.Issuer,
		AuthorizationEndpoint:             s.cfg.BaseURL + "/authorization",
		TokenEndpoint:                     s.cfg.BaseURL + "/token",
		UserinfoEndpoint:                  s.cfg.BaseURL + "/userinfo",
		JWKSURI:                           s.cfg.BaseURL + "/jwks.json",
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code"},
		SubjectTypesSupported:             []string{"public"},
		IDTokenSigningAlgValuesSupported:  []string{keys.Algorithm},
		ScopesSupported:                   []string{"openid", "profile", "email"},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_basic", "client_secret_post"},
		ClaimsSupported:                   []string{"sub", "name", "preferred_username", "email"},
	}

	if internal {
		if s.cfg.InternalBaseURL == "" {
			return nil, dErrors.New(dErrors.CodeNotFound, "internal discovery is not configured")
		}
		base, err := url.Parse(s.cfg.InternalBaseURL)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "internal base URL is invalid")
		}
		for _, endpoint := range []*string{
			&doc.AuthorizationEndpoint,
			&doc.TokenEndpoint,
			&doc.UserinfoEndpoint,
			&doc.JWKSURI,
		} {
			rewritten, err := rewriteHost(*endpoint, base)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rewrite endpoint URL")
			}
			*endpoint = rewritten
		}
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode provider metadata")
	}
	return jsonResponse(http.StatusOK, body), nil
}

// rewriteHost swaps the scheme and host of rawURL for base's, leaving path
// and query untouched.
func rewriteHost(rawURL string, base *url.URL) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Scheme = base.Scheme
	u.Host = base.Host
	return u.String(), nil
}

// JWKS returns the public signing keys. Private key material never reaches
// this layer; the key manager only hands out public components.
func (s *Service) JWKS() (*models.Response, error) {
	body, err := json.Marshal(s.keys.PublicJWKS())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode JWKS")
	}
	return jsonResponse(http.StatusOK, body), nil
}
