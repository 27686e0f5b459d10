package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oidcp/internal/auth/models"
	"oidcp/internal/auth/service"
	sessionstore "oidcp/internal/auth/store/session"
	userstore "oidcp/internal/auth/store/user"
	"oidcp/internal/identity"
	"oidcp/internal/keys"
	"oidcp/internal/platform/metrics"
	"oidcp/internal/registry"
)

const testServices = `[
	{"oauth_client_id": "C1", "api_token": "S1", "redirect_uris": ["https://app/cb"]}
]`

func newTestRouter(t *testing.T, internalBaseURL string) http.Handler {
	t.Helper()

	reg, err := registry.Parse(testServices)
	require.NoError(t, err)
	km, err := keys.Init("")
	require.NoError(t, err)

	promRegistry := prometheus.NewRegistry()
	logger := slog.New(slog.DiscardHandler)
	svc := service.New(
		service.Config{
			Issuer:          "https://hub.example.com/services/oidcp",
			BaseURL:         "https://hub.example.com/services/oidcp",
			InternalBaseURL: internalBaseURL,
			CodeTTL:         5 * time.Minute,
			TokenTTL:        time.Hour,
		},
		reg,
		km,
		sessionstore.NewInMemoryStore(),
		userstore.NewInMemoryStore(),
		nil,
		metrics.New(promRegistry),
		logger,
	)
	return NewRouter(NewHandler(svc, logger), "/services/oidcp/", promRegistry)
}

func assertionCookie(t *testing.T, uid string) *http.Cookie {
	t.Helper()
	value, err := identity.Encode(identity.Assertion{UID: uid, Created: time.Now().Unix()})
	require.NoError(t, err)
	return &http.Cookie{Name: AssertionCookieName, Value: url.QueryEscape(value)}
}

func doAuthorize(t *testing.T, router http.Handler, uid string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet,
		"/services/oidcp/authorization?client_id=C1&redirect_uri=https%3A%2F%2Fapp%2Fcb&response_type=code&scope=openid&state=abc", nil)
	req.AddCookie(assertionCookie(t, uid))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func Test_FullCodeFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t, "")

	rr := doAuthorize(t, router, "alice")
	require.Equal(t, http.StatusFound, rr.Code)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "app", loc.Host)
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)
	assert.Equal(t, "abc", loc.Query().Get("state"))

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	req := httptest.NewRequest(http.MethodPost, "/services/oidcp/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("C1", "S1")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var tokens models.TokenResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)

	req = httptest.NewRequest(http.MethodGet, "/services/oidcp/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var claims map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &claims))
	assert.Equal(t, "alice", claims["sub"])
	assert.NotContains(t, claims, "email")
}

func Test_Authorization_WithoutCookie(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodGet,
		"/services/oidcp/authorization?redirect_uri=https%3A%2F%2Fapp%2Fcb&response_type=code", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "access_denied", body["error"])
}

func Test_Token_InvalidCode(t *testing.T) {
	router := newTestRouter(t, "")

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", "bogus")
	req := httptest.NewRequest(http.MethodPost, "/services/oidcp/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("C1", "S1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "invalid_grant", body["error"])
}

func Test_Discovery_PublicAndInternal(t *testing.T) {
	t.Run("public", func(t *testing.T) {
		router := newTestRouter(t, "")
		req := httptest.NewRequest(http.MethodGet, "/services/oidcp/.well-known/openid-configuration", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
		assert.Equal(t, "https://hub.example.com/services/oidcp/token", doc["token_endpoint"])
	})

	t.Run("internal unconfigured is 404", func(t *testing.T) {
		router := newTestRouter(t, "")
		req := httptest.NewRequest(http.MethodGet, "/services/oidcp/.well-known/openid-configuration-internal", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("internal configured rewrites host", func(t *testing.T) {
		router := newTestRouter(t, "http://oidcp.internal:8888")
		req := httptest.NewRequest(http.MethodGet, "/services/oidcp/.well-known/openid-configuration-internal", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var doc map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
		assert.Equal(t, "http://oidcp.internal:8888/services/oidcp/token", doc["token_endpoint"])
	})
}

func Test_JWKSEndpoint(t *testing.T) {
	router := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/services/oidcp/jwks.json", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var set struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &set))
	require.NotEmpty(t, set.Keys)
	for _, key := range set.Keys {
		assert.NotContains(t, key, "d")
		assert.NotContains(t, key, "k")
	}
}

func Test_Healthz(t *testing.T) {
	router := newTestRouter(t, "")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
