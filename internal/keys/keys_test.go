package keys

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oidcp/pkg/domain-errors"
)

func Test_Init_EphemeralVault(t *testing.T) {
	m, err := Init("")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NotEmpty(t, m.signer.kid)
}

func Test_Init_PersistsAndReloads(t *testing.T) {
	vault := t.TempDir()

	first, err := Init(vault)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(vault, keyFileName))
	require.NoError(t, err)

	second, err := Init(vault)
	require.NoError(t, err)
	assert.Equal(t, first.signer.kid, second.signer.kid, "reload must yield the same key")
}

func Test_Init_CorruptKeyIsFatal(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vault, keyFileName), []byte("not a key"), 0o600))

	_, err := Init(vault)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConfiguration, dErrors.CodeOf(err))
}

func Test_PublicJWKS_NeverExposesPrivateMaterial(t *testing.T) {
	m, err := Init(t.TempDir())
	require.NoError(t, err)

	data, err := json.Marshal(m.PublicJWKS())
	require.NoError(t, err)

	var set struct {
		Keys []map[string]any `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(data, &set))
	require.Len(t, set.Keys, 1)

	key := set.Keys[0]
	assert.NotContains(t, key, "d")
	assert.NotContains(t, key, "k")
	assert.NotContains(t, key, "p")
	assert.NotContains(t, key, "q")
	assert.Equal(t, "RSA", key["kty"])
	assert.Equal(t, "RS256", key["alg"])
	assert.Equal(t, "sig", key["use"])
	assert.NotEmpty(t, key["n"])
	assert.NotEmpty(t, key["e"])
}

func Test_SignVerify_RoundTrip(t *testing.T) {
	m, err := Init("")
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := m.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var got jwt.RegisteredClaims
	require.NoError(t, m.Verify(token, &got))
	assert.Equal(t, "alice", got.Subject)
}

func Test_Verify_ExpiredToken(t *testing.T) {
	m, err := Init("")
	require.NoError(t, err)

	token, err := m.Sign(jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	require.NoError(t, err)

	err = m.Verify(token, &jwt.RegisteredClaims{})
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeInvalidToken, "token has expired"))
}

func Test_Verify_ForeignKey(t *testing.T) {
	signer, err := Init("")
	require.NoError(t, err)
	verifier, err := Init("")
	require.NoError(t, err)

	token, err := signer.Sign(jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	err = verifier.Verify(token, &jwt.RegisteredClaims{})
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeInvalidToken, "invalid token"))
}

func Test_Verify_Garbage(t *testing.T) {
	m, err := Init("")
	require.NoError(t, err)
	err = m.Verify("not-a-token", &jwt.RegisteredClaims{})
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeInvalidToken, "invalid token"))
}
