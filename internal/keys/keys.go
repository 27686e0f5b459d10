// Package keys owns the provider's signing key material. The private key is
// loaded from (or generated into) a vault directory at startup and never
// leaves this package; only the public JWK set is serialized outward.
package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	dErrors "oidcp/pkg/domain-errors"
)

// Algorithm is the only signing scheme the provider supports.
const Algorithm = "RS256"

const (
	keyFileName = "oidc.key"
	keyBits     = 2048
	sigUse      = "sig"
)

// Material is one signing key bundle.
type Material struct {
	key *rsa.PrivateKey
	kid string
}

// KeyID returns the RFC 7638 thumbprint identifying this bundle.
func (m *Material) KeyID() string {
	return m.kid
}

// Manager holds the key ring and the active signer. The ring maps a key-use
// label to its ordered bundles; registration is create-if-absent-else-append
// under one lock. Reads after startup need no locking because the ring is
// never mutated once Init returns.
type Manager struct {
	mu     sync.Mutex
	ring   map[string][]*Material
	signer *Material
}

// Init loads key material from vaultPath, generating and persisting a fresh
// RSA key pair when the vault is empty. An empty vaultPath creates a
// throwaway temp directory so the provider is always usable standalone, at
// the cost of losing keys across restarts. Unreadable or corrupt persisted
// material is a fatal startup error.
func Init(vaultPath string) (*Manager, error) {
	if vaultPath == "" {
		tmp, err := os.MkdirTemp("", "oidcp-vault-")
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to create ephemeral vault")
		}
		vaultPath = tmp
	}

	keyPath := filepath.Join(vaultPath, keyFileName)
	key, err := loadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}

	kid, err := deriveKeyID(key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to derive key id")
	}

	m := &Manager{ring: make(map[string][]*Material)}
	m.signer = &Material{key: key, kid: kid}
	m.register(sigUse, m.signer)
	return m, nil
}

// register appends the bundle to the ring entry for use, creating the entry
// when absent. One atomic operation, no implicit shared defaults.
func (m *Manager) register(use string, mat *Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[use] = append(m.ring[use], mat)
}

func loadOrCreateKey(keyPath string) (*rsa.PrivateKey, error) {
	keyPEM, err := os.ReadFile(keyPath)
	switch {
	case err == nil:
		return parseKey(keyPEM, keyPath)
	case errors.Is(err, os.ErrNotExist):
		return generateKey(keyPath)
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration,
			fmt.Sprintf("failed to read signing key %s", keyPath))
	}
}

func parseKey(keyPEM []byte, keyPath string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration,
			fmt.Sprintf("signing key %s is not valid PEM", keyPath))
	}

	// PKCS1 is what we persist; PKCS8 is accepted for externally provisioned vaults.
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration,
			fmt.Sprintf("failed to parse signing key %s", keyPath))
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeConfiguration,
			fmt.Sprintf("signing key %s is not an RSA key", keyPath))
	}
	return key, nil
}

func generateKey(keyPath string) (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to generate signing key")
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "failed to create vault directory")
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration,
			fmt.Sprintf("failed to persist signing key %s", keyPath))
	}
	return key, nil
}

// deriveKeyID computes the RFC 7638 JWK thumbprint of the public key.
func deriveKeyID(key *rsa.PrivateKey) (string, error) {
	jwk := jose.JSONWebKey{Key: key.Public()}
	thumbprint, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(thumbprint), nil
}

// PublicJWKS returns the publishable key set. Every entry is built from the
// public key component alone, so the private exponent and any symmetric
// material structurally cannot appear in the output; callers never have to
// redact anything.
func (m *Manager) PublicJWKS() jose.JSONWebKeySet {
	bundles := m.ring[sigUse]
	set := jose.JSONWebKeySet{Keys: make([]jose.JSONWebKey, 0, len(bundles))}
	for _, mat := range bundles {
		set.Keys = append(set.Keys, jose.JSONWebKey{
			Key:       mat.key.Public(),
			KeyID:     mat.kid,
			Algorithm: Algorithm,
			Use:       sigUse,
		})
	}
	return set
}

// Sign produces a compact RS256 JWT over claims with the active signer.
func (m *Manager) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = m.signer.kid
	return token.SignedString(m.signer.key)
}

// Verify parses tokenString into claims, enforcing RS256 and expiry.
func (m *Manager) Verify(tokenString string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.signer.key.Public(), nil
	}, jwt.WithValidMethods([]string{Algorithm}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return dErrors.New(dErrors.CodeInvalidToken, "token has expired")
		}
		return dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}
	if !parsed.Valid {
		return dErrors.New(dErrors.CodeInvalidToken, "invalid token")
	}
	return nil
}
