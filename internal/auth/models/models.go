// Package models holds the entities shared by the authorization, token, and
// userinfo engines. Storage lives behind the store interfaces; HTTP concerns
// stay in the transport layer.
package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is one authorization grant in flight: minted when the Hub user
// approves an authorization request, consumed exactly once by the token
// exchange, dead after its TTL.
type Session struct {
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	UID         string    `json:"uid"`
	RedirectURI string    `json:"redirect_uri"`
	Scopes      []string  `json:"scopes,omitempty"`
	State       string    `json:"state,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Used        bool      `json:"used"`
}

// Expired reports whether the session is past its TTL at now.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// User is the peripheral record kept about a subject seen at authorization
// time. Admin feeds the admin/user email pattern split.
type User struct {
	UID   string `json:"uid"`
	Admin bool   `json:"admin"`
}

// Claims is the payload signed into both ID and access tokens. Tokens are
// self-describing: userinfo recovers the subject from the signature-verified
// claims, never from server-side state.
type Claims struct {
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenResult is the JSON body of a successful token exchange.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Response is the tagged descriptor every engine operation emits. The
// transport interprets 302/303 as redirects via the Location header and
// passes everything else through verbatim.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Redirect reports whether the descriptor is a redirect-style response.
func (r *Response) Redirect() bool {
	return r.Status == 302 || r.Status == 303
}
