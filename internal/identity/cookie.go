// Package identity encodes and decodes the assertion JupyterHub hands the
// provider about the currently authenticated user. The codec carries no
// cryptographic integrity of its own: the HTTP-only, signed session cookie
// transporting it is the trust boundary with the Hub.
package identity

import (
	"encoding/json"
	"strings"

	dErrors "oidcp/pkg/domain-errors"
)

// CookiePrefix is the fixed literal preceding the JSON payload.
const CookiePrefix = "jupyterhub:"

// Assertion states who the logged-in user is at the moment of an
// authorization request. Admin is optional in the wire payload and defaults
// to false.
type Assertion struct {
	UID     string
	Created int64
	Admin   bool
}

type wirePayload struct {
	UID     *string `json:"uid"`
	Created *int64  `json:"created"`
	Admin   bool    `json:"admin,omitempty"`
}

// Encode renders the assertion as the prefixed cookie value.
func Encode(a Assertion) (string, error) {
	if a.UID == "" {
		return "", dErrors.New(dErrors.CodeInvalidAssertion, "assertion must have a uid")
	}
	payload, err := json.Marshal(wirePayload{UID: &a.UID, Created: &a.Created, Admin: a.Admin})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode assertion")
	}
	return CookiePrefix + string(payload), nil
}

// Decode parses a prefixed cookie value back into an assertion. Absent input,
// a missing prefix, unparseable JSON, or a missing required field all fail
// with an invalid-assertion error.
func Decode(cookie string) (Assertion, error) {
	if cookie == "" {
		return Assertion{}, dErrors.New(dErrors.CodeInvalidAssertion, "assertion cookie is required")
	}
	payload, ok := strings.CutPrefix(cookie, CookiePrefix)
	if !ok {
		return Assertion{}, dErrors.New(dErrors.CodeInvalidAssertion, "assertion cookie has no prefix")
	}

	var wire wirePayload
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return Assertion{}, dErrors.New(dErrors.CodeInvalidAssertion, "assertion payload is not valid JSON")
	}
	if wire.UID == nil || *wire.UID == "" {
		return Assertion{}, dErrors.New(dErrors.CodeInvalidAssertion, "assertion must have a 'uid' key")
	}
	if wire.Created == nil {
		return Assertion{}, dErrors.New(dErrors.CodeInvalidAssertion, "assertion must have a 'created' key")
	}
	return Assertion{UID: *wire.UID, Created: *wire.Created, Admin: wire.Admin}, nil
}
