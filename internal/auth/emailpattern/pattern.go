// Package emailpattern derives the email claim from a subject id. A
// deployment configures either one plain pattern for everyone, or a pair of
// patterns split by the subject's admin flag.
package emailpattern

import (
	"strings"

	dErrors "oidcp/pkg/domain-errors"
)

// Placeholder is substituted with the subject id when a pattern is applied.
const Placeholder = "{uid}"

// Pattern selects and applies an email format string.
//
// Invariants:
//   - the plain pattern is mutually exclusive with the admin/user pair
//   - the admin and user patterns must be set together
type Pattern struct {
	pattern      string
	adminPattern string
	userPattern  string
}

// New builds a pattern from the configured format strings. All three empty
// means no email claim is ever emitted; New returns nil in that case so
// callers can keep a plain nil check.
func New(pattern, adminPattern, userPattern string) (*Pattern, error) {
	if pattern == "" && adminPattern == "" && userPattern == "" {
		return nil, nil
	}
	if pattern != "" {
		if adminPattern != "" || userPattern != "" {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				"email pattern cannot be set together with admin/user patterns")
		}
		return &Pattern{pattern: pattern}, nil
	}
	if adminPattern == "" || userPattern == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration,
			"admin and user email patterns must be set together")
	}
	return &Pattern{adminPattern: adminPattern, userPattern: userPattern}, nil
}

// Email formats the address for uid, picking the admin or user pattern when
// the pair is configured.
func (p *Pattern) Email(uid string, admin bool) string {
	pattern := p.pattern
	if pattern == "" {
		if admin {
			pattern = p.adminPattern
		} else {
			pattern = p.userPattern
		}
	}
	return strings.ReplaceAll(pattern, Placeholder, uid)
}
