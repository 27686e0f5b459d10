// Package registry holds the static catalog of OAuth clients the provider
// serves. JupyterHub services arrive as JSON records at startup; the registry
// validates them once and is read-only afterwards, so concurrent lookups need
// no locking.
package registry

import (
	"encoding/json"
	"fmt"

	dErrors "oidcp/pkg/domain-errors"
	"oidcp/pkg/platform/sentinel"
)

// RedirectURI is a registered redirect destination. Label is the optional
// second element of a [uri, label] pair in the service definition.
type RedirectURI struct {
	URI   string
	Label string
}

// UnmarshalJSON accepts either a bare string or a two-element
// [string, string-or-null] array. Anything else is a configuration error.
func (r *RedirectURI) UnmarshalJSON(data []byte) error {
	var uri string
	if err := json.Unmarshal(data, &uri); err == nil {
		*r = RedirectURI{URI: uri}
		return nil
	}

	var pair []*string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("redirect URI must be a string or a [uri, label] pair")
	}
	if len(pair) != 2 {
		return fmt.Errorf("redirect URI pair must have exactly two elements")
	}
	if pair[0] == nil {
		return fmt.Errorf("redirect URI first element must be a string")
	}
	out := RedirectURI{URI: *pair[0]}
	if pair[1] != nil {
		out.Label = *pair[1]
	}
	*r = out
	return nil
}

// RawClient is the wire shape of one JupyterHub service entry. Pointer fields
// distinguish absent keys from empty values so validation can name what is
// missing.
type RawClient struct {
	OAuthClientID *string        `json:"oauth_client_id"`
	APIToken      *string        `json:"api_token"`
	RedirectURIs  *[]RedirectURI `json:"redirect_uris"`
}

// Client is one validated OAuth client registration.
//
// Invariants:
//   - ClientID and ClientSecret are non-empty
//   - RedirectURIs is non-empty, each entry normalized to (uri, label)
//   - immutable after registry construction
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURIs []RedirectURI
}

// Registry is the immutable client catalog. Insertion order is preserved so
// redirect-URI resolution is deterministic.
type Registry struct {
	clients []*Client
	byID    map[string]*Client
}

// New validates the raw service list and builds the registry. Any entry
// missing one of the three required keys fails construction with an error
// naming the missing field.
func New(raw []RawClient) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Client, len(raw))}
	for i, entry := range raw {
		if entry.OAuthClientID == nil || *entry.OAuthClientID == "" {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("service %d must have an 'oauth_client_id' key", i))
		}
		if entry.APIToken == nil || *entry.APIToken == "" {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("service %d must have an 'api_token' key", i))
		}
		if entry.RedirectURIs == nil || len(*entry.RedirectURIs) == 0 {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("service %d must have a 'redirect_uris' key", i))
		}
		if _, dup := r.byID[*entry.OAuthClientID]; dup {
			return nil, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("duplicate oauth_client_id %q", *entry.OAuthClientID))
		}

		client := &Client{
			ClientID:     *entry.OAuthClientID,
			ClientSecret: *entry.APIToken,
			RedirectURIs: append([]RedirectURI(nil), *entry.RedirectURIs...),
		}
		r.clients = append(r.clients, client)
		r.byID[client.ClientID] = client
	}
	return r, nil
}

// Parse decodes the services JSON given at startup and builds the registry.
func Parse(servicesJSON string) (*Registry, error) {
	var raw []RawClient
	if err := json.Unmarshal([]byte(servicesJSON), &raw); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "services must be a JSON list")
	}
	return New(raw)
}

// Get returns the client registered under id.
func (r *Registry) Get(id string) (*Client, error) {
	if client, ok := r.byID[id]; ok {
		return client, nil
	}
	return nil, fmt.Errorf("client %q: %w", id, sentinel.ErrNotFound)
}

// FindByRedirectURI returns the first registered client whose redirect URI
// list contains uri exactly. The redirect URI, not the nominal client_id
// parameter, is the authoritative key during authorization; first match wins
// across the whole catalog.
func (r *Registry) FindByRedirectURI(uri string) (*Client, error) {
	for _, client := range r.clients {
		for _, registered := range client.RedirectURIs {
			if registered.URI == uri {
				return client, nil
			}
		}
	}
	return nil, fmt.Errorf("no client for redirect URI %q: %w", uri, sentinel.ErrNotFound)
}

// IDs lists client ids in insertion order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.clients))
	for _, client := range r.clients {
		ids = append(ids, client.ClientID)
	}
	return ids
}
