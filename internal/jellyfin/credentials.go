package jellyfin

import (
	"errors"
	"fmt"
	"net/http"
)

// Header names Jellyfin accepts for authentication.
const (
	HeaderAuthorization       = "Authorization"
	HeaderLegacyAuthorization = "X-Emby-Authorization"
	HeaderToken               = "X-MediaBrowser-Token"
	HeaderEmbyToken           = "X-Emby-Token"
)

// ErrMissingCredentials is returned when a request carries no usable
// authentication header.
var ErrMissingCredentials = errors.New("no authorization header present")

// Credentials are the client-supplied authentication headers forwarded to
// the origin server on the client's behalf.
type Credentials struct {
	Authorization       string
	LegacyAuthorization string
	Token               string
}

// CredentialsFromHeaders extracts credentials from an inbound request.
func CredentialsFromHeaders(h http.Header) Credentials {
	token := h.Get(HeaderToken)
	if token == "" {
		token = h.Get(HeaderEmbyToken)
	}
	return Credentials{
		Authorization:       h.Get(HeaderAuthorization),
		LegacyAuthorization: h.Get(HeaderLegacyAuthorization),
		Token:               token,
	}
}

// ServiceCredentials builds the header Jellyfin expects for API tokens
// created in the dashboard.
func ServiceCredentials(token string) Credentials {
	if token == "" {
		return Credentials{}
	}
	return Credentials{
		Authorization: fmt.Sprintf(`MediaBrowser Client="JellySearch", Token="%s"`, token),
	}
}

// Empty reports whether no credential is present at all.
func (c Credentials) Empty() bool {
	return c.Authorization == "" && c.LegacyAuthorization == "" && c.Token == ""
}

// Apply sets every present credential header on an outbound request.
func (c Credentials) Apply(h http.Header) {
	if c.Authorization != "" {
		h.Set(HeaderAuthorization, c.Authorization)
	}
	if c.LegacyAuthorization != "" {
		h.Set(HeaderLegacyAuthorization, c.LegacyAuthorization)
	}
	if c.Token != "" {
		h.Set(HeaderToken, c.Token)
	}
}
