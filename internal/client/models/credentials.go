// Package models defines client-side data types shared by the session core:
// the stored credential pair, the server-asserted principal and the transient
// signup/verification drafts held by the login flow.
package models

// CredentialPair bundles the opaque bearer tokens issued by the backend.
// The client never parses either token. A pair is either complete (both
// tokens set) or zero; a half-filled pair is never persisted.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

// IsZero reports whether neither token is set.
func (p CredentialPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Complete reports whether both tokens are set.
func (p CredentialPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}
