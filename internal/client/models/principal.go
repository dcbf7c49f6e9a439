package models

// Principal is the authenticated user as asserted by the server.
// It lives only in memory and is rebuilt from the access token on every start.
type Principal struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role,omitempty"`
	IsAdmin    bool   `json:"isAdmin,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// DisplayName returns the name when known, falling back to the email.
func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
