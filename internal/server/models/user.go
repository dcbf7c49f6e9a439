package models

import "time"

// Roles known to the platform.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account of the development backend. Pending verification codes
// are kept only as a SHA-256 hash; CodeAttempts counts wrong guesses at the
// current code.
type User struct {
	ID           string
	Email        string
	Name         string
	Department   string
	Role         string
	PasswordHash []byte
	Verified     bool
	CodeHash     []byte
	CodeExpires  time.Time
	CodeAttempts int
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
