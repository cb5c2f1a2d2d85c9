package domain

import (
	"strings"
	"time"
)

// User represents a registered member of the book-sharing network.
type User struct {
	Timestamps
	ID           PrincipalID `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	LastLoginAt  time.Time   `json:"last_login_at,omitzero"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
