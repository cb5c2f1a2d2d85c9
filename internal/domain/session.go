package domain

import "time"

// Session is a refresh-token session. The refresh token itself is never
// stored; only its hash is kept for lookup during rotation.
type Session struct {
	ID               string      `json:"id"`
	UserID           PrincipalID `json:"user_id"`
	RefreshTokenHash string      `json:"refresh_token_hash"`
	CreatedAt        time.Time   `json:"created_at"`
	LastUsedAt       time.Time   `json:"last_used_at"`
	ExpiresAt        time.Time   `json:"expires_at"`
}

// IsExpired returns true if the session is past its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TTL returns the remaining lifetime of the session.
func (s *Session) TTL() time.Duration {
	return time.Until(s.ExpiresAt)
}
