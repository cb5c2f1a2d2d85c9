package domain

// PrincipalID identifies an authenticated user across the catalog.
//
// All ownership and authorization checks compare principals through Equals,
// never through raw string comparison, so the representation can change with
// the identity provider without touching the lending rules.
type PrincipalID string

// Equals reports whether two principals identify the same user.
// Zero principals never match anything, including each other.
func (p PrincipalID) Equals(other PrincipalID) bool {
	if p.IsZero() || other.IsZero() {
		return false
	}
	return p == other
}

// IsZero reports whether the principal is unset.
func (p PrincipalID) IsZero() bool {
	return p == ""
}

// String returns the raw identifier.
func (p PrincipalID) String() string {
	return string(p)
}
