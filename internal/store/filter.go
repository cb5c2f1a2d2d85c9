package store

import "github.com/bookshareapp/bookshare-server/internal/domain"

// BookFilter is an explicit visibility policy for book listings.
//
// Stores apply the filter at the query level; services construct it through
// the policy constructors below rather than assembling predicates ad hoc, so
// the visibility rules live in one place.
type BookFilter struct {
	// Owner restricts results to books owned by this principal.
	Owner domain.PrincipalID

	// ExcludeOwner removes books owned by this principal from the results.
	ExcludeOwner domain.PrincipalID

	// LendableOnly keeps only shareable, non-archived books.
	LendableOnly bool
}

// DisplayableTo is the catalog browsing policy: books other members may see.
// It excludes the requester's own books and anything archived or not shareable.
func DisplayableTo(requester domain.PrincipalID) BookFilter {
	return BookFilter{
		ExcludeOwner: requester,
		LendableOnly: true,
	}
}

// OwnedBy is the owner's shelf policy: every book the owner registered,
// regardless of shareable or archived state.
func OwnedBy(owner domain.PrincipalID) BookFilter {
	return BookFilter{Owner: owner}
}

// Allows reports whether a single book passes the filter.
// Used for post-filtering results that arrive from outside SQL, such as
// search index hits.
func (f BookFilter) Allows(b *domain.Book) bool {
	if !f.Owner.IsZero() && !b.OwnedBy(f.Owner) {
		return false
	}
	if !f.ExcludeOwner.IsZero() && b.OwnedBy(f.ExcludeOwner) {
		return false
	}
	if f.LendableOnly && !b.Lendable() {
		return false
	}
	return true
}
