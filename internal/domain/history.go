package domain

// BookTransactionHistory records one borrow of one book by one user.
//
// A history moves through exactly three states and never backwards:
//
//	active (unreturned) -> active (returned, unapproved) -> closed (approved)
//
// Once closed it is immutable; borrowing the same book again creates a new
// history row rather than reopening the old one.
type BookTransactionHistory struct {
	Timestamps
	ID             int64       `json:"id"`
	BookID         int64       `json:"book_id"`
	BorrowerID     PrincipalID `json:"borrower_id"`
	Returned       bool        `json:"returned"`
	ReturnApproved bool        `json:"return_approved"`
}

// Active reports whether the history still binds the book to its borrower:
// not yet returned, or returned but not yet approved by the owner.
func (h *BookTransactionHistory) Active() bool {
	return !h.Returned || !h.ReturnApproved
}

// MarkReturned transitions the history to the returned state.
// The approval flag is untouched; only the owner may close the history.
func (h *BookTransactionHistory) MarkReturned() {
	h.Returned = true
	h.Touch()
}

// ApproveReturn closes the history. Returns false if the book has not been
// returned yet; approval may only follow a return.
func (h *BookTransactionHistory) ApproveReturn() bool {
	if !h.Returned {
		return false
	}
	h.ReturnApproved = true
	h.Touch()
	return true
}
