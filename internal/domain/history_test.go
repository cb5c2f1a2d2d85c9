package domain

import "testing"

func TestHistoryActive(t *testing.T) {
	tests := []struct {
		name     string
		returned bool
		approved bool
		active   bool
	}{
		{"unreturned", false, false, true},
		{"returned but unapproved", true, false, true},
		{"closed", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BookTransactionHistory{Returned: tt.returned, ReturnApproved: tt.approved}
			if got := h.Active(); got != tt.active {
				t.Errorf("Active() = %v, want %v", got, tt.active)
			}
		})
	}
}

func TestHistoryMarkReturned(t *testing.T) {
	h := &BookTransactionHistory{}
	h.MarkReturned()

	if !h.Returned {
		t.Error("expected Returned after MarkReturned")
	}
	if h.ReturnApproved {
		t.Error("MarkReturned must not touch ReturnApproved")
	}
	if !h.Active() {
		t.Error("returned but unapproved history must still be active")
	}
}

func TestHistoryApproveReturn(t *testing.T) {
	h := &BookTransactionHistory{}

	// Approval before return is rejected.
	if h.ApproveReturn() {
		t.Fatal("ApproveReturn must fail before the book is returned")
	}
	if h.ReturnApproved {
		t.Error("failed approval must not set ReturnApproved")
	}

	h.MarkReturned()
	if !h.ApproveReturn() {
		t.Fatal("ApproveReturn must succeed after return")
	}
	if h.Active() {
		t.Error("approved history must be closed")
	}
}

func TestPrincipalEquals(t *testing.T) {
	alice := PrincipalID("user-alice")
	bob := PrincipalID("user-bob")
	var zero PrincipalID

	if !alice.Equals("user-alice") {
		t.Error("identical principals must be equal")
	}
	if alice.Equals(bob) {
		t.Error("distinct principals must not be equal")
	}
	if zero.Equals(zero) {
		t.Error("zero principals never match, even each other")
	}
	if alice.Equals(zero) || zero.Equals(alice) {
		t.Error("zero principal must not match a real one")
	}
}

func TestBookLendable(t *testing.T) {
	b := &Book{Shareable: true}
	if !b.Lendable() {
		t.Error("shareable unarchived book must be lendable")
	}

	b.Archived = true
	if b.Lendable() {
		t.Error("archived book must not be lendable regardless of shareable")
	}

	b.Archived = false
	b.Shareable = false
	if b.Lendable() {
		t.Error("non-shareable book must not be lendable")
	}
}

func TestBookOwnedBy(t *testing.T) {
	b := &Book{OwnerID: "user-alice"}
	if !b.OwnedBy("user-alice") {
		t.Error("owner must match")
	}
	if b.OwnedBy("user-bob") {
		t.Error("non-owner must not match")
	}
	if (&Book{}).OwnedBy("user-alice") {
		t.Error("book with zero owner must not match anyone")
	}
}
