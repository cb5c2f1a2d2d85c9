package sqlite

import (
	"context"
	"testing"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

func newTestBorrow(t *testing.T, s *Store, bookID int64, borrower domain.PrincipalID) *domain.BookTransactionHistory {
	t.Helper()
	history := &domain.BookTransactionHistory{BookID: bookID, BorrowerID: borrower}
	history.InitTimestamps()
	if err := s.CreateHistory(context.Background(), history); err != nil {
		t.Fatalf("create history: %v", err)
	}
	return history
}

func TestCreateHistoryRejectsSecondOpenBorrow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "owner@example.com")
	u1 := newTestUser(t, s, "u1@example.com")
	u2 := newTestUser(t, s, "u2@example.com")
	book := newTestBook(t, s, owner.ID, "Contested")

	newTestBorrow(t, s, book.ID, u1.ID)

	second := &domain.BookTransactionHistory{BookID: book.ID, BorrowerID: u2.ID}
	second.InitTimestamps()
	if err := s.CreateHistory(ctx, second); err != store.ErrActiveBorrowExists {
		t.Errorf("expected ErrActiveBorrowExists, got %v", err)
	}
}

func TestBorrowLifecycleQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "owner@example.com")
	borrower := newTestUser(t, s, "borrower@example.com")
	book := newTestBook(t, s, owner.ID, "Lifecycle")

	history := newTestBorrow(t, s, book.ID, borrower.ID)

	// Open borrow is visible to both exists checks and as the active borrow.
	if exists, err := s.ExistsActiveBorrow(ctx, book.ID); err != nil || !exists {
		t.Fatalf("expected active borrow, got exists=%v err=%v", exists, err)
	}
	if exists, err := s.ExistsActiveBorrowByUser(ctx, book.ID, borrower.ID); err != nil || !exists {
		t.Fatalf("expected active borrow by user, got exists=%v err=%v", exists, err)
	}
	if exists, err := s.ExistsActiveBorrowByUser(ctx, book.ID, owner.ID); err != nil || exists {
		t.Fatalf("owner should have no active borrow, got exists=%v err=%v", exists, err)
	}

	active, err := s.FindActiveBorrow(ctx, book.ID, borrower.ID)
	if err != nil {
		t.Fatalf("find active borrow: %v", err)
	}
	if active.ID != history.ID {
		t.Errorf("expected history %d, got %d", history.ID, active.ID)
	}

	// Not yet returned, so there is nothing for the owner to approve.
	if _, err := s.FindReturnedUnapproved(ctx, book.ID, owner.ID); err != store.ErrHistoryNotFound {
		t.Errorf("expected ErrHistoryNotFound before return, got %v", err)
	}

	// Borrower returns the book.
	history.MarkReturned()
	if err := s.UpdateHistory(ctx, history); err != nil {
		t.Fatalf("update history: %v", err)
	}

	if _, err := s.FindActiveBorrow(ctx, book.ID, borrower.ID); err != store.ErrHistoryNotFound {
		t.Errorf("expected no active borrow after return, got %v", err)
	}

	pending, err := s.FindReturnedUnapproved(ctx, book.ID, owner.ID)
	if err != nil {
		t.Fatalf("find returned unapproved: %v", err)
	}
	if pending.ID != history.ID {
		t.Errorf("expected history %d, got %d", history.ID, pending.ID)
	}

	// Only the owner may see the pending return.
	if _, err := s.FindReturnedUnapproved(ctx, book.ID, borrower.ID); err != store.ErrHistoryNotFound {
		t.Errorf("expected ErrHistoryNotFound for non-owner, got %v", err)
	}

	// The borrow stays open until approval.
	if exists, err := s.ExistsActiveBorrowByUser(ctx, book.ID, borrower.ID); err != nil || !exists {
		t.Fatalf("borrow should stay open until approval, got exists=%v err=%v", exists, err)
	}

	// Owner approves; the book becomes borrowable again.
	if !history.ApproveReturn() {
		t.Fatal("approve return should succeed on a returned history")
	}
	if err := s.UpdateHistory(ctx, history); err != nil {
		t.Fatalf("update history: %v", err)
	}

	if exists, err := s.ExistsActiveBorrow(ctx, book.ID); err != nil || exists {
		t.Fatalf("expected no active borrow after approval, got exists=%v err=%v", exists, err)
	}

	// A fresh borrow can now be recorded.
	newTestBorrow(t, s, book.ID, borrower.ID)
}

func TestListBorrowedAndReturnedByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "owner@example.com")
	borrower := newTestUser(t, s, "borrower@example.com")

	b1 := newTestBook(t, s, owner.ID, "First")
	b2 := newTestBook(t, s, owner.ID, "Second")

	h1 := newTestBorrow(t, s, b1.ID, borrower.ID)
	h1.MarkReturned()
	if err := s.UpdateHistory(ctx, h1); err != nil {
		t.Fatalf("update history: %v", err)
	}
	newTestBorrow(t, s, b2.ID, borrower.ID)

	borrowed, err := s.ListBorrowedByUser(ctx, borrower.ID, store.PageRequest{})
	if err != nil {
		t.Fatalf("list borrowed: %v", err)
	}
	if borrowed.TotalElements != 2 {
		t.Errorf("expected 2 borrowed, got %d", borrowed.TotalElements)
	}

	returned, err := s.ListReturnedByUser(ctx, borrower.ID, store.PageRequest{})
	if err != nil {
		t.Fatalf("list returned: %v", err)
	}
	if returned.TotalElements != 1 {
		t.Fatalf("expected 1 returned, got %d", returned.TotalElements)
	}
	if returned.Items[0].BookID != b1.ID {
		t.Errorf("expected returned history for book %d, got %d", b1.ID, returned.Items[0].BookID)
	}

	other, err := s.ListBorrowedByUser(ctx, owner.ID, store.PageRequest{})
	if err != nil {
		t.Fatalf("list borrowed for owner: %v", err)
	}
	if other.TotalElements != 0 {
		t.Errorf("expected no borrows for owner, got %d", other.TotalElements)
	}
}

func TestGetHistoryNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetHistory(context.Background(), 777); err != store.ErrHistoryNotFound {
		t.Errorf("expected ErrHistoryNotFound, got %v", err)
	}
}
