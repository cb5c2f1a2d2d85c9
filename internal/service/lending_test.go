package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookshareapp/bookshare-server/internal/errors"
)

func TestBorrowChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	reader := env.user(t, "reader@example.com")

	t.Run("missing book", func(t *testing.T) {
		_, err := env.lending.BorrowBook(ctx, 9999, reader.ID)
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
		assert.Contains(t, err.Error(), "no book found with id 9999")
	})

	t.Run("not shareable", func(t *testing.T) {
		private := env.book(t, owner.ID, "Private", false)
		_, err := env.lending.BorrowBook(ctx, private.ID, reader.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be borrowed since it is archived or not shareable")
	})

	t.Run("archived", func(t *testing.T) {
		archived := env.book(t, owner.ID, "Archived", true)
		_, err := env.lending.UpdateArchivedStatus(ctx, archived.ID, owner.ID)
		require.NoError(t, err)

		_, err = env.lending.BorrowBook(ctx, archived.ID, reader.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be borrowed since it is archived or not shareable")
	})

	t.Run("own book", func(t *testing.T) {
		mine := env.book(t, owner.ID, "Mine", true)
		_, err := env.lending.BorrowBook(ctx, mine.ID, owner.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "you cannot borrow your own book")
	})

	t.Run("already borrowed by me", func(t *testing.T) {
		book := env.book(t, owner.ID, "Popular", true)
		_, err := env.lending.BorrowBook(ctx, book.ID, reader.ID)
		require.NoError(t, err)

		_, err = env.lending.BorrowBook(ctx, book.ID, reader.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "you already borrowed this book")
	})

	t.Run("already borrowed by someone else", func(t *testing.T) {
		other := env.user(t, "other@example.com")
		book := env.book(t, owner.ID, "Contested", true)
		_, err := env.lending.BorrowBook(ctx, book.ID, reader.ID)
		require.NoError(t, err)

		_, err = env.lending.BorrowBook(ctx, book.ID, other.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "the requested book is already borrowed")
	})
}

func TestReturnChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	reader := env.user(t, "reader@example.com")

	book := env.book(t, owner.ID, "Returnable", true)

	t.Run("not borrowed", func(t *testing.T) {
		_, err := env.lending.ReturnBorrowedBook(ctx, book.ID, reader.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "you did not borrow this book")
	})

	t.Run("own book", func(t *testing.T) {
		_, err := env.lending.ReturnBorrowedBook(ctx, book.ID, owner.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "you cannot borrow or return your own book")
	})

	t.Run("double return", func(t *testing.T) {
		_, err := env.lending.BorrowBook(ctx, book.ID, reader.ID)
		require.NoError(t, err)
		_, err = env.lending.ReturnBorrowedBook(ctx, book.ID, reader.ID)
		require.NoError(t, err)

		// The borrow is now pending approval, not active.
		_, err = env.lending.ReturnBorrowedBook(ctx, book.ID, reader.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "you did not borrow this book")
	})
}

func TestApproveChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	reader := env.user(t, "reader@example.com")

	book := env.book(t, owner.ID, "Approvable", true)

	t.Run("nothing to approve", func(t *testing.T) {
		_, err := env.lending.ApproveReturnBorrowedBook(ctx, book.ID, owner.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not returned yet")
	})

	t.Run("not the owner", func(t *testing.T) {
		_, err := env.lending.BorrowBook(ctx, book.ID, reader.ID)
		require.NoError(t, err)
		_, err = env.lending.ReturnBorrowedBook(ctx, book.ID, reader.ID)
		require.NoError(t, err)

		_, err = env.lending.ApproveReturnBorrowedBook(ctx, book.ID, reader.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "you cannot approve the return of a book you do not own")
	})

	t.Run("owner approves", func(t *testing.T) {
		_, err := env.lending.ApproveReturnBorrowedBook(ctx, book.ID, owner.ID)
		require.NoError(t, err)
	})
}

// TestFullLendingCycle walks one book through two complete borrow cycles
// with three members.
func TestFullLendingCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.user(t, "u1@example.com")
	u2 := env.user(t, "u2@example.com")
	u3 := env.user(t, "u3@example.com")

	book := env.book(t, u1.ID, "The Shared Book", true)

	// U2 borrows.
	_, err := env.lending.BorrowBook(ctx, book.ID, u2.ID)
	require.NoError(t, err)

	// U3 cannot borrow while U2 holds it.
	_, err = env.lending.BorrowBook(ctx, book.ID, u3.ID)
	require.Error(t, err)

	// U2 returns; still blocked for U3 until approval.
	_, err = env.lending.ReturnBorrowedBook(ctx, book.ID, u2.ID)
	require.NoError(t, err)
	_, err = env.lending.BorrowBook(ctx, book.ID, u3.ID)
	require.Error(t, err)

	// U1 approves; U3 can now borrow.
	_, err = env.lending.ApproveReturnBorrowedBook(ctx, book.ID, u1.ID)
	require.NoError(t, err)
	_, err = env.lending.BorrowBook(ctx, book.ID, u3.ID)
	require.NoError(t, err)

	// Histories: U2 has one returned borrow, U3 one open borrow.
	returned, err := env.lending.ListReturned(ctx, u2.ID, pageAll())
	require.NoError(t, err)
	require.Len(t, returned.Items, 1)
	assert.Equal(t, book.ID, returned.Items[0].Book.ID)
	assert.True(t, returned.Items[0].ReturnApproved)

	borrowed, err := env.lending.ListBorrowed(ctx, u3.ID, pageAll())
	require.NoError(t, err)
	require.Len(t, borrowed.Items, 1)
	assert.False(t, borrowed.Items[0].Returned)
}

func TestToggleShareable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	stranger := env.user(t, "stranger@example.com")

	book := env.book(t, owner.ID, "Toggled", true)

	_, err := env.lending.UpdateShareableStatus(ctx, book.ID, stranger.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "you cannot update others books shareable status")

	updated, err := env.lending.UpdateShareableStatus(ctx, book.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, updated.Shareable)

	// Toggling twice restores the original state.
	updated, err = env.lending.UpdateShareableStatus(ctx, book.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, updated.Shareable)
}

func TestToggleArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	stranger := env.user(t, "stranger@example.com")
	reader := env.user(t, "reader@example.com")

	book := env.book(t, owner.ID, "Archivable", true)

	_, err := env.lending.UpdateArchivedStatus(ctx, book.ID, stranger.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "you cannot update others books archived status")

	// Archiving does not disturb an open borrow.
	_, err = env.lending.BorrowBook(ctx, book.ID, reader.ID)
	require.NoError(t, err)

	updated, err := env.lending.UpdateArchivedStatus(ctx, book.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, updated.Archived)

	borrowed, err := env.lending.ListBorrowed(ctx, reader.ID, pageAll())
	require.NoError(t, err)
	assert.Len(t, borrowed.Items, 1)
}
