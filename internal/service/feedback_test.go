package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookshareapp/bookshare-server/internal/errors"
)

func TestSaveFeedback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	reader := env.user(t, "reader@example.com")
	book := env.book(t, owner.ID, "Reviewed", true)

	feedback, err := env.feedback.SaveFeedback(ctx, book.ID, reader.ID, SaveFeedbackRequest{
		Note:    4.5,
		Comment: "great read",
	})
	require.NoError(t, err)
	assert.NotZero(t, feedback.ID)

	// Rating now reflects the feedback.
	found, err := env.books.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, found.Rating, 1e-9)
}

func TestSaveFeedbackChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	reader := env.user(t, "reader@example.com")

	t.Run("note out of range", func(t *testing.T) {
		book := env.book(t, owner.ID, "Strict", true)
		_, err := env.feedback.SaveFeedback(ctx, book.ID, reader.ID, SaveFeedbackRequest{Note: 7})
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	})

	t.Run("missing book", func(t *testing.T) {
		_, err := env.feedback.SaveFeedback(ctx, 9999, reader.ID, SaveFeedbackRequest{Note: 3})
		require.Error(t, err)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
	})

	t.Run("not shareable", func(t *testing.T) {
		private := env.book(t, owner.ID, "Private", false)
		_, err := env.feedback.SaveFeedback(ctx, private.ID, reader.ID, SaveFeedbackRequest{Note: 3})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "archived or not shareable")
	})

	t.Run("own book", func(t *testing.T) {
		book := env.book(t, owner.ID, "Self Review", true)
		_, err := env.feedback.SaveFeedback(ctx, book.ID, owner.ID, SaveFeedbackRequest{Note: 5})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "your own book")
	})
}

func TestListFeedbackMarksOwn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	reader := env.user(t, "reader@example.com")
	other := env.user(t, "other@example.com")
	book := env.book(t, owner.ID, "Discussed", true)

	_, err := env.feedback.SaveFeedback(ctx, book.ID, reader.ID, SaveFeedbackRequest{Note: 4})
	require.NoError(t, err)
	_, err = env.feedback.SaveFeedback(ctx, book.ID, other.ID, SaveFeedbackRequest{Note: 2})
	require.NoError(t, err)

	page, err := env.feedback.ListFeedback(ctx, book.ID, reader.ID, pageAll())
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	ownCount := 0
	for _, entry := range page.Items {
		if entry.OwnFeedback {
			ownCount++
			assert.Equal(t, reader.ID, entry.UserID)
		}
	}
	assert.Equal(t, 1, ownCount)
}
