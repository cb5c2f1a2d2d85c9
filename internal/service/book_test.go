package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bookshareapp/bookshare-server/internal/errors"
	"github.com/bookshareapp/bookshare-server/internal/search"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

func TestSaveBookValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com")

	_, err := env.books.SaveBook(context.Background(), owner.ID, SaveBookRequest{
		AuthorName: "No Title",
	})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestFindBookByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	book := env.book(t, owner.ID, "Findable", true)

	found, err := env.books.FindBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Findable", found.Title)
	assert.Zero(t, found.Rating)

	_, err = env.books.FindBookByID(ctx, 12345)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestVisibilityListings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	requester := env.user(t, "requester@example.com")

	shared := env.book(t, owner.ID, "Shared", true)
	env.book(t, owner.ID, "Private", false)
	mine := env.book(t, requester.ID, "Mine", true)

	displayable, err := env.books.ListDisplayable(ctx, requester.ID, pageAll())
	require.NoError(t, err)
	require.Len(t, displayable.Items, 1)
	assert.Equal(t, shared.ID, displayable.Items[0].ID)

	owned, err := env.books.ListOwned(ctx, requester.ID, pageAll())
	require.NoError(t, err)
	require.Len(t, owned.Items, 1)
	assert.Equal(t, mine.ID, owned.Items[0].ID)

	// The owner sees both their books, shareable or not.
	ownerShelf, err := env.books.ListOwned(ctx, owner.ID, pageAll())
	require.NoError(t, err)
	assert.Len(t, ownerShelf.Items, 2)
}

func TestSearchRespectsVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	requester := env.user(t, "requester@example.com")

	visible := env.book(t, owner.ID, "Distributed Systems", true)
	env.book(t, owner.ID, "Distributed Secrets", false)
	env.book(t, requester.ID, "Distributed Mine", true)

	hits, err := env.books.Search(ctx, requester.ID, search.Params{Query: "Distributed", Limit: 10})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, visible.ID, hits[0].Book.ID)
}

func TestUploadCover(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	stranger := env.user(t, "stranger@example.com")
	book := env.book(t, owner.ID, "Covered", true)

	img := image.NewRGBA(image.Rect(0, 0, 60, 90))
	for y := 0; y < 90; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	_, err := env.books.UploadCover(ctx, book.ID, stranger.ID, buf.Bytes())
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotPermitted))

	updated, err := env.books.UploadCover(ctx, book.ID, owner.ID, buf.Bytes())
	require.NoError(t, err)
	require.NotNil(t, updated.Cover)
	assert.Equal(t, 60, updated.Cover.Width)
	assert.Equal(t, 90, updated.Cover.Height)
	assert.NotEmpty(t, updated.Cover.BlurHash)

	_, err = env.books.UploadCover(ctx, book.ID, owner.ID, []byte("not an image"))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestReindexAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")

	for _, title := range []string{"One", "Two", "Three"} {
		env.book(t, owner.ID, title, true)
	}

	require.NoError(t, env.index.Rebuild())
	count, err := env.index.DocumentCount()
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, env.books.ReindexAll(ctx))
	count, err = env.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestPaginationDescriptor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com")
	requester := env.user(t, "requester@example.com")

	for i := 0; i < 25; i++ {
		env.book(t, owner.ID, "Stacked", true)
	}

	page, err := env.books.ListDisplayable(ctx, requester.ID, store.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, int64(25), page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.First)
	assert.False(t, page.Last)
}
