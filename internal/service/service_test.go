package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookshareapp/bookshare-server/internal/auth"
	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/id"
	"github.com/bookshareapp/bookshare-server/internal/media/images"
	"github.com/bookshareapp/bookshare-server/internal/search"
	"github.com/bookshareapp/bookshare-server/internal/store"
	"github.com/bookshareapp/bookshare-server/internal/store/sessions"
	"github.com/bookshareapp/bookshare-server/internal/store/sqlite"
	"github.com/bookshareapp/bookshare-server/internal/validation"
)

// testEnv bundles the services under test with their backing stores.
type testEnv struct {
	store    *sqlite.Store
	index    *search.Index
	books    *BookService
	lending  *LendingService
	feedback *FeedbackService
	auth     *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	idx, err := search.NewIndex(search.Options{DataPath: dir, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	sessionStore, err := sessions.Open(filepath.Join(dir, "sessions"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { sessionStore.Close() })

	storage, err := images.NewStorage(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(
		"000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
		15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	validator := validation.New()
	covers := images.NewProcessor(storage, logger)

	return &testEnv{
		store:    st,
		index:    idx,
		books:    NewBookService(st, idx, covers, validator, logger),
		lending:  NewLendingService(st, logger),
		feedback: NewFeedbackService(st, validator, logger),
		auth:     NewAuthService(st, sessionStore, tokens, validator, logger),
	}
}

func (e *testEnv) user(t *testing.T, email string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           domain.PrincipalID(id.MustGenerate("user")),
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
	}
	user.InitTimestamps()
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) book(t *testing.T, owner domain.PrincipalID, title string, shareable bool) *domain.Book {
	t.Helper()
	book, err := e.books.SaveBook(context.Background(), owner, SaveBookRequest{
		Title:      title,
		AuthorName: "Some Author",
		Shareable:  shareable,
	})
	require.NoError(t, err)
	return book
}

func pageAll() store.PageRequest {
	return store.PageRequest{Page: 0, Size: store.MaxPageSize}
}
