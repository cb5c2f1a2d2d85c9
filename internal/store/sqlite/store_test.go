package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/id"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, email string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:           domain.PrincipalID(id.MustGenerate("user")),
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
	}
	user.InitTimestamps()
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newTestBook(t *testing.T, s *Store, owner domain.PrincipalID, title string) *domain.Book {
	t.Helper()
	book := &domain.Book{
		OwnerID:    owner,
		Title:      title,
		AuthorName: "Some Author",
		Shareable:  true,
	}
	book.InitTimestamps()
	if err := s.CreateBook(context.Background(), book); err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	tables := []string{"users", "books", "book_transaction_histories", "feedbacks"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestRunInTransactionCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "owner@example.com")

	var bookID int64
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		book := &domain.Book{OwnerID: owner.ID, Title: "In Tx", AuthorName: "A"}
		book.InitTimestamps()
		if err := tx.CreateBook(ctx, book); err != nil {
			return err
		}
		bookID = book.ID
		return nil
	})
	if err != nil {
		t.Fatalf("run in transaction: %v", err)
	}

	if _, err := s.GetBook(ctx, bookID); err != nil {
		t.Errorf("book not visible after commit: %v", err)
	}
}

func TestRunInTransactionRollback(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "owner@example.com")

	var bookID int64
	sentinel := fmt.Errorf("boom")
	err := s.RunInTransaction(ctx, func(tx store.Store) error {
		book := &domain.Book{OwnerID: owner.ID, Title: "Doomed", AuthorName: "A"}
		book.InitTimestamps()
		if err := tx.CreateBook(ctx, book); err != nil {
			return err
		}
		bookID = book.ID
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	if _, err := s.GetBook(ctx, bookID); err != store.ErrBookNotFound {
		t.Errorf("expected ErrBookNotFound after rollback, got %v", err)
	}
}

func TestOwnerImmutable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "owner@example.com")
	other := newTestUser(t, s, "other@example.com")
	book := newTestBook(t, s, owner.ID, "Fixed Owner")

	_, err := s.db.ExecContext(ctx,
		`UPDATE books SET owner_id = ? WHERE id = ?`, string(other.ID), book.ID)
	if err == nil {
		t.Fatal("expected owner reassignment to fail")
	}

	got, err := s.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.OwnerID != owner.ID {
		t.Errorf("owner changed: got %s, want %s", got.OwnerID, owner.ID)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)
	parsed, err := parseTime(formatTime(now))
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	if !parsed.Equal(now) {
		t.Errorf("round trip mismatch: got %v, want %v", parsed, now)
	}
}
