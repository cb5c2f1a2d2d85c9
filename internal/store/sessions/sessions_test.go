package sessions

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/id"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s, err := Open(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("open session store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestSession(userID domain.PrincipalID, tokenHash string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:               id.MustGenerate("sess"),
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		CreatedAt:        now,
		LastUsedAt:       now,
		ExpiresAt:        now.Add(time.Hour),
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := newTestSession("user-1", "hash-a")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := s.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != session.UserID || got.RefreshTokenHash != session.RefreshTokenHash {
		t.Errorf("session mismatch: got %+v", got)
	}

	byToken, err := s.GetByRefreshToken(ctx, "hash-a")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if byToken.ID != session.ID {
		t.Errorf("expected session %s, got %s", session.ID, byToken.ID)
	}
}

func TestSessionTokenRotation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := newTestSession("user-1", "hash-old")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	session.RefreshTokenHash = "hash-new"
	session.LastUsedAt = time.Now()
	if err := s.Update(ctx, session); err != nil {
		t.Fatalf("update session: %v", err)
	}

	if _, err := s.GetByRefreshToken(ctx, "hash-old"); err != ErrSessionNotFound {
		t.Errorf("expected old token invalidated, got %v", err)
	}
	got, err := s.GetByRefreshToken(ctx, "hash-new")
	if err != nil {
		t.Fatalf("get by new token: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("expected session %s, got %s", session.ID, got.ID)
	}
}

func TestSessionDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := newTestSession("user-1", "hash-a")
	if err := s.Create(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := s.Delete(ctx, session.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := s.Get(ctx, session.ID); err != ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := s.GetByRefreshToken(ctx, "hash-a"); err != ErrSessionNotFound {
		t.Errorf("expected token index removed, got %v", err)
	}

	// Deleting again is a no-op.
	if err := s.Delete(ctx, session.ID); err != nil {
		t.Errorf("delete missing session: %v", err)
	}
}

func TestDeleteAllForUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, hash := range []string{"h1", "h2", "h3"} {
		user := domain.PrincipalID("user-a")
		if i == 2 {
			user = "user-b"
		}
		if err := s.Create(ctx, newTestSession(user, hash)); err != nil {
			t.Fatalf("create session %d: %v", i, err)
		}
	}

	if err := s.DeleteAllForUser(ctx, "user-a"); err != nil {
		t.Fatalf("delete all for user: %v", err)
	}

	remaining, err := s.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected no sessions for user-a, got %d", len(remaining))
	}

	others, err := s.ListByUser(ctx, "user-b")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(others) != 1 {
		t.Errorf("expected 1 session for user-b, got %d", len(others))
	}
}

func TestExpiredSessionNotReturned(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := newTestSession("user-1", "hash-exp")
	session.ExpiresAt = time.Now().Add(-time.Minute)
	if err := s.Create(ctx, session); err == nil {
		t.Error("expected create of expired session to fail")
	}
}
