package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/id"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, s, "alice@example.com")

	got, err := s.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Email != user.Email || got.FirstName != user.FirstName {
		t.Errorf("user mismatch: got %+v", got)
	}
	if !got.LastLoginAt.IsZero() {
		t.Errorf("expected zero last login, got %v", got.LastLoginAt)
	}
}

func TestGetUserByEmailCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, s, "Alice@Example.com")

	got, err := s.GetUserByEmail(ctx, "alice@example.COM")
	if err != nil {
		t.Fatalf("get user by email: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, got.ID)
	}

	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); err != store.ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestUser(t, s, "dup@example.com")

	dup := &domain.User{
		ID:           domain.PrincipalID(id.MustGenerate("user")),
		Email:        "DUP@example.com",
		PasswordHash: "hash",
	}
	dup.InitTimestamps()
	if err := s.CreateUser(ctx, dup); err != store.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUpdateUserLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, s, "login@example.com")
	user.LastLoginAt = time.Now().UTC()
	user.Touch()
	if err := s.UpdateUser(ctx, user); err != nil {
		t.Fatalf("update user: %v", err)
	}

	got, err := s.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !got.LastLoginAt.Equal(user.LastLoginAt) {
		t.Errorf("last login mismatch: got %v, want %v", got.LastLoginAt, user.LastLoginAt)
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	s := newTestStore(t)

	ghost := &domain.User{ID: "user-missing", Email: "ghost@example.com"}
	ghost.InitTimestamps()
	if err := s.UpdateUser(context.Background(), ghost); err != store.ErrUserNotFound {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
