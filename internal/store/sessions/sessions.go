// Package sessions stores refresh-token sessions in a Badger key-value
// database. Entries carry a TTL matching the session expiry, so Badger
// reclaims stale sessions without a cleanup job.
package sessions

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/bookshareapp/bookshare-server/internal/domain"
)

const (
	sessionPrefix        = "session:"
	sessionByTokenPrefix = "idx:session:token:"
	sessionByUserPrefix  = "idx:session:user:"
)

// ErrSessionNotFound is returned when a session does not exist or has expired.
var ErrSessionNotFound = errors.New("session not found")

// Store wraps a Badger database holding refresh-token sessions.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens the session database at the given path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Disable Badger's internal logging
	opts.SyncWrites = true // Sessions must survive a crash

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new session. The entry and its indices expire with the
// session.
func (s *Store) Create(_ context.Context, session *domain.Session) error {
	ttl := session.TTL()
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := []byte(sessionPrefix + session.ID)
	tokenKey := []byte(sessionByTokenPrefix + session.RefreshTokenHash)
	userIndexKey := []byte(sessionByUserPrefix + string(session.UserID) + ":" + session.ID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl)); err != nil {
			return err
		}
		if err := txn.SetEntry(badger.NewEntry(tokenKey, []byte(session.ID)).WithTTL(ttl)); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(userIndexKey, []byte{}).WithTTL(ttl))
	})
}

// Get retrieves a session by ID.
func (s *Store) Get(_ context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired() {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// GetByRefreshToken retrieves a session by its refresh token hash.
// Used during the token refresh flow.
func (s *Store) GetByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var sessionID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionByTokenPrefix + tokenHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			sessionID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("lookup session by token: %w", err)
	}
	return s.Get(ctx, sessionID)
}

// Update rewrites a session, moving the token index when the refresh token
// rotated.
func (s *Store) Update(ctx context.Context, session *domain.Session) error {
	old, err := s.Get(ctx, session.ID)
	if err != nil {
		return err
	}

	ttl := session.TTL()
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	key := []byte(sessionPrefix + session.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl)); err != nil {
			return err
		}
		if old.RefreshTokenHash != session.RefreshTokenHash {
			oldTokenKey := []byte(sessionByTokenPrefix + old.RefreshTokenHash)
			if err := txn.Delete(oldTokenKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			newTokenKey := []byte(sessionByTokenPrefix + session.RefreshTokenHash)
			if err := txn.SetEntry(badger.NewEntry(newTokenKey, []byte(session.ID)).WithTTL(ttl)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a session (logout). Deleting a missing session is not an
// error.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	key := []byte(sessionPrefix + sessionID)

	var session domain.Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("get session for deletion: %w", err)
	}

	tokenKey := []byte(sessionByTokenPrefix + session.RefreshTokenHash)
	userIndexKey := []byte(sessionByUserPrefix + string(session.UserID) + ":" + sessionID)

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(key); err != nil {
			return err
		}
		if err := txn.Delete(tokenKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Delete(userIndexKey); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

// ListByUser returns all live sessions for a user.
func (s *Store) ListByUser(ctx context.Context, userID domain.PrincipalID) ([]*domain.Session, error) {
	prefix := []byte(sessionByUserPrefix + string(userID) + ":")
	var sessions []*domain.Session

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			sessionID := key[strings.LastIndex(key, ":")+1:]

			session, err := s.Get(ctx, sessionID)
			if err != nil {
				if errors.Is(err, ErrSessionNotFound) {
					continue
				}
				return err
			}
			sessions = append(sessions, session)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list user sessions: %w", err)
	}
	return sessions, nil
}

// DeleteAllForUser removes every session a user holds. Used on password
// change to force re-authentication everywhere.
func (s *Store) DeleteAllForUser(ctx context.Context, userID domain.PrincipalID) error {
	sessions, err := s.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list sessions for deletion: %w", err)
	}
	for _, session := range sessions {
		if err := s.Delete(ctx, session.ID); err != nil {
			return fmt.Errorf("delete session %s: %w", session.ID, err)
		}
	}
	return nil
}
