package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

const historyColumns = `id, created_at, updated_at, book_id, borrower_id, returned, return_approved`

// scanHistory scans a transaction history row.
func scanHistory(scanner interface{ Scan(dest ...any) error }) (*domain.BookTransactionHistory, error) {
	var h domain.BookTransactionHistory
	var createdAt, updatedAt, borrowerID string
	var returned, returnApproved int

	err := scanner.Scan(&h.ID, &createdAt, &updatedAt, &h.BookID, &borrowerID, &returned, &returnApproved)
	if err != nil {
		return nil, err
	}

	h.BorrowerID = domain.PrincipalID(borrowerID)
	h.Returned = returned != 0
	h.ReturnApproved = returnApproved != 0
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &h, nil
}

// CreateHistory inserts a new borrow record and assigns its generated ID.
// The schema allows at most one open history per book, so a racing borrow
// surfaces as ErrActiveBorrowExists.
func (s *Store) CreateHistory(ctx context.Context, history *domain.BookTransactionHistory) error {
	query := `
		INSERT INTO book_transaction_histories (created_at, updated_at, book_id, borrower_id, returned, return_approved)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := s.q.ExecContext(ctx, query,
		formatTime(history.CreatedAt), formatTime(history.UpdatedAt),
		history.BookID, string(history.BorrowerID),
		boolToInt(history.Returned), boolToInt(history.ReturnApproved))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrActiveBorrowExists
		}
		return fmt.Errorf("insert history: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	history.ID = id
	return nil
}

// GetHistory retrieves a transaction history by ID.
func (s *Store) GetHistory(ctx context.Context, id int64) (*domain.BookTransactionHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM book_transaction_histories WHERE id = ?`
	history, err := scanHistory(s.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, store.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return history, nil
}

// UpdateHistory updates a history's return flags.
func (s *Store) UpdateHistory(ctx context.Context, history *domain.BookTransactionHistory) error {
	query := `
		UPDATE book_transaction_histories
		SET updated_at = ?, returned = ?, return_approved = ?
		WHERE id = ?`

	result, err := s.q.ExecContext(ctx, query,
		formatTime(history.UpdatedAt),
		boolToInt(history.Returned), boolToInt(history.ReturnApproved),
		history.ID)
	if err != nil {
		return fmt.Errorf("update history: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrHistoryNotFound
	}
	return nil
}

// ExistsActiveBorrowByUser reports whether the user holds an open borrow
// on the book. A borrow stays open until the owner approves its return.
func (s *Store) ExistsActiveBorrowByUser(ctx context.Context, bookID int64, userID domain.PrincipalID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM book_transaction_histories
			WHERE book_id = ? AND borrower_id = ? AND return_approved = 0
		)`
	var exists int
	if err := s.q.QueryRowContext(ctx, query, bookID, string(userID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active borrow by user: %w", err)
	}
	return exists != 0, nil
}

// ExistsActiveBorrow reports whether anyone holds an open borrow on the book.
func (s *Store) ExistsActiveBorrow(ctx context.Context, bookID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM book_transaction_histories
			WHERE book_id = ? AND return_approved = 0
		)`
	var exists int
	if err := s.q.QueryRowContext(ctx, query, bookID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active borrow: %w", err)
	}
	return exists != 0, nil
}

// FindActiveBorrow retrieves the user's open, not yet returned borrow
// on the book.
func (s *Store) FindActiveBorrow(ctx context.Context, bookID int64, userID domain.PrincipalID) (*domain.BookTransactionHistory, error) {
	query := `SELECT ` + historyColumns + `
		FROM book_transaction_histories
		WHERE book_id = ? AND borrower_id = ? AND returned = 0 AND return_approved = 0`
	history, err := scanHistory(s.q.QueryRowContext(ctx, query, bookID, string(userID)))
	if err == sql.ErrNoRows {
		return nil, store.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find active borrow: %w", err)
	}
	return history, nil
}

// FindReturnedUnapproved retrieves the returned-but-unapproved history on a
// book owned by ownerID. The join enforces that only the owner can see it.
func (s *Store) FindReturnedUnapproved(ctx context.Context, bookID int64, ownerID domain.PrincipalID) (*domain.BookTransactionHistory, error) {
	query := `SELECT h.id, h.created_at, h.updated_at, h.book_id, h.borrower_id, h.returned, h.return_approved
		FROM book_transaction_histories h
		JOIN books b ON b.id = h.book_id
		WHERE h.book_id = ? AND b.owner_id = ? AND h.returned = 1 AND h.return_approved = 0`
	history, err := scanHistory(s.q.QueryRowContext(ctx, query, bookID, string(ownerID)))
	if err == sql.ErrNoRows {
		return nil, store.ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find returned unapproved: %w", err)
	}
	return history, nil
}

// ListBorrowedByUser returns a page of the user's borrow records, newest first.
func (s *Store) ListBorrowedByUser(ctx context.Context, userID domain.PrincipalID, req store.PageRequest) (*store.Page[*domain.BookTransactionHistory], error) {
	return s.listHistoriesByBorrower(ctx, userID, req, "")
}

// ListReturnedByUser returns a page of the user's returned borrow records,
// newest first.
func (s *Store) ListReturnedByUser(ctx context.Context, userID domain.PrincipalID, req store.PageRequest) (*store.Page[*domain.BookTransactionHistory], error) {
	return s.listHistoriesByBorrower(ctx, userID, req, " AND returned = 1")
}

func (s *Store) listHistoriesByBorrower(ctx context.Context, userID domain.PrincipalID, req store.PageRequest, extraCond string) (*store.Page[*domain.BookTransactionHistory], error) {
	req = req.Normalize()

	var total int64
	countQuery := `SELECT COUNT(*) FROM book_transaction_histories WHERE borrower_id = ?` + extraCond
	if err := s.q.QueryRowContext(ctx, countQuery, string(userID)).Scan(&total); err != nil {
		return nil, fmt.Errorf("count histories: %w", err)
	}

	query := `SELECT ` + historyColumns + `
		FROM book_transaction_histories
		WHERE borrower_id = ?` + extraCond + `
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.q.QueryContext(ctx, query, string(userID), req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	defer rows.Close()

	histories := make([]*domain.BookTransactionHistory, 0, req.Size)
	for rows.Next() {
		history, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		histories = append(histories, history)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate histories: %w", err)
	}
	return store.NewPage(histories, req, total), nil
}
