package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

const feedbackColumns = `id, created_at, updated_at, book_id, user_id, note, comment`

func scanFeedback(scanner interface{ Scan(dest ...any) error }) (*domain.Feedback, error) {
	var f domain.Feedback
	var createdAt, updatedAt, userID string
	var comment sql.NullString

	err := scanner.Scan(&f.ID, &createdAt, &updatedAt, &f.BookID, &userID, &f.Note, &comment)
	if err != nil {
		return nil, err
	}

	f.UserID = domain.PrincipalID(userID)
	f.Comment = comment.String
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if f.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &f, nil
}

// CreateFeedback inserts a new feedback and assigns its generated ID.
func (s *Store) CreateFeedback(ctx context.Context, feedback *domain.Feedback) error {
	query := `
		INSERT INTO feedbacks (created_at, updated_at, book_id, user_id, note, comment)
		VALUES (?, ?, ?, ?, ?, ?)`

	result, err := s.q.ExecContext(ctx, query,
		formatTime(feedback.CreatedAt), formatTime(feedback.UpdatedAt),
		feedback.BookID, string(feedback.UserID), feedback.Note, nullString(feedback.Comment))
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	feedback.ID = id
	return nil
}

// ListFeedbackByBook returns a page of a book's feedbacks, newest first.
func (s *Store) ListFeedbackByBook(ctx context.Context, bookID int64, req store.PageRequest) (*store.Page[*domain.Feedback], error) {
	req = req.Normalize()

	var total int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedbacks WHERE book_id = ?`, bookID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count feedbacks: %w", err)
	}

	query := `SELECT ` + feedbackColumns + `
		FROM feedbacks
		WHERE book_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.q.QueryContext(ctx, query, bookID, req.Size, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list feedbacks: %w", err)
	}
	defer rows.Close()

	feedbacks := make([]*domain.Feedback, 0, req.Size)
	for rows.Next() {
		feedback, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		feedbacks = append(feedbacks, feedback)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedbacks: %w", err)
	}
	return store.NewPage(feedbacks, req, total), nil
}

// BookRating returns the mean feedback note for a book, or 0 with no feedback.
func (s *Store) BookRating(ctx context.Context, bookID int64) (float64, error) {
	var rating float64
	query := `SELECT COALESCE(AVG(note), 0) FROM feedbacks WHERE book_id = ?`
	if err := s.q.QueryRowContext(ctx, query, bookID).Scan(&rating); err != nil {
		return 0, fmt.Errorf("book rating: %w", err)
	}
	return rating, nil
}
