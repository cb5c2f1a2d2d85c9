package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

const bookColumns = `id, created_at, updated_at, owner_id, title, author_name, isbn, synopsis,
	shareable, archived, cover_path, cover_format, cover_width, cover_height, cover_blur_hash`

// scanBook scans a book row into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book
	var createdAt, updatedAt, ownerID string
	var isbn, synopsis, coverPath, coverFormat, coverBlurHash sql.NullString
	var coverWidth, coverHeight sql.NullInt64
	var shareable, archived int

	err := scanner.Scan(&b.ID, &createdAt, &updatedAt, &ownerID, &b.Title, &b.AuthorName,
		&isbn, &synopsis, &shareable, &archived,
		&coverPath, &coverFormat, &coverWidth, &coverHeight, &coverBlurHash)
	if err != nil {
		return nil, err
	}

	b.OwnerID = domain.PrincipalID(ownerID)
	b.ISBN = isbn.String
	b.Synopsis = synopsis.String
	b.Shareable = shareable != 0
	b.Archived = archived != 0
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if coverPath.Valid {
		b.Cover = &domain.CoverImage{
			Path:     coverPath.String,
			Format:   coverFormat.String,
			Width:    int(coverWidth.Int64),
			Height:   int(coverHeight.Int64),
			BlurHash: coverBlurHash.String,
		}
	}
	return &b, nil
}

// coverFields flattens an optional cover into its column values.
func coverFields(c *domain.CoverImage) (path, format sql.NullString, width, height sql.NullInt64, blurHash sql.NullString) {
	if c == nil {
		return
	}
	path = nullString(c.Path)
	format = nullString(c.Format)
	width = sql.NullInt64{Int64: int64(c.Width), Valid: true}
	height = sql.NullInt64{Int64: int64(c.Height), Valid: true}
	blurHash = nullString(c.BlurHash)
	return
}

// CreateBook inserts a new book and assigns its generated ID.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (created_at, updated_at, owner_id, title, author_name, isbn, synopsis,
			shareable, archived, cover_path, cover_format, cover_width, cover_height, cover_blur_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	coverPath, coverFormat, coverWidth, coverHeight, coverBlurHash := coverFields(book.Cover)
	result, err := s.q.ExecContext(ctx, query,
		formatTime(book.CreatedAt), formatTime(book.UpdatedAt), string(book.OwnerID),
		book.Title, book.AuthorName, nullString(book.ISBN), nullString(book.Synopsis),
		boolToInt(book.Shareable), boolToInt(book.Archived),
		coverPath, coverFormat, coverWidth, coverHeight, coverBlurHash)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	book.ID = id
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`
	book, err := scanBook(s.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// UpdateBook updates a book's mutable fields. The owner is never changed;
// a schema trigger rejects owner reassignment outright.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	query := `
		UPDATE books
		SET updated_at = ?, title = ?, author_name = ?, isbn = ?, synopsis = ?,
		    shareable = ?, archived = ?, cover_path = ?, cover_format = ?,
		    cover_width = ?, cover_height = ?, cover_blur_hash = ?
		WHERE id = ?`

	coverPath, coverFormat, coverWidth, coverHeight, coverBlurHash := coverFields(book.Cover)
	result, err := s.q.ExecContext(ctx, query,
		formatTime(book.UpdatedAt), book.Title, book.AuthorName,
		nullString(book.ISBN), nullString(book.Synopsis),
		boolToInt(book.Shareable), boolToInt(book.Archived),
		coverPath, coverFormat, coverWidth, coverHeight, coverBlurHash,
		book.ID)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrBookNotFound
	}
	return nil
}

// ListBooks returns a page of books matching the filter, newest first.
func (s *Store) ListBooks(ctx context.Context, filter store.BookFilter, req store.PageRequest) (*store.Page[*domain.Book], error) {
	req = req.Normalize()

	var conds []string
	var args []any
	if filter.Owner != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, string(filter.Owner))
	}
	if filter.ExcludeOwner != "" {
		conds = append(conds, "owner_id != ?")
		args = append(args, string(filter.ExcludeOwner))
	}
	if filter.LendableOnly {
		conds = append(conds, "shareable = 1 AND archived = 0")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	query := `SELECT ` + bookColumns + ` FROM books` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.q.QueryContext(ctx, query, append(args, req.Size, req.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := make([]*domain.Book, 0, req.Size)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return store.NewPage(books, req, total), nil
}

// GetBooksByIDs retrieves books for the given IDs. Missing IDs are skipped.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []int64) ([]*domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `SELECT ` + bookColumns + ` FROM books WHERE id IN (` + strings.Join(placeholders, ", ") + `)`
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get books by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Book, len(ids))
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		byID[book.ID] = book
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	// Preserve the requested order.
	books := make([]*domain.Book, 0, len(byID))
	for _, id := range ids {
		if book, ok := byID[id]; ok {
			books = append(books, book)
		}
	}
	return books, nil
}
