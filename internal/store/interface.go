// Package store defines the persistence interface for the BookShare server.
package store

import (
	"context"

	"github.com/bookshareapp/bookshare-server/internal/domain"
)

// Store defines the interface for all catalog persistence operations.
//
// Every method is safe for concurrent use. RunInTransaction provides the
// unit-of-work boundary the lending engine relies on: the callback receives a
// Store whose operations all execute inside one transaction, committed if the
// callback returns nil and rolled back otherwise.
type Store interface {
	// Lifecycle
	Close() error

	// RunInTransaction executes fn inside a single transaction.
	// Nested calls are not supported.
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id domain.PrincipalID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	ListBooks(ctx context.Context, filter BookFilter, req PageRequest) (*Page[*domain.Book], error)
	GetBooksByIDs(ctx context.Context, ids []int64) ([]*domain.Book, error)

	// Transaction histories
	CreateHistory(ctx context.Context, history *domain.BookTransactionHistory) error
	GetHistory(ctx context.Context, id int64) (*domain.BookTransactionHistory, error)
	UpdateHistory(ctx context.Context, history *domain.BookTransactionHistory) error
	ExistsActiveBorrowByUser(ctx context.Context, bookID int64, userID domain.PrincipalID) (bool, error)
	ExistsActiveBorrow(ctx context.Context, bookID int64) (bool, error)
	FindActiveBorrow(ctx context.Context, bookID int64, userID domain.PrincipalID) (*domain.BookTransactionHistory, error)
	FindReturnedUnapproved(ctx context.Context, bookID int64, ownerID domain.PrincipalID) (*domain.BookTransactionHistory, error)
	ListBorrowedByUser(ctx context.Context, userID domain.PrincipalID, req PageRequest) (*Page[*domain.BookTransactionHistory], error)
	ListReturnedByUser(ctx context.Context, userID domain.PrincipalID, req PageRequest) (*Page[*domain.BookTransactionHistory], error)

	// Feedback
	CreateFeedback(ctx context.Context, feedback *domain.Feedback) error
	ListFeedbackByBook(ctx context.Context, bookID int64, req PageRequest) (*Page[*domain.Feedback], error)
	BookRating(ctx context.Context, bookID int64) (float64, error)
}
