// Package service provides the business logic layer for the book catalog
// and its lending workflow.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	domainerrors "github.com/bookshareapp/bookshare-server/internal/errors"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

// LendingService orchestrates the borrow/return/approve lifecycle.
//
// Every mutation runs inside a single store transaction so the checks and
// the write are atomic; the store's schema additionally rejects a second
// open borrow on the same book should two requests race past the checks.
type LendingService struct {
	store  store.Store
	logger *slog.Logger
}

// NewLendingService creates a new lending service.
func NewLendingService(store store.Store, logger *slog.Logger) *LendingService {
	return &LendingService{
		store:  store,
		logger: logger,
	}
}

// BorrowedBook pairs a borrow record with the book it concerns.
type BorrowedBook struct {
	HistoryID      int64        `json:"history_id"`
	Book           *domain.Book `json:"book"`
	Returned       bool         `json:"returned"`
	ReturnApproved bool         `json:"return_approved"`
}

// BorrowBook records userID borrowing the book. The checks run in a fixed
// order so the caller always gets the most specific failure:
// existence, lendability, ownership, own open borrow, anyone's open borrow.
// Returns the new history ID.
func (s *LendingService) BorrowBook(ctx context.Context, bookID int64, userID domain.PrincipalID) (int64, error) {
	var historyID int64

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				return domainerrors.NotFoundf("no book found with id %d", bookID)
			}
			return fmt.Errorf("get book: %w", err)
		}

		if !book.Lendable() {
			return domainerrors.NotPermitted("the requested book cannot be borrowed since it is archived or not shareable")
		}
		if book.OwnedBy(userID) {
			return domainerrors.NotPermitted("you cannot borrow your own book")
		}

		alreadyBorrowed, err := tx.ExistsActiveBorrowByUser(ctx, bookID, userID)
		if err != nil {
			return fmt.Errorf("check user borrow: %w", err)
		}
		if alreadyBorrowed {
			return domainerrors.NotPermitted("you already borrowed this book and it is still not returned or the return is not approved by the owner")
		}

		borrowed, err := tx.ExistsActiveBorrow(ctx, bookID)
		if err != nil {
			return fmt.Errorf("check book borrow: %w", err)
		}
		if borrowed {
			return domainerrors.NotPermitted("the requested book is already borrowed")
		}

		history := &domain.BookTransactionHistory{
			BookID:     bookID,
			BorrowerID: userID,
		}
		history.InitTimestamps()

		if err := tx.CreateHistory(ctx, history); err != nil {
			if errors.Is(err, store.ErrActiveBorrowExists) {
				// Lost a race with a concurrent borrow.
				return domainerrors.NotPermitted("the requested book is already borrowed")
			}
			return fmt.Errorf("create history: %w", err)
		}

		historyID = history.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("book borrowed", "book_id", bookID, "user_id", userID, "history_id", historyID)
	return historyID, nil
}

// ReturnBorrowedBook marks the user's open borrow as returned. The borrow
// stays open until the owner approves; only then may the book circulate
// again.
func (s *LendingService) ReturnBorrowedBook(ctx context.Context, bookID int64, userID domain.PrincipalID) (int64, error) {
	var historyID int64

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				return domainerrors.NotFoundf("no book found with id %d", bookID)
			}
			return fmt.Errorf("get book: %w", err)
		}

		if !book.Lendable() {
			return domainerrors.NotPermitted("the requested book is archived or not shareable")
		}
		if book.OwnedBy(userID) {
			return domainerrors.NotPermitted("you cannot borrow or return your own book")
		}

		history, err := tx.FindActiveBorrow(ctx, bookID, userID)
		if err != nil {
			if errors.Is(err, store.ErrHistoryNotFound) {
				return domainerrors.NotPermitted("you did not borrow this book")
			}
			return fmt.Errorf("find active borrow: %w", err)
		}

		history.MarkReturned()
		if err := tx.UpdateHistory(ctx, history); err != nil {
			return fmt.Errorf("update history: %w", err)
		}

		historyID = history.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("book returned", "book_id", bookID, "user_id", userID, "history_id", historyID)
	return historyID, nil
}

// ApproveReturnBorrowedBook closes a returned borrow. Only the book's
// owner may approve, and only after the borrower has returned the book.
func (s *LendingService) ApproveReturnBorrowedBook(ctx context.Context, bookID int64, ownerID domain.PrincipalID) (int64, error) {
	var historyID int64

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				return domainerrors.NotFoundf("no book found with id %d", bookID)
			}
			return fmt.Errorf("get book: %w", err)
		}

		if !book.Lendable() {
			return domainerrors.NotPermitted("the requested book is archived or not shareable")
		}
		if !book.OwnedBy(ownerID) {
			return domainerrors.NotPermitted("you cannot approve the return of a book you do not own")
		}

		history, err := tx.FindReturnedUnapproved(ctx, bookID, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrHistoryNotFound) {
				return domainerrors.NotPermitted("the book is not returned yet. you cannot approve its return")
			}
			return fmt.Errorf("find returned borrow: %w", err)
		}

		if !history.ApproveReturn() {
			return domainerrors.NotPermitted("the book is not returned yet. you cannot approve its return")
		}
		if err := tx.UpdateHistory(ctx, history); err != nil {
			return fmt.Errorf("update history: %w", err)
		}

		historyID = history.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("return approved", "book_id", bookID, "owner_id", ownerID, "history_id", historyID)
	return historyID, nil
}

// UpdateShareableStatus toggles the book's shareable flag. Owner only; the
// toggle is unconditional, so flipping twice restores the original state.
func (s *LendingService) UpdateShareableStatus(ctx context.Context, bookID int64, userID domain.PrincipalID) (*domain.Book, error) {
	return s.toggleBookFlag(ctx, bookID, userID,
		"you cannot update others books shareable status",
		func(book *domain.Book) { book.Shareable = !book.Shareable })
}

// UpdateArchivedStatus toggles the book's archived flag. Owner only.
// Archiving does not disturb an open borrow; it only blocks new ones.
func (s *LendingService) UpdateArchivedStatus(ctx context.Context, bookID int64, userID domain.PrincipalID) (*domain.Book, error) {
	return s.toggleBookFlag(ctx, bookID, userID,
		"you cannot update others books archived status",
		func(book *domain.Book) { book.Archived = !book.Archived })
}

func (s *LendingService) toggleBookFlag(ctx context.Context, bookID int64, userID domain.PrincipalID, denyMsg string, flip func(*domain.Book)) (*domain.Book, error) {
	var updated *domain.Book

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		book, err := tx.GetBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, store.ErrBookNotFound) {
				return domainerrors.NotFoundf("no book found with id %d", bookID)
			}
			return fmt.Errorf("get book: %w", err)
		}

		if !book.OwnedBy(userID) {
			return domainerrors.NotPermitted(denyMsg)
		}

		flip(book)
		book.Touch()
		if err := tx.UpdateBook(ctx, book); err != nil {
			return fmt.Errorf("update book: %w", err)
		}

		updated = book
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListBorrowed returns a page of books the user currently or previously
// borrowed, newest borrow first.
func (s *LendingService) ListBorrowed(ctx context.Context, userID domain.PrincipalID, req store.PageRequest) (*store.Page[*BorrowedBook], error) {
	histories, err := s.store.ListBorrowedByUser(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("list borrowed: %w", err)
	}
	return s.attachBooks(ctx, histories)
}

// ListReturned returns a page of the user's returned borrows, newest first.
func (s *LendingService) ListReturned(ctx context.Context, userID domain.PrincipalID, req store.PageRequest) (*store.Page[*BorrowedBook], error) {
	histories, err := s.store.ListReturnedByUser(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("list returned: %w", err)
	}
	return s.attachBooks(ctx, histories)
}

// attachBooks resolves the book behind each history, preserving the page
// metadata of the history query.
func (s *LendingService) attachBooks(ctx context.Context, histories *store.Page[*domain.BookTransactionHistory]) (*store.Page[*BorrowedBook], error) {
	ids := make([]int64, 0, len(histories.Items))
	for _, h := range histories.Items {
		ids = append(ids, h.BookID)
	}

	books, err := s.store.GetBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get books: %w", err)
	}
	byID := make(map[int64]*domain.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	items := make([]*BorrowedBook, 0, len(histories.Items))
	for _, h := range histories.Items {
		book, ok := byID[h.BookID]
		if !ok {
			// Book row deleted out from under the history; skip rather
			// than fail the whole page.
			continue
		}
		items = append(items, &BorrowedBook{
			HistoryID:      h.ID,
			Book:           book,
			Returned:       h.Returned,
			ReturnApproved: h.ReturnApproved,
		})
	}

	return &store.Page[*BorrowedBook]{
		Items:         items,
		Number:        histories.Number,
		Size:          histories.Size,
		TotalElements: histories.TotalElements,
		TotalPages:    histories.TotalPages,
		First:         histories.First,
		Last:          histories.Last,
	}, nil
}
