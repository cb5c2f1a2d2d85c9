package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	domainerrors "github.com/bookshareapp/bookshare-server/internal/errors"
	"github.com/bookshareapp/bookshare-server/internal/store"
	"github.com/bookshareapp/bookshare-server/internal/validation"
)

// FeedbackService manages reader feedback on shared books.
type FeedbackService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(store store.Store, validator *validation.Validator, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// SaveFeedbackRequest contains a reader's note and comment for a book.
type SaveFeedbackRequest struct {
	Note    float64 `json:"note" validate:"gte=0,lte=5"`
	Comment string  `json:"comment" validate:"omitempty,max=2000"`
}

// FeedbackEntry is a feedback row plus a marker for the requester's own
// feedback, so clients can highlight it.
type FeedbackEntry struct {
	*domain.Feedback
	OwnFeedback bool `json:"own_feedback"`
}

// SaveFeedback records feedback on a shareable book. Owners cannot rate
// their own books, and archived or private books take no feedback.
func (s *FeedbackService) SaveFeedback(ctx context.Context, bookID int64, userID domain.PrincipalID, req SaveFeedbackRequest) (*domain.Feedback, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFoundf("no book found with id %d", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	if !book.Lendable() {
		return nil, domainerrors.NotPermitted("you cannot give a feedback for an archived or not shareable book")
	}
	if book.OwnedBy(userID) {
		return nil, domainerrors.NotPermitted("you cannot give a feedback to your own book")
	}

	feedback := &domain.Feedback{
		BookID:  bookID,
		UserID:  userID,
		Note:    req.Note,
		Comment: req.Comment,
	}
	feedback.InitTimestamps()

	if err := s.store.CreateFeedback(ctx, feedback); err != nil {
		return nil, fmt.Errorf("create feedback: %w", err)
	}

	s.logger.Info("feedback saved", "book_id", bookID, "user_id", userID, "note", req.Note)
	return feedback, nil
}

// ListFeedback returns a page of a book's feedback, newest first, marking
// entries authored by the requester.
func (s *FeedbackService) ListFeedback(ctx context.Context, bookID int64, requester domain.PrincipalID, req store.PageRequest) (*store.Page[*FeedbackEntry], error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFoundf("no book found with id %d", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	page, err := s.store.ListFeedbackByBook(ctx, bookID, req)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}

	items := make([]*FeedbackEntry, 0, len(page.Items))
	for _, f := range page.Items {
		items = append(items, &FeedbackEntry{
			Feedback:    f,
			OwnFeedback: f.UserID.Equals(requester),
		})
	}

	return &store.Page[*FeedbackEntry]{
		Items:         items,
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
	}, nil
}
