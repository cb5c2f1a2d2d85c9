package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	domainerrors "github.com/bookshareapp/bookshare-server/internal/errors"
	"github.com/bookshareapp/bookshare-server/internal/media/images"
	"github.com/bookshareapp/bookshare-server/internal/search"
	"github.com/bookshareapp/bookshare-server/internal/store"
	"github.com/bookshareapp/bookshare-server/internal/validation"
)

// BookService orchestrates catalog operations: registering books, reading
// them back, visibility listings, covers, and search.
type BookService struct {
	store     store.Store
	index     *search.Index
	covers    *images.Processor
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store store.Store, index *search.Index, covers *images.Processor, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		index:     index,
		covers:    covers,
		validator: validator,
		logger:    logger,
	}
}

// SaveBookRequest contains the data to register a book.
type SaveBookRequest struct {
	Title      string `json:"title" validate:"required,max=255"`
	AuthorName string `json:"author_name" validate:"required,max=255"`
	ISBN       string `json:"isbn" validate:"omitempty,max=17"`
	Synopsis   string `json:"synopsis" validate:"omitempty,max=4000"`
	Shareable  bool   `json:"shareable"`
}

// BookWithRating is a book plus its mean feedback note.
type BookWithRating struct {
	*domain.Book
	Rating float64 `json:"rating"`
}

// SaveBook registers a new book owned by ownerID and returns it.
func (s *BookService) SaveBook(ctx context.Context, ownerID domain.PrincipalID, req SaveBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book := &domain.Book{
		OwnerID:    ownerID,
		Title:      req.Title,
		AuthorName: req.AuthorName,
		ISBN:       req.ISBN,
		Synopsis:   req.Synopsis,
		Shareable:  req.Shareable,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	if err := s.index.IndexBook(book); err != nil {
		// The catalog row is authoritative; a missed index entry costs a
		// search hit, not data.
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}

	s.logger.Info("book registered", "book_id", book.ID, "owner_id", ownerID, "title", book.Title)
	return book, nil
}

// FindBookByID returns a single book with its mean feedback rating.
func (s *BookService) FindBookByID(ctx context.Context, bookID int64) (*BookWithRating, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFoundf("no book found with id %d", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	rating, err := s.store.BookRating(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("book rating: %w", err)
	}

	return &BookWithRating{Book: book, Rating: rating}, nil
}

// ListDisplayable returns the page of books the requester may browse:
// shareable, unarchived books owned by other members.
func (s *BookService) ListDisplayable(ctx context.Context, requester domain.PrincipalID, req store.PageRequest) (*store.Page[*domain.Book], error) {
	page, err := s.store.ListBooks(ctx, store.DisplayableTo(requester), req)
	if err != nil {
		return nil, fmt.Errorf("list displayable books: %w", err)
	}
	return page, nil
}

// ListOwned returns the page of books the owner registered, regardless of
// shareable or archived state.
func (s *BookService) ListOwned(ctx context.Context, owner domain.PrincipalID, req store.PageRequest) (*store.Page[*domain.Book], error) {
	page, err := s.store.ListBooks(ctx, store.OwnedBy(owner), req)
	if err != nil {
		return nil, fmt.Errorf("list owned books: %w", err)
	}
	return page, nil
}

// UploadCover processes and attaches a cover image to a book the user owns.
// A previous cover is removed from storage after the new one is saved.
func (s *BookService) UploadCover(ctx context.Context, bookID int64, userID domain.PrincipalID, data []byte) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFoundf("no book found with id %d", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	if !book.OwnedBy(userID) {
		return nil, domainerrors.NotPermitted("you cannot update the cover of a book you do not own")
	}

	cover, err := s.covers.Process(data)
	if err != nil {
		return nil, domainerrors.Validation("the uploaded file is not a supported image").WithCause(err)
	}

	previous := book.Cover
	book.Cover = cover
	book.Touch()
	if err := s.store.UpdateBook(ctx, book); err != nil {
		// Roll back the orphaned file.
		if removeErr := s.covers.Remove(cover); removeErr != nil {
			s.logger.Warn("failed to remove orphaned cover", "path", cover.Path, "error", removeErr)
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	if previous != nil {
		if err := s.covers.Remove(previous); err != nil {
			s.logger.Warn("failed to remove replaced cover", "path", previous.Path, "error", err)
		}
	}

	s.logger.Info("cover uploaded", "book_id", bookID, "path", cover.Path)
	return book, nil
}

// Search runs a full-text query over the catalog and returns the matching
// books the requester is allowed to see, in relevance order.
func (s *BookService) Search(ctx context.Context, requester domain.PrincipalID, params search.Params) ([]*BookSearchHit, error) {
	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	books, err := s.store.GetBooksByIDs(ctx, result.BookIDs())
	if err != nil {
		return nil, fmt.Errorf("resolve search hits: %w", err)
	}
	byID := make(map[int64]*domain.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}

	filter := store.DisplayableTo(requester)
	hits := make([]*BookSearchHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		book, ok := byID[hit.BookID]
		if !ok || !filter.Allows(book) {
			continue
		}
		hits = append(hits, &BookSearchHit{
			Book:       book,
			Score:      hit.Score,
			Highlights: hit.Highlights,
		})
	}
	return hits, nil
}

// BookSearchHit is a search result the requester may see.
type BookSearchHit struct {
	Book       *domain.Book      `json:"book"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// ReindexAll rebuilds the search index from the catalog. Used on startup
// when the index was recreated with a new mapping.
func (s *BookService) ReindexAll(ctx context.Context) error {
	const pageSize = store.MaxPageSize

	for page := 0; ; page++ {
		result, err := s.store.ListBooks(ctx, store.BookFilter{}, store.PageRequest{Page: page, Size: pageSize})
		if err != nil {
			return fmt.Errorf("list books for reindex: %w", err)
		}
		if len(result.Items) == 0 {
			break
		}
		if err := s.index.IndexBooks(result.Items); err != nil {
			return fmt.Errorf("index books: %w", err)
		}
		if result.Last {
			break
		}
	}
	return nil
}

// IndexedCount returns the number of books in the search index.
func (s *BookService) IndexedCount() (uint64, error) {
	return s.index.DocumentCount()
}
