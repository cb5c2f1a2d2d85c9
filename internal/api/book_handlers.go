package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/search"
	"github.com/bookshareapp/bookshare-server/internal/service"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "saveBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Register a book",
		Description:   "Adds a book to the catalog, owned by the authenticated user",
		Tags:          []string{"Books"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleSaveBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get a book",
		Description: "Returns a single book with its average feedback rating",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "Browse borrowable books",
		Description: "Returns shareable, unarchived books owned by other members",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOwnedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/owner",
		Summary:     "List own books",
		Description: "Returns all books registered by the authenticated user",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListOwnedBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBorrowedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/borrowed",
		Summary:     "List borrowed books",
		Description: "Returns the books the authenticated user currently or previously borrowed",
		Tags:        []string{"Lending"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBorrowedBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReturnedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/returned",
		Summary:     "List returned books",
		Description: "Returns the books the authenticated user has returned",
		Tags:        []string{"Lending"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListReturnedBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/search",
		Summary:     "Search books",
		Description: "Full-text search over borrowable books",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateShareableStatus",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/shareable/{id}",
		Summary:     "Toggle shareable flag",
		Description: "Flips the shareable flag on a book the authenticated user owns",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateShareableStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateArchivedStatus",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/archived/{id}",
		Summary:     "Toggle archived flag",
		Description: "Flips the archived flag on a book the authenticated user owns",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateArchivedStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "borrowBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/borrow/{id}",
		Summary:     "Borrow a book",
		Description: "Borrows a shareable book owned by another member",
		Tags:        []string{"Lending"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleBorrowBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "returnBorrowedBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/borrow/return/{id}",
		Summary:     "Return a borrowed book",
		Description: "Marks the authenticated user's open borrow as returned, pending owner approval",
		Tags:        []string{"Lending"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReturnBorrowedBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "approveReturnBorrowedBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/borrow/return/approve/{id}",
		Summary:     "Approve a return",
		Description: "Closes a returned borrow on a book the authenticated user owns",
		Tags:        []string{"Lending"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleApproveReturnBorrowedBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadBookCover",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/cover/{id}",
		Summary:     "Upload book cover",
		Description: "Uploads a cover image for a book the authenticated user owns",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadBookCover)
}

// === DTOs ===

// SaveBookRequest is the request body for registering a book.
type SaveBookRequest struct {
	Title      string `json:"title" validate:"required,max=255" doc:"Book title"`
	AuthorName string `json:"author_name" validate:"required,max=255" doc:"Author name"`
	ISBN       string `json:"isbn,omitempty" validate:"omitempty,max=17" doc:"ISBN-10 or ISBN-13"`
	Synopsis   string `json:"synopsis,omitempty" validate:"omitempty,max=4000" doc:"Book synopsis"`
	Shareable  bool   `json:"shareable" doc:"Whether the book may be borrowed"`
}

// SaveBookInput wraps the save request for Huma.
type SaveBookInput struct {
	Body SaveBookRequest
}

// CoverResponse describes a stored book cover.
type CoverResponse struct {
	Path     string `json:"path" doc:"Cover path, served under /covers/"`
	Format   string `json:"format" doc:"Image format"`
	Width    int    `json:"width" doc:"Image width in pixels"`
	Height   int    `json:"height" doc:"Image height in pixels"`
	BlurHash string `json:"blur_hash,omitempty" doc:"BlurHash placeholder string"`
}

// BookResponse contains book information in API responses.
type BookResponse struct {
	ID         int64          `json:"id" doc:"Book ID"`
	OwnerID    string         `json:"owner_id" doc:"Owning user ID"`
	Title      string         `json:"title" doc:"Book title"`
	AuthorName string         `json:"author_name" doc:"Author name"`
	ISBN       string         `json:"isbn,omitempty" doc:"ISBN"`
	Synopsis   string         `json:"synopsis,omitempty" doc:"Synopsis"`
	Shareable  bool           `json:"shareable" doc:"Whether the book may be borrowed"`
	Archived   bool           `json:"archived" doc:"Whether the book is archived"`
	Rating     float64        `json:"rating" doc:"Average feedback note, 0 when unrated"`
	Cover      *CoverResponse `json:"cover,omitempty" doc:"Cover image, if uploaded"`
	CreatedAt  time.Time      `json:"created_at" doc:"Creation timestamp"`
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body BookResponse
}

// GetBookInput identifies a book by path parameter.
type GetBookInput struct {
	ID int64 `path:"id" doc:"Book ID"`
}

// PageMeta carries pagination metadata alongside a result slice.
type PageMeta struct {
	Number        int   `json:"number" doc:"Zero-based page index"`
	Size          int   `json:"size" doc:"Page size"`
	TotalElements int64 `json:"total_elements" doc:"Total matching elements"`
	TotalPages    int   `json:"total_pages" doc:"Total pages"`
	First         bool  `json:"first" doc:"Whether this is the first page"`
	Last          bool  `json:"last" doc:"Whether this is the last page"`
}

// BookPageResponse is one page of books.
type BookPageResponse struct {
	Items []BookResponse `json:"items" doc:"Books on this page"`
	PageMeta
}

// BookPageOutput wraps a book page for Huma.
type BookPageOutput struct {
	Body BookPageResponse
}

// ListBooksInput contains pagination parameters for book listings.
type ListBooksInput struct {
	Page int `query:"page" validate:"omitempty,gte=0" doc:"Zero-based page index (default 0)"`
	Size int `query:"size" validate:"omitempty,gte=1,lte=100" doc:"Page size (default 10, max 100)"`
}

// BorrowedBookResponse pairs a borrow record with its book.
type BorrowedBookResponse struct {
	HistoryID      int64        `json:"history_id" doc:"Borrow history ID"`
	Book           BookResponse `json:"book" doc:"The borrowed book"`
	Returned       bool         `json:"returned" doc:"Whether the borrower returned the book"`
	ReturnApproved bool         `json:"return_approved" doc:"Whether the owner approved the return"`
}

// BorrowedPageResponse is one page of borrow records.
type BorrowedPageResponse struct {
	Items []BorrowedBookResponse `json:"items" doc:"Borrow records on this page"`
	PageMeta
}

// BorrowedPageOutput wraps a borrow page for Huma.
type BorrowedPageOutput struct {
	Body BorrowedPageResponse
}

// SearchBooksInput contains parameters for searching the catalog.
type SearchBooksInput struct {
	Query  string `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
}

// SearchHitResponse is a single search result.
type SearchHitResponse struct {
	Book       BookResponse      `json:"book" doc:"Matching book"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchBooksResponse contains search results.
type SearchBooksResponse struct {
	Query string              `json:"query" doc:"Original search query"`
	Total int                 `json:"total" doc:"Number of visible matches"`
	Hits  []SearchHitResponse `json:"hits" doc:"Search results in relevance order"`
}

// SearchBooksOutput wraps search results for Huma.
type SearchBooksOutput struct {
	Body SearchBooksResponse
}

// BorrowInput identifies a book for a lending action.
type BorrowInput struct {
	ID int64 `path:"id" doc:"Book ID"`
}

// HistoryResponse returns the borrow history affected by a lending action.
type HistoryResponse struct {
	HistoryID int64 `json:"history_id" doc:"Borrow history ID"`
}

// HistoryOutput wraps a history reference for Huma.
type HistoryOutput struct {
	Body HistoryResponse
}

// UploadCoverInput carries the raw image bytes for a cover upload.
type UploadCoverInput struct {
	ID      int64 `path:"id" doc:"Book ID"`
	RawBody []byte
}

// === Handlers ===

func (s *Server) handleSaveBook(ctx context.Context, input *SaveBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	req := service.SaveBookRequest{
		Title:      input.Body.Title,
		AuthorName: input.Body.AuthorName,
		ISBN:       input.Body.ISBN,
		Synopsis:   input.Body.Synopsis,
		Shareable:  input.Body.Shareable,
	}

	book, err := s.services.Book.SaveBook(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBook(book, 0)}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Book.FindBookByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBook(book.Book, book.Rating)}, nil
}

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Book.ListDisplayable(ctx, userID, pageRequest(input))
	if err != nil {
		return nil, err
	}

	return &BookPageOutput{Body: mapBookPage(page)}, nil
}

func (s *Server) handleListOwnedBooks(ctx context.Context, input *ListBooksInput) (*BookPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Book.ListOwned(ctx, userID, pageRequest(input))
	if err != nil {
		return nil, err
	}

	return &BookPageOutput{Body: mapBookPage(page)}, nil
}

func (s *Server) handleListBorrowedBooks(ctx context.Context, input *ListBooksInput) (*BorrowedPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Lending.ListBorrowed(ctx, userID, pageRequest(input))
	if err != nil {
		return nil, err
	}

	return &BorrowedPageOutput{Body: mapBorrowedPage(page)}, nil
}

func (s *Server) handleListReturnedBooks(ctx context.Context, input *ListBooksInput) (*BorrowedPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Lending.ListReturned(ctx, userID, pageRequest(input))
	if err != nil {
		return nil, err
	}

	return &BorrowedPageOutput{Body: mapBorrowedPage(page)}, nil
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	params := search.DefaultParams()
	params.Query = input.Query
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset

	hits, err := s.services.Book.Search(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	resp := SearchBooksResponse{
		Query: input.Query,
		Total: len(hits),
		Hits:  make([]SearchHitResponse, 0, len(hits)),
	}
	for _, hit := range hits {
		resp.Hits = append(resp.Hits, SearchHitResponse{
			Book:       mapBook(hit.Book, 0),
			Score:      hit.Score,
			Highlights: hit.Highlights,
		})
	}

	return &SearchBooksOutput{Body: resp}, nil
}

func (s *Server) handleUpdateShareableStatus(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Lending.UpdateShareableStatus(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBook(book, 0)}, nil
}

func (s *Server) handleUpdateArchivedStatus(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Lending.UpdateArchivedStatus(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBook(book, 0)}, nil
}

func (s *Server) handleBorrowBook(ctx context.Context, input *BorrowInput) (*HistoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	historyID, err := s.services.Lending.BorrowBook(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &HistoryOutput{Body: HistoryResponse{HistoryID: historyID}}, nil
}

func (s *Server) handleReturnBorrowedBook(ctx context.Context, input *BorrowInput) (*HistoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	historyID, err := s.services.Lending.ReturnBorrowedBook(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &HistoryOutput{Body: HistoryResponse{HistoryID: historyID}}, nil
}

func (s *Server) handleApproveReturnBorrowedBook(ctx context.Context, input *BorrowInput) (*HistoryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	historyID, err := s.services.Lending.ApproveReturnBorrowedBook(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &HistoryOutput{Body: HistoryResponse{HistoryID: historyID}}, nil
}

func (s *Server) handleUploadBookCover(ctx context.Context, input *UploadCoverInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if len(input.RawBody) == 0 {
		return nil, huma.Error400BadRequest("Request body must contain the image bytes")
	}
	if len(input.RawBody) > MaxUploadSize {
		return nil, huma.NewError(http.StatusRequestEntityTooLarge, "Cover image exceeds the upload limit")
	}

	book, err := s.services.Book.UploadCover(ctx, input.ID, userID, input.RawBody)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBook(book, 0)}, nil
}

// === Helpers ===

func pageRequest(input *ListBooksInput) store.PageRequest {
	return store.PageRequest{Page: input.Page, Size: input.Size}
}

func mapBook(book *domain.Book, rating float64) BookResponse {
	resp := BookResponse{
		ID:         book.ID,
		OwnerID:    book.OwnerID.String(),
		Title:      book.Title,
		AuthorName: book.AuthorName,
		ISBN:       book.ISBN,
		Synopsis:   book.Synopsis,
		Shareable:  book.Shareable,
		Archived:   book.Archived,
		Rating:     rating,
		CreatedAt:  book.CreatedAt,
	}
	if book.Cover != nil {
		resp.Cover = &CoverResponse{
			Path:     book.Cover.Path,
			Format:   book.Cover.Format,
			Width:    book.Cover.Width,
			Height:   book.Cover.Height,
			BlurHash: book.Cover.BlurHash,
		}
	}
	return resp
}

func mapPageMeta[T any](page *store.Page[T]) PageMeta {
	return PageMeta{
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
	}
}

func mapBookPage(page *store.Page[*domain.Book]) BookPageResponse {
	items := make([]BookResponse, 0, len(page.Items))
	for _, book := range page.Items {
		items = append(items, mapBook(book, 0))
	}
	return BookPageResponse{Items: items, PageMeta: mapPageMeta(page)}
}

func mapBorrowedPage(page *store.Page[*service.BorrowedBook]) BorrowedPageResponse {
	items := make([]BorrowedBookResponse, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, BorrowedBookResponse{
			HistoryID:      entry.HistoryID,
			Book:           mapBook(entry.Book, 0),
			Returned:       entry.Returned,
			ReturnApproved: entry.ReturnApproved,
		})
	}
	return BorrowedPageResponse{Items: items, PageMeta: mapPageMeta(page)}
}
