package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshareapp/bookshare-server/internal/service"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

func (s *Server) registerFeedbackRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "saveFeedback",
		Method:        http.MethodPost,
		Path:          "/api/v1/feedbacks",
		Summary:       "Leave feedback",
		Description:   "Records a note and comment on a borrowable book",
		Tags:          []string{"Feedback"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleSaveFeedback)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookFeedback",
		Method:      http.MethodGet,
		Path:        "/api/v1/feedbacks/book/{id}",
		Summary:     "List book feedback",
		Description: "Returns the feedback left on a book, newest first",
		Tags:        []string{"Feedback"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookFeedback)
}

// === DTOs ===

// SaveFeedbackRequest is the request body for leaving feedback.
type SaveFeedbackRequest struct {
	BookID  int64   `json:"book_id" validate:"required" doc:"Book to rate"`
	Note    float64 `json:"note" validate:"gte=0,lte=5" doc:"Rating on a 0-5 scale"`
	Comment string  `json:"comment,omitempty" validate:"omitempty,max=2000" doc:"Free-form comment"`
}

// SaveFeedbackInput wraps the feedback request for Huma.
type SaveFeedbackInput struct {
	Body SaveFeedbackRequest
}

// FeedbackResponse contains one feedback entry.
type FeedbackResponse struct {
	ID          int64     `json:"id" doc:"Feedback ID"`
	BookID      int64     `json:"book_id" doc:"Rated book ID"`
	Note        float64   `json:"note" doc:"Rating on a 0-5 scale"`
	Comment     string    `json:"comment,omitempty" doc:"Free-form comment"`
	OwnFeedback bool      `json:"own_feedback" doc:"Whether the requester left this feedback"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
}

// FeedbackOutput wraps a single feedback entry for Huma.
type FeedbackOutput struct {
	Body FeedbackResponse
}

// ListFeedbackInput identifies a book and a page of its feedback.
type ListFeedbackInput struct {
	ID   int64 `path:"id" doc:"Book ID"`
	Page int   `query:"page" validate:"omitempty,gte=0" doc:"Zero-based page index (default 0)"`
	Size int   `query:"size" validate:"omitempty,gte=1,lte=100" doc:"Page size (default 10, max 100)"`
}

// FeedbackPageResponse is one page of feedback entries.
type FeedbackPageResponse struct {
	Items []FeedbackResponse `json:"items" doc:"Feedback on this page"`
	PageMeta
}

// FeedbackPageOutput wraps a feedback page for Huma.
type FeedbackPageOutput struct {
	Body FeedbackPageResponse
}

// === Handlers ===

func (s *Server) handleSaveFeedback(ctx context.Context, input *SaveFeedbackInput) (*FeedbackOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	req := service.SaveFeedbackRequest{
		Note:    input.Body.Note,
		Comment: input.Body.Comment,
	}

	feedback, err := s.services.Feedback.SaveFeedback(ctx, input.Body.BookID, userID, req)
	if err != nil {
		return nil, err
	}

	return &FeedbackOutput{
		Body: FeedbackResponse{
			ID:          feedback.ID,
			BookID:      feedback.BookID,
			Note:        feedback.Note,
			Comment:     feedback.Comment,
			OwnFeedback: true,
			CreatedAt:   feedback.CreatedAt,
		},
	}, nil
}

func (s *Server) handleListBookFeedback(ctx context.Context, input *ListFeedbackInput) (*FeedbackPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := s.services.Feedback.ListFeedback(ctx, input.ID, userID, store.PageRequest{Page: input.Page, Size: input.Size})
	if err != nil {
		return nil, err
	}

	items := make([]FeedbackResponse, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, FeedbackResponse{
			ID:          entry.ID,
			BookID:      entry.BookID,
			Note:        entry.Note,
			Comment:     entry.Comment,
			OwnFeedback: entry.OwnFeedback,
			CreatedAt:   entry.CreatedAt,
		})
	}

	return &FeedbackPageOutput{
		Body: FeedbackPageResponse{Items: items, PageMeta: mapPageMeta(page)},
	}, nil
}
