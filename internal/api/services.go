package api

import (
	"github.com/bookshareapp/bookshare-server/internal/media/images"
	"github.com/bookshareapp/bookshare-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth     *service.AuthService
	Book     *service.BookService
	Lending  *service.LendingService
	Feedback *service.FeedbackService
}

// StorageServices groups file storage handlers used by the API server.
type StorageServices struct {
	Covers *images.Storage // Book cover images
}
