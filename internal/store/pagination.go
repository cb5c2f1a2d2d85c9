package store

// Pagination defaults. Pages are zero-indexed.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest describes which slice of an ordered result set to return.
type PageRequest struct {
	Page int // zero-based page index
	Size int // items per page (defaults to 10 with a maximum of 100)
}

// Normalize returns the request with out-of-range parameters corrected.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the row offset for this request.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page contains one page of results plus the metadata callers need to walk
// the full result set: zero-based page number, page size, total element and
// page counts, and first/last markers.
type Page[T any] struct {
	Items         []T   `json:"items"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// NewPage assembles a page descriptor from a result slice and the total count.
func NewPage[T any](items []T, req PageRequest, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := int((total + int64(req.Size) - 1) / int64(req.Size))

	return &Page[T]{
		Items:         items,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page >= totalPages-1,
	}
}
