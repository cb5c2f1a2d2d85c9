// Package search provides full-text book search using Bleve.
package search

import (
	"strconv"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/normalize"
)

// BookDocument is the indexed representation of a book.
//
// Title and author are additionally indexed in a diacritic-folded form so
// that "Émile Zola" matches a plain "emile" query.
type BookDocument struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Synopsis   string `json:"synopsis,omitempty"`
	ISBN       string `json:"isbn,omitempty"`
	TitleFold  string `json:"title_fold"`
	AuthorFold string `json:"author_fold"`
	CreatedAt  int64  `json:"created_at"` // Unix millis
}

// NewBookDocument builds the index document for a book.
func NewBookDocument(book *domain.Book) *BookDocument {
	return &BookDocument{
		ID:         strconv.FormatInt(book.ID, 10),
		Title:      book.Title,
		Author:     book.AuthorName,
		Synopsis:   book.Synopsis,
		ISBN:       book.ISBN,
		TitleFold:  normalize.Fold(book.Title),
		AuthorFold: normalize.Fold(book.AuthorName),
		CreatedAt:  book.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names, but the mapping uses
// lowercase names, so we convert explicitly.
func (d *BookDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":          d.ID,
		"title":       d.Title,
		"author":      d.Author,
		"title_fold":  d.TitleFold,
		"author_fold": d.AuthorFold,
		"created_at":  d.CreatedAt,
	}
	if d.Synopsis != "" {
		m["synopsis"] = d.Synopsis
	}
	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	return m
}
