// Package domain contains the core business entities and lending rules for the BookShare catalog.
package domain

// Book represents a physical book registered in the catalog by its owner.
//
// OwnerID is set once at creation and never changes; the storage layer
// enforces this with an immutability trigger in addition to the service rules.
type Book struct {
	Timestamps
	ID         int64       `json:"id"`
	OwnerID    PrincipalID `json:"owner_id"`
	Title      string      `json:"title"`
	AuthorName string      `json:"author_name"`
	ISBN       string      `json:"isbn,omitempty"`
	Synopsis   string      `json:"synopsis,omitempty"`
	Shareable  bool        `json:"shareable"`
	Archived   bool        `json:"archived"`
	Cover      *CoverImage `json:"cover,omitempty"`
}

// CoverImage describes a stored cover picture for a book.
// Path is the opaque reference returned by the file storage service.
type CoverImage struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BlurHash string `json:"blur_hash,omitempty"`
}

// OwnedBy reports whether the given principal owns this book.
func (b *Book) OwnedBy(p PrincipalID) bool {
	return b.OwnerID.Equals(p)
}

// Lendable reports whether the book may participate in lending actions at all.
// Archived suppresses lending regardless of the shareable flag.
func (b *Book) Lendable() bool {
	return b.Shareable && !b.Archived
}
