package domain

// Feedback is a rating and comment left on a borrowable book.
type Feedback struct {
	Timestamps
	ID      int64       `json:"id"`
	BookID  int64       `json:"book_id"`
	UserID  PrincipalID `json:"user_id"`
	Note    float64     `json:"note"`
	Comment string      `json:"comment,omitempty"`
}

// Feedback notes are constrained to a 0-5 scale.
const (
	FeedbackNoteMin = 0.0
	FeedbackNoteMax = 5.0
)

// ValidNote reports whether a note falls on the accepted scale.
func ValidNote(note float64) bool {
	return note >= FeedbackNoteMin && note <= FeedbackNoteMax
}
