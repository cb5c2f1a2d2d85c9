package store

import "errors"

// Sentinel errors returned by store implementations.
// Services translate these into domain errors; the store layer stays
// transport-agnostic.
var (
	// ErrBookNotFound is returned when a book id does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrHistoryNotFound is returned when no matching transaction history exists.
	ErrHistoryNotFound = errors.New("transaction history not found")

	// ErrUserNotFound is returned when a user id or email does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when creating a user with an email already in use.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrActiveBorrowExists is returned when the storage-level uniqueness
	// constraint rejects a second open history for the same book. It is the
	// second line of defense behind the engine's read-then-check sequence.
	ErrActiveBorrowExists = errors.New("an active borrow already exists for this book")

	// ErrOwnerImmutable is returned when an update attempts to change a book's owner.
	ErrOwnerImmutable = errors.New("book owner is immutable")
)
