// Package main provides a tool to seed the catalog with demo sharing data.
//
// This creates a handful of demo users, a shelf of shareable books for each,
// and realistic feedback and borrow activity to exercise the lending flows.
//
// Usage:
//
//	DATA_PATH=~/bookshare/data go run ./cmd/seed
//	DATA_PATH=~/bookshare/data go run ./cmd/seed --with-activity  # Also create borrows and feedback
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/bookshareapp/bookshare-server/internal/auth"
	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/id"
	"github.com/bookshareapp/bookshare-server/internal/store/sqlite"
)

var withActivity = flag.Bool("with-activity", false, "Create borrow histories and feedback between demo users")

// demoUsers are the accounts created by the seeder. All share the same password.
var demoUsers = []struct {
	FirstName string
	LastName  string
	Email     string
}{
	{"Alex", "Rivera", "alex@example.com"},
	{"Jordan", "Chen", "jordan@example.com"},
	{"Sam", "Taylor", "sam@example.com"},
	{"Casey", "Morgan", "casey@example.com"},
}

// demoBooks is a small public-domain shelf split across the demo users.
var demoBooks = []struct {
	Title  string
	Author string
	ISBN   string
}{
	{"The Count of Monte Cristo", "Alexandre Dumas", "9780140449266"},
	{"Germinal", "Emile Zola", "9780140447422"},
	{"Jane Eyre", "Charlotte Bronte", "9780141441146"},
	{"Moby-Dick", "Herman Melville", "9780142437247"},
	{"The Brothers Karamazov", "Fyodor Dostoevsky", "9780374528379"},
	{"Middlemarch", "George Eliot", "9780141439549"},
	{"The Picture of Dorian Gray", "Oscar Wilde", "9780141439570"},
	{"Wuthering Heights", "Emily Bronte", "9780141439556"},
	{"Frankenstein", "Mary Shelley", "9780141439471"},
	{"Dracula", "Bram Stoker", "9780141439846"},
	{"Great Expectations", "Charles Dickens", "9780141439563"},
	{"Anna Karenina", "Leo Tolstoy", "9780143035008"},
}

var feedbackComments = []string{
	"Could not put it down.",
	"Slow start but worth the patience.",
	"A classic for a reason.",
	"Not my favourite, the middle chapters drag.",
	"Read it twice already.",
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/bookshare/data")
	}

	dbPath := filepath.Join(dataPath, "bookshare.db")
	fmt.Printf("Opening catalog at: %s\n", dbPath)

	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	users := createDemoUsers(ctx, s)
	if len(users) == 0 {
		log.Fatal("No demo users available, nothing to seed")
	}

	books := createDemoBooks(ctx, s, users)

	if *withActivity {
		createDemoActivity(ctx, s, users, books)
	}

	fmt.Println("\nSeeding complete!")
}

// createDemoUsers inserts the demo accounts, skipping any that already exist.
func createDemoUsers(ctx context.Context, s *sqlite.Store) []*domain.User {
	fmt.Println("\n=== Creating Demo Users ===")

	passwordHash, err := auth.HashPassword("readmore123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	var users []*domain.User
	for _, du := range demoUsers {
		if existing, err := s.GetUserByEmail(ctx, du.Email); err == nil {
			fmt.Printf("  User %s already exists, skipping\n", du.Email)
			users = append(users, existing)
			continue
		}

		user := &domain.User{
			ID:           domain.PrincipalID(id.MustGenerate("user")),
			Email:        du.Email,
			PasswordHash: passwordHash,
			FirstName:    du.FirstName,
			LastName:     du.LastName,
		}
		user.InitTimestamps()

		if err := s.CreateUser(ctx, user); err != nil {
			log.Printf("  Failed to create user %s: %v", du.Email, err)
			continue
		}

		fmt.Printf("  Created user: %s (%s)\n", user.FullName(), user.Email)
		users = append(users, user)
	}

	return users
}

// createDemoBooks deals the demo shelf out across the users round-robin.
// Roughly one book in six stays private to show the visibility rules.
func createDemoBooks(ctx context.Context, s *sqlite.Store, users []*domain.User) []*domain.Book {
	fmt.Println("\n=== Creating Demo Books ===")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var books []*domain.Book
	for i, db := range demoBooks {
		owner := users[i%len(users)]

		book := &domain.Book{
			OwnerID:    owner.ID,
			Title:      db.Title,
			AuthorName: db.Author,
			ISBN:       db.ISBN,
			Shareable:  rng.Intn(6) > 0,
		}
		book.InitTimestamps()

		if err := s.CreateBook(ctx, book); err != nil {
			log.Printf("  Failed to create book %q: %v", db.Title, err)
			continue
		}

		status := "shareable"
		if !book.Shareable {
			status = "private"
		}
		fmt.Printf("  Created book: %s by %s (owner %s, %s)\n", book.Title, book.AuthorName, owner.Email, status)
		books = append(books, book)
	}

	return books
}

// createDemoActivity borrows a few shareable books between users and leaves
// feedback on them. Some borrows are returned and approved, some left open.
func createDemoActivity(ctx context.Context, s *sqlite.Store, users []*domain.User, books []*domain.Book) {
	fmt.Println("\n=== Creating Demo Activity ===")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()

	for _, book := range books {
		if !book.Shareable {
			continue
		}

		// Pick a borrower who does not own the book
		var borrower *domain.User
		for _, u := range users {
			if u.ID != book.OwnerID {
				borrower = u
				break
			}
		}
		if borrower == nil {
			continue
		}

		// A third of the shareable shelf stays on its owner's shelf
		if rng.Intn(3) == 0 {
			continue
		}

		history := &domain.BookTransactionHistory{
			BookID:     book.ID,
			BorrowerID: borrower.ID,
		}
		history.CreatedAt = now.AddDate(0, 0, -rng.Intn(30))
		history.UpdatedAt = history.CreatedAt

		// Half the borrows have completed the full return cycle
		if rng.Intn(2) == 0 {
			history.Returned = true
			history.ReturnApproved = true
		}

		if err := s.CreateHistory(ctx, history); err != nil {
			log.Printf("  Failed to create borrow for %q: %v", book.Title, err)
			continue
		}

		action := "borrowed"
		if history.ReturnApproved {
			action = "borrowed and returned"
		}
		fmt.Printf("  %s %s %q\n", borrower.Email, action, book.Title)

		// Completed borrows earn a piece of feedback
		if !history.ReturnApproved {
			continue
		}

		feedback := &domain.Feedback{
			BookID:  book.ID,
			UserID:  borrower.ID,
			Note:    float64(2+rng.Intn(7)) / 2,
			Comment: feedbackComments[rng.Intn(len(feedbackComments))],
		}
		feedback.InitTimestamps()

		if err := s.CreateFeedback(ctx, feedback); err != nil {
			log.Printf("  Failed to create feedback for %q: %v", book.Title, err)
			continue
		}

		fmt.Printf("    Feedback on %q: %.1f stars\n", book.Title, feedback.Note)
	}
}
