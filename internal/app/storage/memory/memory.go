package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/readingroom/bookreviews/internal/app/domain/book"
	"github.com/readingroom/bookreviews/internal/app/domain/review"
	"github.com/readingroom/bookreviews/internal/app/domain/user"
	"github.com/readingroom/bookreviews/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	users       map[string]user.User
	usersByName map[string]string
	books       map[string]book.Book
	reviews     map[string][]review.Review
	reviewPairs map[string]bool
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:      1,
		users:       make(map[string]user.User),
		usersByName: make(map[string]string),
		books:       make(map[string]book.Book),
		reviews:     make(map[string][]review.Review),
		reviewPairs: make(map[string]bool),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByName[u.Name]; taken {
		return user.User{}, fmt.Errorf("user %s already exists", u.Name)
	}
	if u.ID == "" {
		u.ID = s.nextIDLocked()
	}
	u.CreatedAt = time.Now().UTC()

	s.users[u.ID] = u
	s.usersByName[u.Name] = u.ID
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *Store) GetUserByName(_ context.Context, name string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByName[name]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return s.users[id], nil
}

// BookStore implementation ----------------------------------------------------

// SeedBook inserts a catalog row. The relational schema seeds books via
// migrations; tests and local runs seed through this helper instead.
func (s *Store) SeedBook(b book.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ISBN] = b
}

func (s *Store) GetBook(_ context.Context, isbn string) (book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[isbn]
	if !ok {
		return book.Book{}, sql.ErrNoRows
	}
	return b, nil
}

func (s *Store) SearchBooks(_ context.Context, pattern string) ([]book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.Trim(pattern, "%")
	var result []book.Book
	for _, b := range s.books {
		if strings.Contains(b.ISBN, needle) ||
			strings.Contains(b.Title, needle) ||
			strings.Contains(b.Author, needle) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ISBN < result[j].ISBN })
	return result, nil
}

// ReviewStore implementation --------------------------------------------------

func pairKey(userID, isbn string) string { return userID + "\x00" + isbn }

func (s *Store) CreateReview(_ context.Context, rev review.Review) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(rev.UserID, rev.ISBN)
	if s.reviewPairs[key] {
		return review.Review{}, storage.ErrDuplicateReview
	}
	if rev.ID == "" {
		rev.ID = s.nextIDLocked()
	}
	rev.CreatedAt = time.Now().UTC()

	s.reviews[rev.ISBN] = append(s.reviews[rev.ISBN], rev)
	s.reviewPairs[key] = true
	return rev, nil
}

func (s *Store) ListReviews(_ context.Context, isbn string) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs := s.reviews[isbn]
	out := make([]review.Review, len(revs))
	copy(out, revs)
	return out, nil
}

func (s *Store) HasReview(_ context.Context, userID, isbn string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviewPairs[pairKey(userID, isbn)], nil
}

func (s *Store) ReviewSummary(_ context.Context, isbn string) (review.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[isbn]
	if !ok {
		return review.Summary{}, sql.ErrNoRows
	}
	revs := s.reviews[isbn]
	if len(revs) == 0 {
		return review.Summary{}, sql.ErrNoRows
	}

	total := 0
	for _, rev := range revs {
		total += rev.Rating
	}
	avg := float64(total) / float64(len(revs))

	return review.Summary{
		ISBN:         b.ISBN,
		Title:        b.Title,
		Author:       b.Author,
		Year:         b.Year,
		ReviewCount:  len(revs),
		AverageScore: fmt.Sprintf("%.2f", avg),
	}, nil
}
