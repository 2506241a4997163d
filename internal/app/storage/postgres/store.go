package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/readingroom/bookreviews/internal/app/domain/book"
	"github.com/readingroom/bookreviews/internal/app/domain/review"
	"github.com/readingroom/bookreviews/internal/app/domain/user"
	"github.com/readingroom/bookreviews/internal/app/storage"
)

// uniqueViolation is the postgres error code raised when the
// reviews_user_isbn_key constraint rejects a second review.
const uniqueViolation = "23505"

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, password, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.ID, u.Name, u.Password, u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, password, created_at
		FROM users
		WHERE id = $1
	`, id)

	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Password, &u.CreatedAt); err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByName(ctx context.Context, name string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, password, created_at
		FROM users
		WHERE name = $1
	`, name)

	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Password, &u.CreatedAt); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- BookStore --------------------------------------------------------------

func (s *Store) GetBook(ctx context.Context, isbn string) (book.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT isbn, title, author, year
		FROM books
		WHERE isbn = $1
	`, isbn)

	var b book.Book
	if err := row.Scan(&b.ISBN, &b.Title, &b.Author, &b.Year); err != nil {
		return book.Book{}, err
	}
	return b, nil
}

func (s *Store) SearchBooks(ctx context.Context, pattern string) ([]book.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT isbn, title, author, year
		FROM books
		WHERE isbn LIKE $1 OR title LIKE $1 OR author LIKE $1
		ORDER BY title
	`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []book.Book
	for rows.Next() {
		var b book.Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.Year); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// --- ReviewStore ------------------------------------------------------------

func (s *Store) CreateReview(ctx context.Context, rev review.Review) (review.Review, error) {
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	rev.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, isbn, user_id, rating, review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rev.ID, rev.ISBN, rev.UserID, rev.Rating, rev.Text, rev.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return review.Review{}, storage.ErrDuplicateReview
		}
		return review.Review{}, err
	}
	return rev, nil
}

func (s *Store) ListReviews(ctx context.Context, isbn string) ([]review.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, isbn, user_id, rating, review, created_at
		FROM reviews
		WHERE isbn = $1
		ORDER BY created_at
	`, isbn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []review.Review
	for rows.Next() {
		var rev review.Review
		if err := rows.Scan(&rev.ID, &rev.ISBN, &rev.UserID, &rev.Rating, &rev.Text, &rev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rev)
	}
	return result, rows.Err()
}

func (s *Store) HasReview(ctx context.Context, userID, isbn string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reviews WHERE user_id = $1 AND isbn = $2
		)
	`, userID, isbn)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) ReviewSummary(ctx context.Context, isbn string) (review.Summary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT books.isbn, books.title, books.author, books.year,
		       COUNT(reviews.rating) AS review_count,
		       TO_CHAR(AVG(reviews.rating), 'FM999.00') AS average_score
		FROM books
		INNER JOIN reviews ON books.isbn = reviews.isbn
		WHERE books.isbn = $1
		GROUP BY books.isbn, books.title, books.author, books.year
	`, isbn)

	var sum review.Summary
	if err := row.Scan(&sum.ISBN, &sum.Title, &sum.Author, &sum.Year, &sum.ReviewCount, &sum.AverageScore); err != nil {
		return review.Summary{}, err
	}
	return sum, nil
}
