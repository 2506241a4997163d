package storage

import (
	"context"
	"errors"

	"github.com/readingroom/bookreviews/internal/app/domain/book"
	"github.com/readingroom/bookreviews/internal/app/domain/review"
	"github.com/readingroom/bookreviews/internal/app/domain/user"
)

// UserStore persists registered users. Lookups report a missing row with
// sql.ErrNoRows so callers can distinguish absence from failure.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByName(ctx context.Context, name string) (user.User, error)
}

// BookStore reads the pre-seeded catalog.
type BookStore interface {
	GetBook(ctx context.Context, isbn string) (book.Book, error)
	// SearchBooks matches the pattern against isbn, title and author with a
	// case-sensitive LIKE. The pattern arrives already wildcarded.
	SearchBooks(ctx context.Context, pattern string) ([]book.Book, error)
}

// ReviewStore persists user reviews and serves their aggregates.
type ReviewStore interface {
	CreateReview(ctx context.Context, rev review.Review) (review.Review, error)
	ListReviews(ctx context.Context, isbn string) ([]review.Review, error)
	HasReview(ctx context.Context, userID, isbn string) (bool, error)
	// ReviewSummary joins the book row with its reviews. sql.ErrNoRows when the
	// book has no reviews at all.
	ReviewSummary(ctx context.Context, isbn string) (review.Summary, error)
}

// ErrDuplicateReview is returned by CreateReview when the (user, isbn) pair
// already holds a review. The postgres store maps the unique constraint
// violation onto it; the memory store enforces it directly.
var ErrDuplicateReview = errors.New("review already exists for user and isbn")
