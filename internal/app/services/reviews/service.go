// Package reviews implements review submission and aggregation.
package reviews

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/readingroom/bookreviews/internal/app/domain/review"
	"github.com/readingroom/bookreviews/internal/app/storage"
	"github.com/readingroom/bookreviews/pkg/logger"
)

var (
	// ErrAlreadyReviewed rejects a second review for the same (user, isbn) pair.
	ErrAlreadyReviewed = errors.New("Error: You already submitted a review for this book.")
	// ErrNoReviews reports that a book has no reviews to aggregate.
	ErrNoReviews = errors.New("no reviews for this book")
)

// Service manages user reviews.
type Service struct {
	store storage.ReviewStore
	log   *logger.Logger
}

// New constructs a review service.
func New(store storage.ReviewStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("reviews")
	}
	return &Service{store: store, log: log}
}

// Submit records one review for the pair. The existence pre-check keeps the
// historical fast path; the store's unique constraint closes the window
// between check and insert under concurrent submissions.
func (s *Service) Submit(ctx context.Context, userID, isbn string, rating int, text string) (review.Review, error) {
	exists, err := s.store.HasReview(ctx, userID, isbn)
	if err != nil {
		return review.Review{}, fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return review.Review{}, ErrAlreadyReviewed
	}

	created, err := s.store.CreateReview(ctx, review.Review{
		ISBN:   isbn,
		UserID: userID,
		Rating: rating,
		Text:   text,
	})
	if errors.Is(err, storage.ErrDuplicateReview) {
		return review.Review{}, ErrAlreadyReviewed
	}
	if err != nil {
		return review.Review{}, fmt.Errorf("create review: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"review_id": created.ID,
		"user_id":   userID,
		"isbn":      isbn,
		"rating":    rating,
	}).Info("review submitted")
	return created, nil
}

// ListByISBN returns every review for a book.
func (s *Service) ListByISBN(ctx context.Context, isbn string) ([]review.Review, error) {
	return s.store.ListReviews(ctx, isbn)
}

// SummaryFor aggregates a book's reviews. ErrNoReviews when none exist yet.
func (s *Service) SummaryFor(ctx context.Context, isbn string) (review.Summary, error) {
	sum, err := s.store.ReviewSummary(ctx, isbn)
	if errors.Is(err, sql.ErrNoRows) {
		return review.Summary{}, ErrNoReviews
	}
	if err != nil {
		return review.Summary{}, fmt.Errorf("review summary: %w", err)
	}
	return sum, nil
}
