// Package catalog serves reads over the pre-seeded book catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/readingroom/bookreviews/internal/app/domain/book"
	"github.com/readingroom/bookreviews/internal/app/storage"
	"github.com/readingroom/bookreviews/pkg/logger"
)

// ErrNoResults reports a search query that matched nothing.
var ErrNoResults = errors.New("Sorry, no books found with this search.")

// Service answers catalog queries.
type Service struct {
	store storage.BookStore
	log   *logger.Logger
	title cases.Caser
}

// New constructs a catalog service.
func New(store storage.BookStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalog")
	}
	return &Service{store: store, log: log, title: cases.Title(language.Und)}
}

// Search title-cases the free-text query, wraps it in wildcards and matches
// it against isbn, title and author. The match is a case-sensitive LIKE, so
// it finds title-cased stored data regardless of the query's casing.
func (s *Service) Search(ctx context.Context, query string) ([]book.Book, error) {
	pattern := "%" + s.title.String(query) + "%"

	books, err := s.store.SearchBooks(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	if len(books) == 0 {
		return nil, ErrNoResults
	}

	s.log.WithField("query", query).WithField("matches", len(books)).Debug("catalog search")
	return books, nil
}

// GetByISBN fetches a single book row by its exact ISBN.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (book.Book, error) {
	return s.store.GetBook(ctx, isbn)
}
