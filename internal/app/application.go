// Package app composes the domain services over their storage dependencies.
// It carries no business logic of its own; that lives in internal/app/services.
package app

import (
	"github.com/readingroom/bookreviews/internal/app/services/catalog"
	"github.com/readingroom/bookreviews/internal/app/services/reviews"
	"github.com/readingroom/bookreviews/internal/app/services/users"
	"github.com/readingroom/bookreviews/internal/app/storage"
	"github.com/readingroom/bookreviews/internal/app/storage/memory"
	"github.com/readingroom/bookreviews/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to a
// shared in-memory implementation.
type Stores struct {
	Users   storage.UserStore
	Books   storage.BookStore
	Reviews storage.ReviewStore
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	Users   *users.Service
	Catalog *catalog.Service
	Reviews *reviews.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Books == nil {
		stores.Books = mem
	}
	if stores.Reviews == nil {
		stores.Reviews = mem
	}

	return &Application{
		log:     log,
		Users:   users.New(stores.Users, log),
		Catalog: catalog.New(stores.Books, log),
		Reviews: reviews.New(stores.Reviews, log),
	}
}
