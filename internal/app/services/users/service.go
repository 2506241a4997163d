// Package users implements registration and credential checks.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/readingroom/bookreviews/internal/app/domain/user"
	"github.com/readingroom/bookreviews/internal/app/storage"
	"github.com/readingroom/bookreviews/pkg/logger"
)

// ValidationError is a user-facing failure surfaced as a flash message,
// never as a server error.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrUsernameRequired  = ValidationError("Username is required.")
	ErrPasswordRequired  = ValidationError("Password is required.")
	ErrUnknownUser       = ValidationError("Incorrect username.")
	ErrIncorrectPassword = ValidationError("Incorrect password.")
)

// Service manages user accounts.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// Register creates a new account. Checks run in order and stop at the first
// failure: empty username, empty password, name already taken.
func (s *Service) Register(ctx context.Context, name, password string) (user.User, error) {
	if name == "" {
		return user.User{}, ErrUsernameRequired
	}
	if password == "" {
		return user.User{}, ErrPasswordRequired
	}

	_, err := s.store.GetUserByName(ctx, name)
	switch {
	case err == nil:
		return user.User{}, ValidationError(fmt.Sprintf("User %s is already registered.", name))
	case !errors.Is(err, sql.ErrNoRows):
		return user.User{}, fmt.Errorf("check username: %w", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{Name: name, Password: password})
	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.WithField("user_id", created.ID).WithField("name", created.Name).Info("user registered")
	return created, nil
}

// Authenticate looks the user up by name and compares the submitted password
// with plain equality. Unknown name and wrong password keep their distinct
// messages to match the historical login form behaviour.
func (s *Service) Authenticate(ctx context.Context, name, password string) (user.User, error) {
	u, err := s.store.GetUserByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, ErrUnknownUser
	}
	if err != nil {
		return user.User{}, fmt.Errorf("look up user: %w", err)
	}

	if password != u.Password {
		return user.User{}, ErrIncorrectPassword
	}

	s.log.WithField("user_id", u.ID).Info("user authenticated")
	return u, nil
}

// GetByID fetches a user row. sql.ErrNoRows passes through so the
// authentication gate can treat a stale session as anonymous.
func (s *Service) GetByID(ctx context.Context, id string) (user.User, error) {
	return s.store.GetUser(ctx, id)
}
