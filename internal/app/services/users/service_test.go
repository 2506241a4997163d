package users

import (
	"context"
	"errors"
	"testing"

	"github.com/readingroom/bookreviews/internal/app/storage/memory"
)

func TestRegisterValidationOrder(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "", ""); !errors.Is(err, ErrUsernameRequired) {
		t.Fatalf("expected username error, got %v", err)
	}
	if _, err := svc.Register(ctx, "alice", ""); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	_, err := svc.Register(ctx, "alice", "other")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Error() != "User alice is already registered." {
		t.Fatalf("unexpected message %q", verr.Error())
	}
}

func TestAuthenticate(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	u, err := svc.Authenticate(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if u.ID != registered.ID {
		t.Fatalf("expected user %s, got %s", registered.ID, u.ID)
	}

	if _, err := svc.Authenticate(ctx, "bob", "pw1"); !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected unknown user error, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "wrong"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected incorrect password error, got %v", err)
	}
}
