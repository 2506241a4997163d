package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/readingroom/bookreviews/internal/app/domain/review"
	"github.com/readingroom/bookreviews/internal/app/domain/user"
	"github.com/readingroom/bookreviews/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGetUserByName(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "password", "created_at"}).
		AddRow("user-1", "alice", "pw1", time.Now())
	mock.ExpectQuery(`SELECT id, name, password, created_at\s+FROM users\s+WHERE name = \$1`).
		WithArgs("alice").
		WillReturnRows(rows)

	u, err := store.GetUserByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get user by name: %v", err)
	}
	if u.ID != "user-1" || u.Password != "pw1" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestGetUserByNameMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, password, created_at`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUserByName(context.Background(), "nobody")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreateReviewMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO reviews`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_user_isbn_key"})

	_, err := store.CreateReview(context.Background(), review.Review{
		ISBN:   "1632168146",
		UserID: "user-1",
		Rating: 5,
		Text:   "great",
	})
	if !errors.Is(err, storage.ErrDuplicateReview) {
		t.Fatalf("expected ErrDuplicateReview, got %v", err)
	}
}

func TestHasReview(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("user-1", "1632168146").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.HasReview(context.Background(), "user-1", "1632168146")
	if err != nil {
		t.Fatalf("has review: %v", err)
	}
	if !exists {
		t.Fatal("expected existing review")
	}
}

func TestReviewSummary(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"isbn", "title", "author", "year", "review_count", "average_score"}).
		AddRow("1632168146", "Memory", "Doug Lloyd", 2015, 1, "5.00")
	mock.ExpectQuery(`SELECT books.isbn, books.title, books.author, books.year`).
		WithArgs("1632168146").
		WillReturnRows(rows)

	sum, err := store.ReviewSummary(context.Background(), "1632168146")
	if err != nil {
		t.Fatalf("review summary: %v", err)
	}
	if sum.ReviewCount != 1 || sum.AverageScore != "5.00" {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	store := New(db)
	ctx := context.Background()

	u, err := store.CreateUser(ctx, user.User{Name: "integration-" + uuid.NewString(), Password: "pw"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := store.CreateReview(ctx, review.Review{ISBN: "1632168146", UserID: u.ID, Rating: 5, Text: "great"}); err != nil {
		t.Fatalf("create review: %v", err)
	}

	_, err = store.CreateReview(ctx, review.Review{ISBN: "1632168146", UserID: u.ID, Rating: 1, Text: "again"})
	if !errors.Is(err, storage.ErrDuplicateReview) {
		t.Fatalf("expected duplicate review error, got %v", err)
	}
}
