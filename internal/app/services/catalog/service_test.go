package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/readingroom/bookreviews/internal/app/domain/book"
	"github.com/readingroom/bookreviews/internal/app/storage/memory"
)

func seededStore() *memory.Store {
	store := memory.New()
	store.SeedBook(book.Book{ISBN: "1632168146", Title: "Memory", Author: "Doug Lloyd", Year: 2015})
	store.SeedBook(book.Book{ISBN: "0380795272", Title: "Krondor: The Betrayal", Author: "Raymond E. Feist", Year: 1998})
	return store
}

func TestSearchTitleCasesQuery(t *testing.T) {
	svc := New(seededStore(), nil)

	// Stored data is title-cased, so a lowercase query still matches.
	books, err := svc.Search(context.Background(), "memory")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(books) != 1 || books[0].ISBN != "1632168146" {
		t.Fatalf("unexpected result %+v", books)
	}
}

func TestSearchMatchesAuthorAndISBN(t *testing.T) {
	svc := New(seededStore(), nil)
	ctx := context.Background()

	byAuthor, err := svc.Search(ctx, "feist")
	if err != nil {
		t.Fatalf("search by author: %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].Title != "Krondor: The Betrayal" {
		t.Fatalf("unexpected author result %+v", byAuthor)
	}

	byISBN, err := svc.Search(ctx, "0380795272")
	if err != nil {
		t.Fatalf("search by isbn: %v", err)
	}
	if len(byISBN) != 1 {
		t.Fatalf("unexpected isbn result %+v", byISBN)
	}
}

func TestSearchNoResults(t *testing.T) {
	svc := New(seededStore(), nil)

	if _, err := svc.Search(context.Background(), "nothing here"); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}
