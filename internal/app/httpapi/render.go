package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/readingroom/bookreviews/internal/app/domain/book"
	"github.com/readingroom/bookreviews/internal/app/domain/review"
	"github.com/readingroom/bookreviews/internal/app/domain/user"
	"github.com/readingroom/bookreviews/internal/ratings"
)

//go:embed templates/*.html
var templateFS embed.FS

// ViewData carries everything a page template can bind.
type ViewData struct {
	User    *user.User
	Flashes []string
	Books   []book.Book
	Book    *book.Book
	Reviews []review.Review
	Ratings *ratings.Aggregate
}

// Renderer renders a named page template with bound variables. The handler
// depends on this interface so tests can substitute a recording stub.
type Renderer interface {
	Render(w http.ResponseWriter, name string, data ViewData) error
}

// TemplateRenderer serves the embedded html/template pages.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses the embedded templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

// Render writes the named template to the response.
func (r *TemplateRenderer) Render(w http.ResponseWriter, name string, data ViewData) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return r.templates.ExecuteTemplate(w, name, data)
}
