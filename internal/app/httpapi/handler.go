// Package httpapi exposes the web routes: registration, login, catalog
// search, book detail with review submission, and the JSON summary endpoint.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	app "github.com/readingroom/bookreviews/internal/app"
	"github.com/readingroom/bookreviews/internal/app/domain/book"
	"github.com/readingroom/bookreviews/internal/app/metrics"
	"github.com/readingroom/bookreviews/internal/app/services/catalog"
	"github.com/readingroom/bookreviews/internal/app/services/reviews"
	"github.com/readingroom/bookreviews/internal/app/services/users"
	"github.com/readingroom/bookreviews/internal/middleware"
	"github.com/readingroom/bookreviews/internal/ratings"
	"github.com/readingroom/bookreviews/internal/session"
	"github.com/readingroom/bookreviews/pkg/logger"
)

// RatingsLookup is the slice of the ratings client the book page needs.
type RatingsLookup interface {
	Lookup(ctx context.Context, isbn string) (ratings.Aggregate, error)
}

// handler bundles the web endpoints over the application services.
type handler struct {
	app      *app.Application
	sessions *session.Manager
	ratings  RatingsLookup
	render   Renderer
	log      *logger.Logger
}

// NewHandler returns the routed handler with the full middleware chain:
// request logging, metrics, and the per-request current-user resolution.
// Route protection is applied per route, not globally.
func NewHandler(application *app.Application, sessions *session.Manager, lookup RatingsLookup, render Renderer, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, sessions: sessions, ratings: lookup, render: render, log: log}

	r := mux.NewRouter()
	r.Use(middleware.Logging(log))
	r.Use(func(next http.Handler) http.Handler { return metrics.InstrumentHandler(next) })
	r.Use(middleware.CurrentUser(sessions, application.Users, log))

	protected := func(fn http.HandlerFunc) http.Handler { return middleware.RequireUser(fn) }

	r.Handle("/", protected(h.index)).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodGet)
	r.HandleFunc("/register", h.register).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/search", protected(h.search)).Methods(http.MethodGet)
	r.Handle("/book/{isbn}", protected(h.book)).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/api/{isbn}", protected(h.apiSummary)).Methods(http.MethodGet)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return r
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	flashes := sess.PopFlashes()
	if len(flashes) > 0 {
		if err := h.sessions.Save(w, r, sess); err != nil {
			h.serverError(w, err)
			return
		}
	}

	h.renderPage(w, "index.html", ViewData{
		User:    middleware.UserFrom(r.Context()),
		Flashes: flashes,
	})
}

// login discards any existing identity before anything else, even on a GET.
func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	if err := h.sessions.Destroy(w, r, sess); err != nil {
		h.serverError(w, err)
		return
	}

	if r.Method == http.MethodGet {
		h.renderPage(w, "login.html", ViewData{})
		return
	}

	name := r.FormValue("username")
	password := r.FormValue("password")

	u, err := h.app.Users.Authenticate(r.Context(), name, password)
	if err != nil {
		var verr users.ValidationError
		if errors.As(err, &verr) {
			h.renderPage(w, "login.html", ViewData{Flashes: []string{verr.Error()}})
			return
		}
		h.serverError(w, err)
		return
	}

	// Authenticated: bind the identity to a brand new session.
	fresh := &session.Session{}
	fresh.SetUserID(u.ID)
	if err := h.sessions.Save(w, r, fresh); err != nil {
		h.serverError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(r)
	if err := h.sessions.Destroy(w, r, sess); err != nil {
		h.serverError(w, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.renderPage(w, "register.html", ViewData{})
		return
	}

	name := r.FormValue("username")
	password := r.FormValue("password")

	if _, err := h.app.Users.Register(r.Context(), name, password); err != nil {
		var verr users.ValidationError
		if errors.As(err, &verr) {
			h.renderPage(w, "register.html", ViewData{Flashes: []string{verr.Error()}})
			return
		}
		h.serverError(w, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("book")

	books, err := h.app.Catalog.Search(r.Context(), query)
	if errors.Is(err, catalog.ErrNoResults) {
		h.flashAndRedirect(w, r, catalog.ErrNoResults.Error(), "/")
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.renderPage(w, "results.html", ViewData{
		User:  middleware.UserFrom(r.Context()),
		Books: books,
	})
}

func (h *handler) book(w http.ResponseWriter, r *http.Request) {
	isbn := mux.Vars(r)["isbn"]

	if r.Method == http.MethodPost {
		h.submitReview(w, r, isbn)
		return
	}

	var bookPtr *book.Book
	b, err := h.app.Catalog.GetByISBN(r.Context(), isbn)
	switch {
	case err == nil:
		bookPtr = &b
	case !errors.Is(err, sql.ErrNoRows):
		h.serverError(w, err)
		return
	}

	revs, err := h.app.Reviews.ListByISBN(r.Context(), isbn)
	if err != nil {
		h.serverError(w, err)
		return
	}

	agg, err := h.ratings.Lookup(r.Context(), isbn)
	metrics.RecordRatingsLookup(err)
	if err != nil {
		h.log.WithError(err).WithField("isbn", isbn).Error("ratings lookup failed")
		http.Error(w, "ratings lookup failed", http.StatusBadGateway)
		return
	}

	sess := h.sessions.Get(r)
	flashes := sess.PopFlashes()
	if len(flashes) > 0 {
		if err := h.sessions.Save(w, r, sess); err != nil {
			h.serverError(w, err)
			return
		}
	}

	h.renderPage(w, "book.html", ViewData{
		User:    middleware.UserFrom(r.Context()),
		Flashes: flashes,
		Book:    bookPtr,
		Reviews: revs,
		Ratings: &agg,
	})
}

func (h *handler) submitReview(w http.ResponseWriter, r *http.Request, isbn string) {
	u := middleware.UserFrom(r.Context())

	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		h.flashAndRedirect(w, r, "Rating must be a whole number.", "/book/"+isbn)
		return
	}
	text := r.FormValue("rev")

	_, err = h.app.Reviews.Submit(r.Context(), u.ID, isbn, rating, text)
	if errors.Is(err, reviews.ErrAlreadyReviewed) {
		h.flashAndRedirect(w, r, reviews.ErrAlreadyReviewed.Error(), "/book/"+isbn)
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}

	http.Redirect(w, r, "/book/"+isbn, http.StatusSeeOther)
}

func (h *handler) apiSummary(w http.ResponseWriter, r *http.Request) {
	isbn := mux.Vars(r)["isbn"]

	sum, err := h.app.Reviews.SummaryFor(r.Context(), isbn)
	if errors.Is(err, reviews.ErrNoReviews) {
		writeError(w, http.StatusNotFound, reviews.ErrNoReviews)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, sum)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "bookreviews",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// flashAndRedirect queues a transient notice and sends the client on.
func (h *handler) flashAndRedirect(w http.ResponseWriter, r *http.Request, msg, target string) {
	sess := h.sessions.Get(r)
	sess.Flash(msg)
	if err := h.sessions.Save(w, r, sess); err != nil {
		h.serverError(w, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *handler) renderPage(w http.ResponseWriter, name string, data ViewData) {
	if err := h.render.Render(w, name, data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("render failed")
	}
}

func (h *handler) serverError(w http.ResponseWriter, err error) {
	h.log.WithError(err).Error("request failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
