// Package session provides cookie-bound server-side sessions. A browser holds
// an opaque token; the token keys a small bag persisted by a pluggable Store.
// The default backend writes one file per session under a spool directory.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/readingroom/bookreviews/pkg/logger"
)

// ErrNotFound reports a token with no stored bag.
var ErrNotFound = errors.New("session not found")

// Data is the per-session bag. UserID is the only identity key; Flashes hold
// transient notices consumed on the next rendered page.
type Data struct {
	UserID    string    `json:"user_id,omitempty"`
	Flashes   []string  `json:"flashes,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists session bags keyed by opaque token.
type Store interface {
	Get(ctx context.Context, token string) (Data, error)
	Put(ctx context.Context, token string, data Data) error
	Delete(ctx context.Context, token string) error
	// PurgeExpired removes every bag whose ExpiresAt is before now and
	// returns how many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// Session is one client's bag plus the token binding it to the cookie.
type Session struct {
	token string
	fresh bool
	Data  Data
}

// UserID returns the bound user id, empty for anonymous sessions.
func (s *Session) UserID() string { return s.Data.UserID }

// SetUserID binds an identity to the session.
func (s *Session) SetUserID(id string) { s.Data.UserID = id }

// Clear discards everything stored in the bag.
func (s *Session) Clear() { s.Data = Data{} }

// Flash queues a transient notice for the next rendered page.
func (s *Session) Flash(msg string) { s.Data.Flashes = append(s.Data.Flashes, msg) }

// PopFlashes drains the queued notices.
func (s *Session) PopFlashes() []string {
	flashes := s.Data.Flashes
	s.Data.Flashes = nil
	return flashes
}

// Config tunes the manager.
type Config struct {
	Store      Store
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager issues tokens, reads the session cookie and round-trips bags
// through the configured store.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	secure     bool
	log        *logger.Logger
}

// NewManager constructs a manager. Nil store panics; zero TTL defaults to 24h.
func NewManager(cfg Config, log *logger.Logger) *Manager {
	if cfg.Store == nil {
		panic("session: Config.Store is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session_id"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if log == nil {
		log = logger.NewDefault("session")
	}
	return &Manager{
		store:      cfg.Store,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.Secure,
		log:        log,
	}
}

// Get loads the request's session. A missing cookie, unknown token or expired
// bag yields a fresh anonymous session rather than an error.
func (m *Manager) Get(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" || !validToken(cookie.Value) {
		return &Session{fresh: true}
	}

	data, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.log.WithError(err).Warn("session load failed")
		}
		return &Session{fresh: true}
	}
	if !data.ExpiresAt.IsZero() && data.ExpiresAt.Before(time.Now()) {
		_ = m.store.Delete(r.Context(), cookie.Value)
		return &Session{fresh: true}
	}

	return &Session{token: cookie.Value, Data: data}
}

// Save persists the session bag and sets the cookie. Fresh sessions get a new
// token on first save.
func (m *Manager) Save(w http.ResponseWriter, r *http.Request, s *Session) error {
	if s.token == "" {
		token, err := newToken()
		if err != nil {
			return fmt.Errorf("generate session token: %w", err)
		}
		s.token = token
		s.fresh = false
	}

	s.Data.ExpiresAt = time.Now().Add(m.ttl)
	if err := m.store.Put(r.Context(), s.token, s.Data); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.token,
		Path:     "/",
		Expires:  s.Data.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Destroy deletes the stored bag and expires the cookie. Destroying a request
// with no session is a no-op, which keeps logout idempotent.
func (m *Manager) Destroy(w http.ResponseWriter, r *http.Request, s *Session) error {
	if s.token != "" {
		if err := m.store.Delete(r.Context(), s.token); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	s.token = ""
	s.Data = Data{}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func newToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// validToken rejects anything that is not lowercase hex of the issued length,
// which also keeps file-backed stores safe from path traversal.
func validToken(token string) bool {
	if len(token) != 64 {
		return false
	}
	for _, c := range token {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
