// Package session identifies users across requests with a signed cookie.
//
// A request goes through three states only: anonymous, authenticated
// (after Login minted a cookie) and cleared (after Logout). There is no
// server side session state, the cookie alone carries the user id.
package session

import (
	"context"
	"net/http"
	"strconv"

	"github.com/yusong-shen/multi-user-blog/internal/logutil"
	"github.com/yusong-shen/multi-user-blog/signer"
	"github.com/yusong-shen/multi-user-blog/store"
)

const (
	CookieName = "user_id"
	cookiePath = "/"
)

type (
	UserLookup interface {
		LookupUserByID(ctx context.Context, id int64) (store.User, error)
	}

	Manager struct {
		signer     *signer.Signer
		users      UserLookup
		cookieName string
	}

	Option func(*Manager)

	key byte
)

var (
	userKey = key(1)
)

// WithCookieName overrides the default cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		m.cookieName = name
	}
}

func New(s *signer.Signer, users UserLookup, opts ...Option) *Manager {
	m := &Manager{
		signer:     s,
		users:      users,
		cookieName: CookieName,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Login writes a cookie identifying u for the whole site. The cookie has
// no expiry and lasts until the browser drops it or Logout clears it.
func (m *Manager) Login(w http.ResponseWriter, u store.User) {
	http.SetCookie(w, &http.Cookie{
		Name:  m.cookieName,
		Value: m.signer.Mint(strconv.FormatInt(u.ID, 10)),
		Path:  cookiePath,
	})
}

// Logout overwrites the session cookie with an empty value.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:  m.cookieName,
		Value: "",
		Path:  cookiePath,
	})
}

// Identify returns the user referenced by the session cookie of r.
// Missing, malformed or forged cookies and unknown users all yield false.
func (m *Manager) Identify(r *http.Request) (store.User, bool) {
	ctx := r.Context()
	log := logutil.GetOrDefault(ctx)
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return store.User{}, false
	}
	payload, ok := m.signer.Verify(c.Value)
	if !ok {
		log.Debug().Msg("Ignoring session cookie with invalid signature")
		return store.User{}, false
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring session cookie with a non-numeric payload")
		return store.User{}, false
	}
	u, err := m.users.LookupUserByID(ctx, id)
	if err != nil {
		log.Debug().Err(err).Int64("user_id", id).Msg("Session cookie does not resolve to a user")
		return store.User{}, false
	}
	return u, true
}

// Middleware attaches the user identified by the session cookie (if any)
// to the request context before next runs.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := m.Identify(r); ok {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser redirects anonymous requests to redirect.
// It must run after Middleware.
func RequireUser(next http.Handler, redirect string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			http.Redirect(w, r, redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u store.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFrom(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(userKey).(store.User)
	return u, ok
}
