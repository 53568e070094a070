package session

import (
	"context"
	"errors"
	"net/http"

	"mobile-gateway/pkg/platform/sentinel"
	"mobile-gateway/pkg/requestcontext"
)

// CookieName carries the login session ID between the login start and
// completion requests of one browser.
const CookieName = "mgw_session"

// Middleware ensures every request carries a login session: an existing
// session cookie is resolved against the store, anything else gets a fresh
// session and cookie. The session ID lands in the request context.
func Middleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if cookie, err := r.Cookie(CookieName); err == nil {
				if _, err := store.Find(ctx, cookie.Value); err == nil {
					ctx = requestcontext.WithSessionID(ctx, cookie.Value)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			sess := New(r.UserAgent(), requestcontext.Now(ctx))
			if err := store.Save(ctx, sess); err != nil {
				http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			ctx = requestcontext.WithSessionID(ctx, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Load fetches the request's session from the store, tolerating an expired
// record as absence.
func Load(ctx context.Context, store Store) (*Session, error) {
	id := requestcontext.SessionID(ctx)
	if id == "" {
		return nil, sentinel.ErrNotFound
	}
	sess, err := store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}
