package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"socialnet/internal/auth"
	"socialnet/internal/logging"
	"socialnet/internal/models"
)

// SessionResolver turns a session token into an identity.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
	ClearCookie(w http.ResponseWriter)
}

// UserLookup loads full user records for the admin guard.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate resolves the session cookie and stores the identity in the
// request context. Requests without a valid session pass through with no
// identity.
func Authenticate(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				log := logging.FromContext(r.Context())
				if errors.Is(err, models.ErrSessionInvalid) {
					log.Debug("invalid or expired session")
					sessions.ClearCookie(w)
				} else {
					// The row may still be valid; keep the cookie.
					log.WithError(err).Error("resolving session")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuthenticated redirects anonymous requests to the login page.
// Requests that ask for JSON get a 401 instead.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IdentityFromContext(r.Context()) == nil {
			if wantsJSON(r) {
				writeMessage(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnonymous keeps logged-in users away from the login and
// registration pages.
func RequireAnonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IdentityFromContext(r.Context()) != nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin lets only admins through. Anonymous requests are redirected
// like RequireAuthenticated; authenticated non-admins get a 403 JSON body,
// never a redirect.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.IdentityFromContext(r.Context())
			user, err := users.FindByID(r.Context(), id.ID)
			if err != nil {
				logging.FromContext(r.Context()).WithError(err).Error("loading user for admin check")
				writeMessage(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !user.IsAdmin {
				writeMessage(w, http.StatusForbidden, models.ErrNotAuthorized.Error())
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
