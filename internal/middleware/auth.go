package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/tasklevel/internal/auth"
	"github.com/dukerupert/tasklevel/internal/model"
)

// ProfileEnsurer creates a profile the first time a session shows up.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, id, username, email string) (*model.Profile, error)
}

// BearerToken returns the token of an "Authorization: Bearer" header, or ""
// if there is none.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth verifies the bearer token, lazily creates the profile and puts
// the Session on the request context. Failures get a 401 JSON body.
func RequireAuth(verifier *auth.Verifier, profiles ProfileEnsurer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			sess, err := verifier.Verify(token)
			if err != nil {
				logger.Debug("rejected token", "error", err, "remote", RealIP(r))
				unauthorized(w, "invalid or expired token")
				return
			}

			if _, err := profiles.Ensure(r.Context(), sess.ProfileID, sess.Username, sess.Email); err != nil {
				logger.Error("ensure profile", "profile_id", sess.ProfileID, "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
				return
			}

			recordProfile(r.Context(), sess.ProfileID)
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

// OptionalAuth attaches a Session when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := BearerToken(r); token != "" {
				if sess, err := verifier.Verify(token); err == nil {
					recordProfile(r.Context(), sess.ProfileID)
					r = r.WithContext(auth.WithSession(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tasklevel"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
