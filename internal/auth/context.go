package auth

import "context"

type contextKey struct{}

// Session identifies the profile behind a request.
type Session struct {
	ProfileID string
	Email     string
	Username  string
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}

// ProfileID returns the caller's profile id, or "" for anonymous requests.
func ProfileID(ctx context.Context) string {
	s, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return s.ProfileID
}
