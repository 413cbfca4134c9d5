package middleware

import "context"

type sessionHolder struct {
	profileID string
}

type holderKey struct{}

func withSessionHolder(ctx context.Context, h *sessionHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func sessionHolderFrom(ctx context.Context) *sessionHolder {
	h, _ := ctx.Value(holderKey{}).(*sessionHolder)
	return h
}

func recordProfile(ctx context.Context, profileID string) {
	if h := sessionHolderFrom(ctx); h != nil {
		h.profileID = profileID
	}
}
