package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/tasklevel/internal/auth"
	"github.com/dukerupert/tasklevel/internal/push"
	"github.com/dukerupert/tasklevel/internal/store"
)

// Notifier delivers a payload to every device of a profile.
type Notifier interface {
	Notify(ctx context.Context, profileID string, payload push.Payload) int
}

type PushHandler struct {
	pushStore *store.PushStore
	publicKey string
	notifier  Notifier
	logger    *slog.Logger
}

// NewPushHandler wires the push endpoints. An empty publicKey means push is
// not configured.
func NewPushHandler(ps *store.PushStore, publicKey string, notifier Notifier, logger *slog.Logger) *PushHandler {
	return &PushHandler{pushStore: ps, publicKey: publicKey, notifier: notifier, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscribe handles POST /api/push/subscribe. It accepts the browser's
// PushSubscription JSON or flat p256dh/auth fields, and replaces any earlier
// subscription of the caller.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	var req subscribeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.P256dh == "" {
		req.P256dh = req.Keys.P256dh
	}
	if req.Auth == "" {
		req.Auth = req.Keys.Auth
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.pushStore.Replace(r.Context(), profileID, req.Endpoint, req.P256dh, req.Auth)
	if err != nil {
		h.logger.Error("save push subscription", "profile_id", profileID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscription
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.pushStore.DeleteByProfile(r.Context(), auth.ProfileID(r.Context())); err != nil {
		h.logger.Error("delete push subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.publicKey == "" {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.publicKey})
}

// TestNotification handles POST /api/push/test
func (h *PushHandler) TestNotification(w http.ResponseWriter, r *http.Request) {
	if h.notifier == nil || h.publicKey == "" {
		writeError(w, http.StatusServiceUnavailable, "push notifications are not configured")
		return
	}
	sent := h.notifier.Notify(r.Context(), auth.ProfileID(r.Context()), push.Test())
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
