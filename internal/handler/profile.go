package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/dukerupert/tasklevel/internal/auth"
	"github.com/dukerupert/tasklevel/internal/avatar"
	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/store"
	"github.com/dukerupert/tasklevel/internal/websocket"
)

const maxUsernameLen = 32

// AvatarUploader stores an avatar image and returns its public URL.
type AvatarUploader interface {
	Upload(ctx context.Context, profileID string, data []byte, previousURL string) (string, error)
}

// Broadcaster publishes realtime events.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type ProfileHandler struct {
	profiles *store.ProfileStore
	stats    *store.StatsStore
	avatars  AvatarUploader
	events   Broadcaster
	now      func() time.Time
	logger   *slog.Logger
}

// NewProfileHandler wires the profile endpoints. avatars and events may be nil.
func NewProfileHandler(ps *store.ProfileStore, ss *store.StatsStore, avatars AvatarUploader, events Broadcaster, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: ps, stats: ss, avatars: avatars, events: events, now: time.Now, logger: logger}
}

func (h *ProfileHandler) broadcast(msg websocket.Message) {
	if h.events != nil {
		h.events.Broadcast(msg)
	}
}

// Me handles GET /api/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.GetByID(r.Context(), auth.ProfileID(r.Context()))
	if err != nil {
		h.logger.Error("get profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UpdateMe handles PUT /api/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	if len([]rune(req.Username)) > maxUsernameLen {
		writeError(w, http.StatusBadRequest, "username is too long")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			writeError(w, http.StatusBadRequest, "invalid email")
			return
		}
	}

	p, err := h.profiles.Update(r.Context(), auth.ProfileID(r.Context()), req.Username, req.Email)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityLeaderboard, "changed", "", nil))
	writeJSON(w, http.StatusOK, p)
}

type publicProfile struct {
	*model.Profile
	Completion model.CompletionStats `json:"completion"`
	Stats      *model.Stats          `json:"stats"`
}

// Get handles GET /api/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.profiles.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if id != auth.ProfileID(r.Context()) {
		p.Email = ""
	}

	out := publicProfile{Profile: p}
	if out.Completion, err = h.profiles.CompletionStats(r.Context(), id, h.now()); err != nil {
		h.logger.Error("completion stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if out.Stats, err = h.stats.Get(r.Context(), id); err != nil {
		h.logger.Error("get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// UploadAvatar handles PUT /api/me/avatar. The body is either the raw image
// or a multipart form with an "avatar" file field.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if h.avatars == nil {
		writeError(w, http.StatusServiceUnavailable, "avatar uploads are not configured")
		return
	}
	profileID := auth.ProfileID(r.Context())

	data, err := readAvatar(w, r)
	if errors.Is(err, avatar.ErrTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.profiles.GetByID(r.Context(), profileID)
	if err != nil || current == nil {
		h.logger.Error("get profile", "profile_id", profileID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload avatar")
		return
	}

	url, err := h.avatars.Upload(r.Context(), profileID, data, current.AvatarURL)
	switch {
	case errors.Is(err, avatar.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, avatar.ErrUnsupportedType), errors.Is(err, avatar.ErrEmpty):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	case errors.Is(err, avatar.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, "avatar uploads are not configured")
		return
	case err != nil:
		h.logger.Error("upload avatar", "profile_id", profileID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to upload avatar")
		return
	}

	p, err := h.profiles.SetAvatar(r.Context(), profileID, url)
	if err != nil {
		h.logger.Error("set avatar", "profile_id", profileID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to upload avatar")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func readAvatar(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	// Room for multipart framing on top of the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxSize+(1<<10))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err := io.ReadAll(io.LimitReader(r.Body, avatar.MaxSize+1))
		if err != nil {
			return nil, avatar.ErrTooLarge
		}
		return data, nil
	}

	if err := r.ParseMultipartForm(avatar.MaxSize); err != nil {
		return nil, errors.New("invalid multipart form")
	}
	f, _, err := r.FormFile("avatar")
	if err != nil {
		return nil, errors.New("avatar file is required")
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, avatar.MaxSize+1))
}

// Stats handles GET /api/me/stats
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.stats.Get(r.Context(), auth.ProfileID(r.Context()))
	if err != nil {
		h.logger.Error("get stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type statsResponse struct {
	Stats   *model.Stats `json:"stats"`
	Balance int          `json:"points"`
}

// UpgradeStat handles POST /api/me/stats/{stat}/upgrade
func (h *ProfileHandler) UpgradeStat(w http.ResponseWriter, r *http.Request) {
	stat := r.PathValue("stat")
	if !model.ValidStat(stat) {
		writeError(w, http.StatusBadRequest, "unknown stat")
		return
	}

	st, balance, err := h.stats.Upgrade(r.Context(), auth.ProfileID(r.Context()), stat)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to upgrade stat")
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityLeaderboard, "changed", "", nil))
	writeJSON(w, http.StatusOK, statsResponse{Stats: st, Balance: balance})
}

// ResetStats handles POST /api/me/stats/reset
func (h *ProfileHandler) ResetStats(w http.ResponseWriter, r *http.Request) {
	st, balance, err := h.stats.Reset(r.Context(), auth.ProfileID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to reset stats")
		return
	}
	h.broadcast(websocket.NewMessage(websocket.EntityLeaderboard, "changed", "", nil))
	writeJSON(w, http.StatusOK, statsResponse{Stats: st, Balance: balance})
}

// Leaderboard handles GET /api/leaderboard?sort=points|real|fake|completed|failed
func (h *ProfileHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sort := r.URL.Query().Get("sort")
	if sort == "" {
		sort = store.SortPoints
	}
	if !store.ValidLeaderboardSort(sort) {
		writeError(w, http.StatusBadRequest, "invalid sort")
		return
	}

	entries, err := h.profiles.Leaderboard(r.Context(), sort, queryLimit(r, defaultFeedLimit, maxFeedLimit), h.now())
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
