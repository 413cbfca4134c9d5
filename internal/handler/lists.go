package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/tasklevel/internal/auth"
	"github.com/dukerupert/tasklevel/internal/lifecycle"
	"github.com/dukerupert/tasklevel/internal/model"
	"github.com/dukerupert/tasklevel/internal/tasklist"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

type ListHandler struct {
	svc    *tasklist.Service
	logger *slog.Logger
}

func NewListHandler(svc *tasklist.Service, logger *slog.Logger) *ListHandler {
	return &ListHandler{svc: svc, logger: logger}
}

type createListRequest struct {
	Type       model.PeriodType `json:"type"`
	Tasks      []string         `json:"tasks"`
	Reward     string           `json:"reward"`
	Punishment string           `json:"punishment"`
}

func (req createListRequest) wagers() []tasklist.RewardPunishment {
	var out []tasklist.RewardPunishment
	if s := strings.TrimSpace(req.Reward); s != "" {
		out = append(out, tasklist.RewardPunishment{Type: tasklist.KindReward, Text: s})
	}
	if s := strings.TrimSpace(req.Punishment); s != "" {
		out = append(out, tasklist.RewardPunishment{Type: tasklist.KindPunishment, Text: s})
	}
	return out
}

// Create handles POST /api/lists
func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	var req createListRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.SubmitList(r.Context(), profileID, req.Type, req.Tasks, req.wagers())
	if err != nil {
		h.logger.Error("create list", "profile_id", profileID, "error", err)
		writeJSON(w, http.StatusInternalServerError, res)
		return
	}
	if !res.Success {
		status := http.StatusBadRequest
		if res.Quota != nil && res.Quota.Status == lifecycle.QuotaDenied {
			status = http.StatusConflict
		}
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// List handles GET /api/lists. With ?view=active only lists that still need
// attention are returned; exclude=id1,id2 hides lists already handled by the
// client.
func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	q := r.URL.Query()

	var (
		lists []model.List
		err   error
	)
	if q.Get("view") == "active" {
		var ids []string
		for _, id := range strings.Split(q.Get("exclude"), ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		lists, err = h.svc.ActiveLists(r.Context(), profileID, lifecycle.HiddenSet(ids))
	} else {
		lists, err = h.svc.Lists(r.Context(), profileID)
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list lists")
		return
	}
	if lists == nil {
		lists = []model.List{}
	}
	writeJSON(w, http.StatusOK, lists)
}

// Get handles GET /api/lists/{id}
func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetList(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get list")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

type taskRequest struct {
	Completed *bool `json:"completed"`
}

// SetTask handles PUT /api/tasks/{id}
func (h *ListHandler) SetTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Completed == nil {
		writeError(w, http.StatusBadRequest, "completed is required")
		return
	}

	toggle, err := h.svc.SetTaskCompletion(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"), *req.Completed)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, toggle)
}

// Publish handles POST /api/lists/{id}/publish
func (h *ListHandler) Publish(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.MakePublic(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to publish list")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Hide handles POST /api/lists/{id}/hide
func (h *ListHandler) Hide(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.HideList(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to hide list")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Public handles GET /api/public-lists
func (h *ListHandler) Public(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.PublicLists(r.Context(), queryLimit(r, defaultFeedLimit, maxFeedLimit))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to list public lists")
		return
	}
	if lists == nil {
		lists = []model.PublicList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

// RecordView handles POST /api/lists/{id}/views
func (h *ListHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	counted, err := h.svc.RecordView(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to record view")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"counted": counted})
}

type voteRequest struct {
	Vote int `json:"vote"`
}

// Vote handles POST /api/lists/{id}/votes
func (h *ListHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Vote(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"), req.Vote)
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to vote")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Votes handles GET /api/lists/{id}/votes
func (h *ListHandler) Votes(w http.ResponseWriter, r *http.Request) {
	tally, err := h.svc.Votes(r.Context(), auth.ProfileID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "failed to get votes")
		return
	}
	writeJSON(w, http.StatusOK, tally)
}
