// Package api exposes the chat core over HTTP: a REST surface for room and
// message operations and an SSE endpoint for the push channel.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"orai-chat/auth"
	"orai-chat/domain"
	"orai-chat/errors"
	"orai-chat/observability"
	"orai-chat/presence"
	"orai-chat/services"
)

const defaultPageSize = 50

var validate = validator.New()

type Handler struct {
	log      *slog.Logger
	chat     *services.ChatService
	registry *presence.Registry
	monitor  *observability.Monitor
}

func NewHandler(log *slog.Logger, chat *services.ChatService, registry *presence.Registry, monitor *observability.Monitor) *Handler {
	return &Handler{log: log, chat: chat, registry: registry, monitor: monitor}
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	var req CreateRoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	room, err := h.chat.CreateRoom(req.Name, identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.chat.Invite(mux.Vars(r)["roomId"], req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	if err := h.chat.Leave(mux.Vars(r)["roomId"], identity.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	if err := h.chat.DeleteRoom(r.Context(), mux.Vars(r)["roomId"], identity.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var req SendMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	message, err := h.chat.Submit(r.Context(), domain.SubmitCommand{
		Room:      mux.Vars(r)["roomId"],
		Actor:     identity.UserID,
		ActorName: identity.Name,
		Action:    domain.ActionSend,
		Content:   req.Content,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, domain.EventOf(message))
}

func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	messageID, err := uuid.Parse(mux.Vars(r)["messageId"])
	if err != nil {
		h.writeError(w, errors.ErrInvalidID)
		return
	}
	var req EditMessageRequest
	if !h.decode(w, r, &req) {
		return
	}
	message, err := h.chat.Submit(r.Context(), services.EditCommand(
		mux.Vars(r)["roomId"], identity.UserID, identity.Name, messageID, req.Content))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.EventOf(message))
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	messageID, err := uuid.Parse(mux.Vars(r)["messageId"])
	if err != nil {
		h.writeError(w, errors.ErrInvalidID)
		return
	}
	message, err := h.chat.Submit(r.Context(), services.DeleteCommand(
		mux.Vars(r)["roomId"], identity.UserID, identity.Name, messageID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, domain.EventOf(message))
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	messages, err := h.chat.ListAll(mux.Vars(r)["roomId"], identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	messages, err := h.chat.ListRecent(mux.Vars(r)["roomId"], identity.UserID, pageSize(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) ListBefore(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	cursor, err := parseCursor(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	messages, err := h.chat.ListBefore(mux.Vars(r)["roomId"], identity.UserID, cursor, pageSize(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) ListAfter(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	cursor, err := parseCursor(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	messages, err := h.chat.ListAfter(mux.Vars(r)["roomId"], identity.UserID, cursor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	count, err := h.chat.Count(mux.Vars(r)["roomId"], identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	hits, err := h.chat.Search(r.Context(), mux.Vars(r)["roomId"], identity.UserID, r.URL.Query().Get("q"), pageSize(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, hits)
}

// OpenRoom returns the most recent page and resets the unread counter:
// this is the "user is looking at the room now" signal.
func (h *Handler) OpenRoom(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	messages, err := h.chat.OpenRoom(r.Context(), mux.Vars(r)["roomId"], identity.UserID, pageSize(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	count, err := h.chat.UnreadCount(r.Context(), mux.Vars(r)["roomId"], identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"unread": count})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	stats, err := h.monitor.Snapshot(h.registry.LocalCount())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, errors.New(errors.Validation, "C001", "malformed request body"))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.writeError(w, errors.New(errors.Validation, "C001", err.Error()))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Response encoding failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.ClassOf(err) {
	case errors.Validation:
		status = http.StatusBadRequest
	case errors.NotFound:
		status = http.StatusNotFound
	case errors.Permission:
		status = http.StatusForbidden
	case errors.Transient:
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, errorBody{Code: errors.CodeOf(err), Message: err.Error()})
}

func pageSize(r *http.Request) int {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		return defaultPageSize
	}
	return size
}

func parseCursor(r *http.Request) (time.Time, error) {
	cursor, err := time.Parse(time.RFC3339Nano, r.URL.Query().Get("cursor"))
	if err != nil {
		return time.Time{}, errors.ErrInvalidCursor
	}
	return cursor, nil
}
