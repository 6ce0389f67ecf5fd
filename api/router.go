package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"orai-chat/auth"
)

// NewRouter wires every route. Health stays public; everything else sits
// behind the bearer-token middleware.
func NewRouter(h *Handler, jwtSecret string) *mux.Router {
	root := mux.NewRouter()
	root.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r := root.PathPrefix("/").Subrouter()
	r.Use(auth.Middleware([]byte(jwtSecret)))

	r.HandleFunc("/rooms", h.CreateRoom).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomId}", h.DeleteRoom).Methods(http.MethodDelete)
	r.HandleFunc("/rooms/{roomId}/invite", h.Invite).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomId}/leave", h.Leave).Methods(http.MethodPost)

	r.HandleFunc("/rooms/{roomId}/messages", h.SendMessage).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomId}/messages", h.ListAll).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/messages/recent", h.ListRecent).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/messages/before", h.ListBefore).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/messages/after", h.ListAfter).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/messages/count", h.Count).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/messages/search", h.Search).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/messages/{messageId}", h.EditMessage).Methods(http.MethodPut)
	r.HandleFunc("/rooms/{roomId}/messages/{messageId}", h.DeleteMessage).Methods(http.MethodDelete)

	r.HandleFunc("/rooms/{roomId}/open", h.OpenRoom).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/unread", h.Unread).Methods(http.MethodGet)

	r.HandleFunc("/connect", h.Connect).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)

	return root
}
