package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"orai-chat/auth"
	"orai-chat/domain"
)

// Connect upgrades the request to a server-sent event stream and attaches
// the caller to their notification channel. The stream ends when the client
// goes away, the channel expires or the server shuts down; the registry
// handles the teardown in every case.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, err := h.registry.Connect(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer h.registry.Disconnect(context.WithoutCancel(r.Context()), identity.UserID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case frame := <-ch.Frames():
			if err := writeFrame(w, frame); err != nil {
				h.log.Debug("Stream write failed", "user", identity.UserID, "error", err)
				return
			}
			flusher.Flush()
		case <-ch.Done():
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeFrame(w http.ResponseWriter, frame domain.Frame) error {
	data, err := json.Marshal(frame.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Name, data)
	return err
}
