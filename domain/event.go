package domain

import "time"

// Frame is the wire envelope pushed over a notification channel.
// Heartbeats are {"heartbeat", "keep-alive"}, connection openings are
// {"connect", "<greeting>"}, chat events carry an Event as Data.
type Frame struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

// Event is the wire form of a message delivered to room subscribers.
type Event struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Kind       Kind      `json:"kind"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EventOf converts a persisted message into its wire form.
func EventOf(m Message) Event {
	return Event{
		ID:         m.ID.String(),
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Kind:       m.Kind,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
