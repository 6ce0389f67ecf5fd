// Package domain contains the core concepts of the chat system.
// Messages are immutable by convention: edits and deletions rewrite the
// record in place with a kind marker, they never remove history slots.
package domain

import (
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/google/uuid"
)

// Kind tags the variant a message record currently holds.
type Kind string

const (
	KindChat   Kind = "CHAT"
	KindSystem Kind = "SYSTEM"
	KindEdit   Kind = "EDIT"
	KindDelete Kind = "DELETE"
	KindError  Kind = "ERROR"
)

// Tombstone replaces the content of a deleted message.
const Tombstone = "This message has been deleted."

// Message is a single chat record. CreatedAt is set once at first
// persistence; UpdatedAt moves only on EDIT and DELETE transitions.
type Message struct {
	ID         uuid.UUID `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	Kind       Kind      `json:"kind"`
	Content    string    `json:"content"`
	Lang       string    `json:"lang,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Deleted reports whether the record reached its terminal state.
func (m Message) Deleted() bool {
	return m.Kind == KindDelete
}

// DetectLang returns the ISO 639-3 code of the content's probable language,
// or empty when detection is unreliable.
func DetectLang(content string) string {
	info := whatlanggo.Detect(content)
	if !info.IsReliable() {
		return ""
	}
	return whatlanggo.LangToString(info.Lang)
}
