package domain

import "github.com/google/uuid"

// Action is the kind of mutation a client submits to a room.
type Action string

const (
	ActionSend   Action = "SEND"
	ActionEdit   Action = "EDIT"
	ActionDelete Action = "DELETE"
)

// SubmitCommand carries one inbound chat action. MessageID is only set for
// EDIT and DELETE; Content is ignored for DELETE.
type SubmitCommand struct {
	Room      string
	Actor     string
	ActorName string
	Action    Action
	Content   string
	MessageID uuid.UUID
}
