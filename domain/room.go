package domain

import "time"

// Room groups users who may exchange messages. The creator is always a
// member and can only leave by deleting the room.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Membership links a room to one of its members.
type Membership struct {
	RoomID   string    `json:"roomId"`
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}
