package api

// CreateRoomRequest opens a new room; the caller becomes its creator.
type CreateRoomRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// InviteRequest adds a user to a room.
type InviteRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// SendMessageRequest posts a new message to a room.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// EditMessageRequest replaces the content of an existing message.
type EditMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// errorBody is the stable error shape of every non-2xx response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
