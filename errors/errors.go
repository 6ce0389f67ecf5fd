// Package errors defines the error taxonomy shared by the chat core.
// Every error carries a stable product code so transports can map it
// without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Class partitions errors by how callers must react to them.
type Class int

const (
	// Validation covers malformed or rejected input. Never retried.
	Validation Class = iota
	// NotFound covers absent rooms and messages.
	NotFound
	// Permission covers non-member and non-author actions.
	Permission
	// Transient covers isolated delivery failures on a single channel.
	Transient
	// Internal is everything else.
	Internal
)

// Error is a classified error with a stable code and a human message.
type Error struct {
	Class   Class
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(class Class, code, message string) *Error {
	return &Error{Class: class, Code: code, Message: message}
}

var (
	ErrBlankContent   = New(Validation, "C001", "message content is blank")
	ErrContentTooLong = New(Validation, "C006", "message content exceeds the maximum length")
	ErrUnknownAction  = New(Validation, "C007", "unknown chat action")
	ErrInvalidCursor  = New(Validation, "C003", "invalid cursor timestamp")
	ErrInvalidID      = New(Validation, "C004", "invalid message id")

	ErrRoomNotFound     = New(NotFound, "CH001", "chat room not found")
	ErrRoomAccessDenied = New(Permission, "CH002", "chat room access denied")
	ErrMessageNotFound  = New(NotFound, "CH003", "message not found")
	ErrNotSender        = New(Permission, "CH004", "only the original sender may modify a message")
	ErrSameContent      = New(Validation, "CH005", "new content is identical to the current content")
	ErrAlreadyDeleted   = New(Validation, "CH006", "message has already been deleted")
	ErrCreatorImmutable = New(Validation, "CH007", "the room creator cannot be removed without deleting the room")
	ErrNotCreator       = New(Permission, "CH008", "only the room creator may delete the room")

	ErrInvalidToken = New(Permission, "U004", "invalid or expired token")

	ErrChannelClosed  = New(Transient, "N002", "notification channel is closed")
	ErrChannelBlocked = New(Transient, "N003", "notification channel buffer is full")

	ErrWorkerPanic = New(Internal, "C002", "worker panic")
	ErrEmptyWords  = New(Internal, "C005", "no censored words have been found")
)

// ClassOf unwraps err and reports its Class, defaulting to Internal for
// errors raised outside this package.
func ClassOf(err error) Class {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Class
	}
	return Internal
}

// CodeOf unwraps err and reports its stable code. Errors raised outside
// this package get the reserved code "C000" so they never impersonate a
// classified one.
func CodeOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return "C000"
}
