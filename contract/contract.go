//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"orai-chat/domain"
)

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in the Worker
// interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// MessageStore is the durable, ordered store of chat messages. All
// validation and authorization for mutations lives behind this interface;
// callers must not duplicate it.
type MessageStore interface {
	Append(roomID, senderID, senderName, content string) (domain.Message, error)
	Edit(messageID uuid.UUID, newContent, requesterID string) (domain.Message, error)
	Delete(messageID uuid.UUID, requesterID string) (domain.Message, error)
}

// MembershipAuthority answers "who belongs to this room".
type MembershipAuthority interface {
	Exists(roomID string) (bool, error)
	IsMember(roomID, userID string) (bool, error)
	Members(roomID string) ([]string, error)
}

// Counter is the per-(room,user) unread message counter. Increment must be
// a single indivisible operation: N concurrent increments on one key always
// land as +N.
type Counter interface {
	Increment(ctx context.Context, roomID, userID string) error
	Reset(ctx context.Context, roomID, userID string) error
	Get(ctx context.Context, roomID, userID string) (int64, error)
}

// Notifier pushes a named frame to one user's channel. Delivery is
// best-effort and same-instance only; an unknown user is a silent no-op.
type Notifier interface {
	Send(ctx context.Context, userID, name string, data any) error
}

// MessageIndexer maintains the full-text index alongside the store.
type MessageIndexer interface {
	Index(m domain.Message) error
	Remove(messageID uuid.UUID) error
}
