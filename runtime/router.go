// Package runtime wires store, counters and presence into the broadcast
// path. It orchestrates delivery without containing domain rules.
package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"orai-chat/contract"
	"orai-chat/domain"
	"orai-chat/errors"
	"orai-chat/moderation"
)

// messageFrame names the frame carrying chat events on the wire.
const messageFrame = "chat"

// Router receives inbound chat actions, applies them to the store and fans
// the resulting event out to room subscribers. Validation and authorization
// live entirely in the store; the router never duplicates them.
type Router struct {
	log             *slog.Logger
	store           contract.MessageStore
	members         contract.MembershipAuthority
	unread          contract.Counter
	notifier        contract.Notifier
	index           contract.MessageIndexer
	censor          *moderation.Censor
	deliveryTimeout time.Duration
}

func NewRouter(
	log *slog.Logger,
	store contract.MessageStore,
	members contract.MembershipAuthority,
	unread contract.Counter,
	notifier contract.Notifier,
	index contract.MessageIndexer,
	censor *moderation.Censor,
	deliveryTimeout time.Duration,
) *Router {
	return &Router{
		log:             log,
		store:           store,
		members:         members,
		unread:          unread,
		notifier:        notifier,
		index:           index,
		censor:          censor,
		deliveryTimeout: deliveryTimeout,
	}
}

// Submit applies the action and returns as soon as the mutation is durable.
// Unread bumps, search indexing and subscriber delivery continue on a
// detached goroutine; the caller never waits for them.
func (r *Router) Submit(ctx context.Context, cmd domain.SubmitCommand) (domain.Message, error) {
	var message domain.Message
	var err error

	switch cmd.Action {
	case domain.ActionSend:
		content := cmd.Content
		if r.censor != nil {
			content = r.censor.Apply(content)
		}
		message, err = r.store.Append(cmd.Room, cmd.Actor, cmd.ActorName, content)
	case domain.ActionEdit:
		message, err = r.store.Edit(cmd.MessageID, cmd.Content, cmd.Actor)
	case domain.ActionDelete:
		message, err = r.store.Delete(cmd.MessageID, cmd.Actor)
	default:
		return domain.Message{}, errors.ErrUnknownAction
	}
	if err != nil {
		return domain.Message{}, err
	}

	go r.deliver(context.WithoutCancel(ctx), message)
	return message, nil
}

// deliver runs steps the caller does not wait for: unread fan-out, index
// upkeep and subscriber pushes. Every per-subscriber failure is isolated.
func (r *Router) deliver(ctx context.Context, message domain.Message) {
	ctx, cancel := context.WithTimeout(ctx, r.deliveryTimeout)
	defer cancel()

	members, err := r.members.Members(message.RoomID)
	if err != nil {
		r.log.Error("Cannot resolve room members, delivery skipped", "room", message.RoomID, "error", err)
		return
	}

	if message.Kind == domain.KindChat {
		recipients := lo.Filter(members, func(userID string, _ int) bool {
			return userID != message.SenderID
		})
		for _, userID := range recipients {
			if err := r.unread.Increment(ctx, message.RoomID, userID); err != nil {
				// An orphan or failed counter is an anomaly, not a reason
				// to abort the broadcast.
				r.log.Warn("Unread increment failed", "room", message.RoomID, "user", userID, "error", err)
			}
		}
	}

	r.reindex(message)

	event := domain.EventOf(message)
	for _, userID := range members {
		if err := r.notifier.Send(ctx, userID, messageFrame, event); err != nil {
			r.log.Warn("Subscriber delivery failed", "room", message.RoomID, "user", userID, "error", err)
			r.notifyActorOfFailure(ctx, message, err)
		}
	}
}

// notifyActorOfFailure reports a delivery failure back to the actor's own
// channel as an ERROR event. Best-effort: if the actor is gone too, the
// log line above is all that remains.
func (r *Router) notifyActorOfFailure(ctx context.Context, message domain.Message, cause error) {
	errorEvent := domain.Event{
		ID:         message.ID.String(),
		RoomID:     message.RoomID,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Kind:       domain.KindError,
		Content:    cause.Error(),
		CreatedAt:  message.CreatedAt,
		UpdatedAt:  message.UpdatedAt,
	}
	_ = r.notifier.Send(ctx, message.SenderID, messageFrame, errorEvent)
}

func (r *Router) reindex(message domain.Message) {
	if r.index == nil {
		return
	}
	var err error
	if message.Deleted() {
		err = r.index.Remove(message.ID)
	} else {
		err = r.index.Index(message)
	}
	if err != nil {
		r.log.Warn("Search index update failed", "message", message.ID, "error", err)
	}
}
