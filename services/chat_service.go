package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"orai-chat/contract"
	"orai-chat/domain"
	"orai-chat/repositories"
	"orai-chat/runtime"
)

// ChatService is the facade the transport talks to. It groups room
// lifecycle, message reads and the broadcast path; submit semantics live in
// the router, storage semantics in the repositories.
type ChatService struct {
	log    *slog.Logger
	router *runtime.Router
	store  repositories.IMessageRepository
	rooms  repositories.IRoomRepository
	unread contract.Counter
	index  *repositories.MessageIndex
}

func NewChatService(
	log *slog.Logger,
	router *runtime.Router,
	store repositories.IMessageRepository,
	rooms repositories.IRoomRepository,
	unread contract.Counter,
	index *repositories.MessageIndex,
) *ChatService {
	return &ChatService{log: log, router: router, store: store, rooms: rooms, unread: unread, index: index}
}

// Submit routes an inbound chat action. The returned message reflects the
// durable state; delivery continues in the background.
func (s *ChatService) Submit(ctx context.Context, cmd domain.SubmitCommand) (domain.Message, error) {
	return s.router.Submit(ctx, cmd)
}

func (s *ChatService) ListAll(roomID, requesterID string) ([]domain.Message, error) {
	return s.store.ListAll(roomID, requesterID)
}

func (s *ChatService) ListRecent(roomID, requesterID string, limit int) ([]domain.Message, error) {
	return s.store.ListRecent(roomID, requesterID, limit)
}

func (s *ChatService) ListBefore(roomID, requesterID string, cursor time.Time, limit int) ([]domain.Message, error) {
	return s.store.ListBefore(roomID, requesterID, cursor, limit)
}

func (s *ChatService) ListAfter(roomID, requesterID string, cursor time.Time) ([]domain.Message, error) {
	return s.store.ListAfter(roomID, requesterID, cursor)
}

func (s *ChatService) Count(roomID, requesterID string) (int64, error) {
	return s.store.Count(roomID, requesterID)
}

// Search requires membership like any other read, then queries the index.
func (s *ChatService) Search(ctx context.Context, roomID, requesterID, terms string, limit int) ([]repositories.SearchHit, error) {
	if _, err := s.store.Count(roomID, requesterID); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, roomID, terms, limit)
}

// OpenRoom marks the room as viewed: the unread counter resets and the
// most recent page is returned in one call.
func (s *ChatService) OpenRoom(ctx context.Context, roomID, userID string, limit int) ([]domain.Message, error) {
	messages, err := s.store.ListRecent(roomID, userID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.unread.Reset(ctx, roomID, userID); err != nil {
		s.log.Warn("Unread reset failed", "room", roomID, "user", userID, "error", err)
	}
	return messages, nil
}

func (s *ChatService) UnreadCount(ctx context.Context, roomID, userID string) (int64, error) {
	return s.unread.Get(ctx, roomID, userID)
}

func (s *ChatService) CreateRoom(name, creatorID string) (domain.Room, error) {
	return s.rooms.Create(name, creatorID)
}

func (s *ChatService) Invite(roomID, userID string) error {
	return s.rooms.AddMember(roomID, userID)
}

func (s *ChatService) Leave(roomID, userID string) error {
	return s.rooms.RemoveMember(roomID, userID)
}

// DeleteRoom cascades: membership rows, message slots, index entries and
// unread counters all go with the room.
func (s *ChatService) DeleteRoom(ctx context.Context, roomID, requesterID string) error {
	messages, err := s.store.ListAll(roomID, requesterID)
	if err != nil {
		return err
	}
	if err := s.rooms.Delete(roomID, requesterID); err != nil {
		return err
	}
	if err := s.store.PurgeRoom(roomID); err != nil {
		return err
	}
	if s.index != nil {
		for _, message := range messages {
			if err := s.index.Remove(message.ID); err != nil {
				s.log.Warn("Index cleanup failed", "message", message.ID, "error", err)
			}
		}
	}
	if counter, ok := s.unread.(*repositories.UnreadCounter); ok {
		if err := counter.Drop(ctx, roomID); err != nil {
			s.log.Warn("Unread cascade failed", "room", roomID, "error", err)
		}
	}
	return nil
}

// EditCommand and DeleteCommand are small helpers building the submit
// commands the transport needs most often.
func EditCommand(roomID, actorID, actorName string, messageID uuid.UUID, content string) domain.SubmitCommand {
	return domain.SubmitCommand{
		Room:      roomID,
		Actor:     actorID,
		ActorName: actorName,
		Action:    domain.ActionEdit,
		MessageID: messageID,
		Content:   content,
	}
}

func DeleteCommand(roomID, actorID, actorName string, messageID uuid.UUID) domain.SubmitCommand {
	return domain.SubmitCommand{
		Room:      roomID,
		Actor:     actorID,
		ActorName: actorName,
		Action:    domain.ActionDelete,
		MessageID: messageID,
	}
}
