//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"orai-chat/contract"
	"orai-chat/domain"
	"orai-chat/errors"
)

// maxSeek is lexicographically above any 19-digit padded timestamp.
const maxSeek = "9999999999999999999"

type IMessageRepository interface {
	contract.MessageStore
	ListAll(roomID, requesterID string) ([]domain.Message, error)
	ListRecent(roomID, requesterID string, limit int) ([]domain.Message, error)
	ListBefore(roomID, requesterID string, cursor time.Time, limit int) ([]domain.Message, error)
	ListAfter(roomID, requesterID string, cursor time.Time) ([]domain.Message, error)
	Count(roomID, requesterID string) (int64, error)
	PurgeRoom(roomID string) error
}

// MessageRepository persists messages in BadgerDB.
//
// The primary key is "msg:{roomID}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding makes lexicographic order chronological.
//  2. The trailing UUID disambiguates two messages on the same nanosecond.
//
// A secondary key "msgid:{uuid}" points at the primary key so edits and
// deletions can find a record without knowing its timestamp. Mutations run
// inside a single Badger transaction, so two concurrent edits of the same
// message resolve to a definite last-writer order.
type MessageRepository struct {
	db         *badger.DB
	rooms      contract.MembershipAuthority
	log        *slog.Logger
	maxContent int

	mu       sync.Mutex
	lastUnix int64 // creation order guard, keeps CreatedAt non-decreasing
}

func NewMessageRepository(db *badger.DB, rooms contract.MembershipAuthority, log *slog.Logger, maxContent int) *MessageRepository {
	return &MessageRepository{db: db, rooms: rooms, log: log, maxContent: maxContent}
}

func messageKey(roomID string, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", roomID, at.UnixNano(), id))
}

func messagePrefix(roomID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", roomID))
}

func messageIDKey(id uuid.UUID) []byte {
	return []byte("msgid:" + id.String())
}

// Append validates, authorizes and persists a new CHAT message.
func (m *MessageRepository) Append(roomID, senderID, senderName, content string) (domain.Message, error) {
	if err := m.validateContent(content); err != nil {
		return domain.Message{}, err
	}
	if err := m.requireMember(roomID, senderID); err != nil {
		return domain.Message{}, err
	}

	now := m.nextCreationTime()
	message := domain.Message{
		ID:         uuid.New(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Kind:       domain.KindChat,
		Content:    content,
		Lang:       domain.DetectLang(content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	bytes, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, err
	}

	key := messageKey(roomID, message.CreatedAt, message.ID)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(messageIDKey(message.ID), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Edit overwrites the content of an existing message and marks it EDIT.
// Only the original sender may edit; identical content is rejected so no
// spurious broadcast traffic is generated; DELETE is terminal.
func (m *MessageRepository) Edit(messageID uuid.UUID, newContent, requesterID string) (domain.Message, error) {
	if err := m.validateContent(newContent); err != nil {
		return domain.Message{}, err
	}
	return m.mutate(messageID, requesterID, func(message *domain.Message) error {
		if message.Content == newContent {
			return errors.ErrSameContent
		}
		message.Kind = domain.KindEdit
		message.Content = newContent
		message.Lang = domain.DetectLang(newContent)
		return nil
	})
}

// Delete replaces the content with the tombstone and marks the record
// DELETE. The slot stays in place for catch-up queries.
func (m *MessageRepository) Delete(messageID uuid.UUID, requesterID string) (domain.Message, error) {
	return m.mutate(messageID, requesterID, func(message *domain.Message) error {
		message.Kind = domain.KindDelete
		message.Content = domain.Tombstone
		message.Lang = ""
		return nil
	})
}

// mutate loads the record through the secondary key, applies the common
// authorization rules plus the given transition, and writes the record back
// under its original primary key, all in one transaction.
func (m *MessageRepository) mutate(messageID uuid.UUID, requesterID string, apply func(*domain.Message) error) (domain.Message, error) {
	var message domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(messageIDKey(messageID))
		if err == badger.ErrKeyNotFound {
			return errors.ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		primaryKey, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(primaryKey)
		if err != nil {
			return err
		}
		if err := item.Value(func(v []byte) error {
			return json.Unmarshal(v, &message)
		}); err != nil {
			return err
		}

		if message.SenderID != requesterID {
			return errors.ErrNotSender
		}
		if message.Deleted() {
			return errors.ErrAlreadyDeleted
		}
		if err := apply(&message); err != nil {
			return err
		}
		message.UpdatedAt = time.Now().UTC()

		bytes, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return txn.Set(primaryKey, bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// ListAll returns every message of the room, ascending by creation time.
func (m *MessageRepository) ListAll(roomID, requesterID string) ([]domain.Message, error) {
	if err := m.requireMember(roomID, requesterID); err != nil {
		return nil, err
	}
	return m.scan(roomID, false, 0, nil)
}

// ListRecent returns the newest messages first, bounded by limit
// (clamped to [1,200]).
func (m *MessageRepository) ListRecent(roomID, requesterID string, limit int) ([]domain.Message, error) {
	if err := m.requireMember(roomID, requesterID); err != nil {
		return nil, err
	}
	return m.scan(roomID, true, lo.Clamp(limit, 1, 200), nil)
}

// ListBefore pages backward in history: at most limit messages strictly
// older than the cursor, descending.
func (m *MessageRepository) ListBefore(roomID, requesterID string, cursor time.Time, limit int) ([]domain.Message, error) {
	if err := m.requireMember(roomID, requesterID); err != nil {
		return nil, err
	}
	return m.scan(roomID, true, lo.Clamp(limit, 1, 200), func(message domain.Message) bool {
		return message.CreatedAt.Before(cursor)
	})
}

// ListAfter is the catch-up dual: every message strictly newer than the
// cursor, ascending.
func (m *MessageRepository) ListAfter(roomID, requesterID string, cursor time.Time) ([]domain.Message, error) {
	if err := m.requireMember(roomID, requesterID); err != nil {
		return nil, err
	}
	return m.scan(roomID, false, 0, func(message domain.Message) bool {
		return message.CreatedAt.After(cursor)
	})
}

// Count reports the number of message slots in the room, keys only.
func (m *MessageRepository) Count(roomID, requesterID string) (int64, error) {
	if err := m.requireMember(roomID, requesterID); err != nil {
		return 0, err
	}
	var count int64
	prefix := messagePrefix(roomID)
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// PurgeRoom drops every message of the room, primary and secondary keys
// alike. Called as part of the room deletion cascade.
func (m *MessageRepository) PurgeRoom(roomID string) error {
	messages, err := m.scan(roomID, false, 0, nil)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		for _, message := range messages {
			if err := txn.Delete(messageKey(roomID, message.CreatedAt, message.ID)); err != nil {
				return err
			}
			if err := txn.Delete(messageIDKey(message.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// scan iterates the room's keyspace. Thanks to the padded timestamp in the
// key, forward iteration is oldest-first and reverse is newest-first; keep
// filters on CreatedAt, limit of 0 means unbounded.
func (m *MessageRepository) scan(roomID string, reverse bool, limit int, keep func(domain.Message) bool) ([]domain.Message, error) {
	var messages []domain.Message
	prefix := messagePrefix(roomID)
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = reverse
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := prefix
		if reverse {
			seekKey = append(append([]byte{}, prefix...), []byte(maxSeek)...)
		}
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				break
			}
			var message domain.Message
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &message)
			})
			if err != nil {
				return err
			}
			if keep != nil && !keep(message) {
				continue
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

func (m *MessageRepository) validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.ErrBlankContent
	}
	if len([]rune(content)) > m.maxContent {
		return errors.ErrContentTooLong
	}
	return nil
}

func (m *MessageRepository) requireMember(roomID, userID string) error {
	exists, err := m.rooms.Exists(roomID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrRoomNotFound
	}
	member, err := m.rooms.IsMember(roomID, userID)
	if err != nil {
		return err
	}
	if !member {
		return errors.ErrRoomAccessDenied
	}
	return nil
}

// nextCreationTime hands out a non-decreasing UTC timestamp so creation
// order survives small wall-clock steps back.
func (m *MessageRepository) nextCreationTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC().UnixNano()
	if now <= m.lastUnix {
		now = m.lastUnix + 1
	}
	m.lastUnix = now
	return time.Unix(0, now).UTC()
}
