//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"orai-chat/domain"
	"orai-chat/errors"
)

type IRoomRepository interface {
	Create(name, creatorID string) (domain.Room, error)
	Get(roomID string) (domain.Room, error)
	Exists(roomID string) (bool, error)
	IsMember(roomID, userID string) (bool, error)
	Members(roomID string) ([]string, error)
	AddMember(roomID, userID string) error
	RemoveMember(roomID, userID string) error
	Delete(roomID, requesterID string) error
}

// RoomRepository persists rooms and their membership rows in BadgerDB.
//
// Keys:
//   - "room:{roomID}"            -> Room
//   - "member:{roomID}:{userID}" -> Membership
type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, log: log}
}

func roomKey(roomID string) []byte {
	return []byte("room:" + roomID)
}

func memberKey(roomID, userID string) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", roomID, userID))
}

func memberPrefix(roomID string) []byte {
	return []byte(fmt.Sprintf("member:%s:", roomID))
}

// Create stores the room and its creator's membership in one transaction.
// The creator is a member from the first moment the room exists.
func (r *RoomRepository) Create(name, creatorID string) (domain.Room, error) {
	room := domain.Room{
		ID:        uuid.NewString(),
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: time.Now().UTC(),
	}
	roomBytes, err := json.Marshal(room)
	if err != nil {
		return domain.Room{}, err
	}
	membership := domain.Membership{RoomID: room.ID, UserID: creatorID, JoinedAt: room.CreatedAt}
	memberBytes, err := json.Marshal(membership)
	if err != nil {
		return domain.Room{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(roomKey(room.ID), roomBytes); err != nil {
			return err
		}
		return txn.Set(memberKey(room.ID, creatorID), memberBytes)
	})
	if err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) Get(roomID string) (domain.Room, error) {
	var room domain.Room
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(roomID))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &room)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	return room, err
}

func (r *RoomRepository) Exists(roomID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomKey(roomID))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *RoomRepository) IsMember(roomID, userID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(memberKey(roomID, userID))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

// Members returns the user ids of everyone in the room via a prefix scan.
func (r *RoomRepository) Members(roomID string) ([]string, error) {
	var members []string
	prefix := memberPrefix(roomID)
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			members = append(members, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return members, err
}

// AddMember creates the membership row; inviting an existing member is a
// no-op rewrite of the same key.
func (r *RoomRepository) AddMember(roomID, userID string) error {
	exists, err := r.Exists(roomID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrRoomNotFound
	}

	membership := domain.Membership{RoomID: roomID, UserID: userID, JoinedAt: time.Now().UTC()}
	bytes, err := json.Marshal(membership)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(roomID, userID), bytes)
	})
}

// RemoveMember handles both leave and kick. The creator's membership is
// immutable while the room exists.
func (r *RoomRepository) RemoveMember(roomID, userID string) error {
	room, err := r.Get(roomID)
	if err != nil {
		return err
	}
	if room.CreatorID == userID {
		return errors.ErrCreatorImmutable
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(memberKey(roomID, userID))
	})
}

// Delete removes the room and every membership row. Only the creator may
// delete. Message cascade is handled by the message repository's PurgeRoom.
func (r *RoomRepository) Delete(roomID, requesterID string) error {
	room, err := r.Get(roomID)
	if err != nil {
		return err
	}
	if room.CreatorID != requesterID {
		return errors.ErrNotCreator
	}

	members, err := r.Members(roomID)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(roomKey(roomID)); err != nil {
			return err
		}
		for _, userID := range members {
			if err := txn.Delete(memberKey(roomID, userID)); err != nil {
				return err
			}
		}
		return nil
	})
}
