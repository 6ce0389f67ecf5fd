package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"orai-chat/domain"
	"orai-chat/errors"
)

const testMaxContent = 2000

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestStore returns a message repository backed by a fresh room with
// Alice (creator), Bob and Clara as members.
func newTestStore(t *testing.T) (*MessageRepository, *RoomRepository, domain.Room) {
	t.Helper()
	db := openTestDB(t)
	rooms := NewRoomRepository(db, slog.Default())
	room, err := rooms.Create("general", "alice")
	require.NoError(t, err)
	require.NoError(t, rooms.AddMember(room.ID, "bob"))
	require.NoError(t, rooms.AddMember(room.ID, "clara"))
	return NewMessageRepository(db, rooms, slog.Default(), testMaxContent), rooms, room
}

func Test_Append_And_List_Sorted(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	for i := 1; i <= 5; i++ {
		_, err := store.Append(room.ID, "alice", "Alice", fmt.Sprintf("Message %d", i))
		req.NoError(err)
	}

	messages, err := store.ListAll(room.ID, "alice")
	req.NoError(err)
	req.Len(messages, 5)
	for i := 1; i < len(messages); i++ {
		req.True(messages[i].CreatedAt.After(messages[i-1].CreatedAt),
			"messages must come back oldest first")
	}
	req.Equal("Message 1", messages[0].Content)
	req.Equal("Message 5", messages[4].Content)
	req.Equal(domain.KindChat, messages[0].Kind)
}

func Test_Append_Creation_Times_Strictly_Increase(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	var last time.Time
	for i := 0; i < 50; i++ {
		message, err := store.Append(room.ID, "bob", "Bob", "tick")
		req.NoError(err)
		req.True(message.CreatedAt.After(last))
		last = message.CreatedAt
	}
}

func Test_Append_Rejects_Blank_And_Oversized_Content(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	_, err := store.Append(room.ID, "alice", "Alice", "   ")
	req.ErrorIs(err, errors.ErrBlankContent)

	long := make([]rune, testMaxContent+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = store.Append(room.ID, "alice", "Alice", string(long))
	req.ErrorIs(err, errors.ErrContentTooLong)

	count, err := store.Count(room.ID, "alice")
	req.NoError(err)
	req.Zero(count)
}

func Test_NonMember_Cannot_Read_Or_Write(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	_, err := store.Append(room.ID, "mallory", "Mallory", "hello")
	req.ErrorIs(err, errors.ErrRoomAccessDenied)

	_, err = store.ListAll(room.ID, "mallory")
	req.ErrorIs(err, errors.ErrRoomAccessDenied)

	_, err = store.Append("no-such-room", "alice", "Alice", "hello")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func Test_ListRecent_Newest_First_And_Clamped(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	for i := 1; i <= 10; i++ {
		_, err := store.Append(room.ID, "alice", "Alice", fmt.Sprintf("Message %d", i))
		req.NoError(err)
	}

	messages, err := store.ListRecent(room.ID, "bob", 4)
	req.NoError(err)
	req.Len(messages, 4)
	req.Equal("Message 10", messages[0].Content)
	req.Equal("Message 7", messages[3].Content)

	// A non-positive limit falls back to the minimum page of 1.
	messages, err = store.ListRecent(room.ID, "bob", 0)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("Message 10", messages[0].Content)
}

func Test_Pagination_Before_And_After_Exclude_The_Cursor(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	var all []domain.Message
	for i := 1; i <= 10; i++ {
		message, err := store.Append(room.ID, "alice", "Alice", fmt.Sprintf("Message %d", i))
		req.NoError(err)
		all = append(all, message)
	}
	cursor := all[4].CreatedAt // Message 5

	older, err := store.ListBefore(room.ID, "bob", cursor, 200)
	req.NoError(err)
	req.Len(older, 4)
	req.Equal("Message 4", older[0].Content) // newest of the older page first
	req.Equal("Message 1", older[3].Content)

	newer, err := store.ListAfter(room.ID, "bob", cursor)
	req.NoError(err)
	req.Len(newer, 5)
	req.Equal("Message 6", newer[0].Content)
	req.Equal("Message 10", newer[4].Content)
}

func Test_Edit_Rewrites_In_Place(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	original, err := store.Append(room.ID, "alice", "Alice", "hello world")
	req.NoError(err)

	edited, err := store.Edit(original.ID, "hello badger", "alice")
	req.NoError(err)
	req.Equal(original.ID, edited.ID)
	req.Equal(domain.KindEdit, edited.Kind)
	req.Equal("hello badger", edited.Content)
	req.Equal(original.CreatedAt, edited.CreatedAt)
	req.False(edited.UpdatedAt.Before(original.UpdatedAt))

	// The record keeps its history slot.
	messages, err := store.ListAll(room.ID, "alice")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("hello badger", messages[0].Content)
}

func Test_Edit_Rejects_Identical_Content(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	message, err := store.Append(room.ID, "alice", "Alice", "hello world")
	req.NoError(err)

	_, err = store.Edit(message.ID, "hello world", "alice")
	req.ErrorIs(err, errors.ErrSameContent)
}

func Test_Only_The_Sender_May_Edit_Or_Delete(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	message, err := store.Append(room.ID, "alice", "Alice", "hello world")
	req.NoError(err)

	_, err = store.Edit(message.ID, "hacked", "bob")
	req.ErrorIs(err, errors.ErrNotSender)

	_, err = store.Delete(message.ID, "bob")
	req.ErrorIs(err, errors.ErrNotSender)

	_, err = store.Edit(uuid.New(), "anything", "alice")
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_Delete_Leaves_A_Tombstone_And_Is_Terminal(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	message, err := store.Append(room.ID, "alice", "Alice", "hello world")
	req.NoError(err)

	deleted, err := store.Delete(message.ID, "alice")
	req.NoError(err)
	req.Equal(domain.KindDelete, deleted.Kind)
	req.Equal(domain.Tombstone, deleted.Content)

	// The slot stays, holding the tombstone.
	messages, err := store.ListAll(room.ID, "alice")
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(domain.Tombstone, messages[0].Content)

	// No transition leaves the DELETE state, not even another delete.
	_, err = store.Edit(message.ID, "resurrected", "alice")
	req.ErrorIs(err, errors.ErrAlreadyDeleted)
	_, err = store.Delete(message.ID, "alice")
	req.ErrorIs(err, errors.ErrAlreadyDeleted)
}

func Test_Count_And_PurgeRoom(t *testing.T) {
	req := require.New(t)
	store, _, room := newTestStore(t)

	for i := 0; i < 7; i++ {
		_, err := store.Append(room.ID, "clara", "Clara", "another one")
		req.NoError(err)
	}

	count, err := store.Count(room.ID, "clara")
	req.NoError(err)
	req.EqualValues(7, count)

	req.NoError(store.PurgeRoom(room.ID))

	count, err = store.Count(room.ID, "clara")
	req.NoError(err)
	req.Zero(count)
}
