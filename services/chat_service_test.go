package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"orai-chat/domain"
	"orai-chat/errors"
	"orai-chat/presence"
	"orai-chat/repositories"
	"orai-chat/runtime"
)

type chatFixture struct {
	chat   *ChatService
	unread *repositories.UnreadCounter
	rooms  *repositories.RoomRepository
	store  *repositories.MessageRepository
	room   domain.Room
}

func newChatFixture(t *testing.T) chatFixture {
	t.Helper()
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rooms := repositories.NewRoomRepository(db, log)
	store := repositories.NewMessageRepository(db, rooms, log, 2000)
	unread := repositories.NewUnreadCounter(rdb, log)
	index := repositories.NewMessageIndex(writer, log)
	registry := presence.NewRegistry("node-test", rdb, log, 16, time.Hour)

	router := runtime.NewRouter(log, store, rooms, unread, registry, index, nil, time.Second)
	chat := NewChatService(log, router, store, rooms, unread, index)

	room, err := chat.CreateRoom("general", "alice")
	require.NoError(t, err)
	require.NoError(t, chat.Invite(room.ID, "bob"))

	return chatFixture{chat: chat, unread: unread, rooms: rooms, store: store, room: room}
}

func (f chatFixture) send(t *testing.T, sender, content string) domain.Message {
	t.Helper()
	message, err := f.chat.Submit(context.Background(), domain.SubmitCommand{
		Room: f.room.ID, Actor: sender, ActorName: sender,
		Action: domain.ActionSend, Content: content,
	})
	require.NoError(t, err)
	return message
}

func Test_OpenRoom_Returns_The_Page_And_Resets_Unread(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	f.send(t, "alice", "one")
	f.send(t, "alice", "two")

	req.Eventually(func() bool {
		count, err := f.chat.UnreadCount(ctx, f.room.ID, "bob")
		return err == nil && count == 2
	}, time.Second, 10*time.Millisecond)

	messages, err := f.chat.OpenRoom(ctx, f.room.ID, "bob", 10)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("two", messages[0].Content) // newest first

	count, err := f.chat.UnreadCount(ctx, f.room.ID, "bob")
	req.NoError(err)
	req.Zero(count)
}

func Test_Search_Requires_Membership(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	f.send(t, "alice", "the badger digs a tunnel")

	req.Eventually(func() bool {
		hits, err := f.chat.Search(ctx, f.room.ID, "bob", "badger", 10)
		return err == nil && len(hits) == 1
	}, time.Second, 10*time.Millisecond)

	_, err := f.chat.Search(ctx, f.room.ID, "mallory", "badger", 10)
	req.ErrorIs(err, errors.ErrRoomAccessDenied)
}

func Test_DeleteRoom_Cascades_Everything(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)
	ctx := context.Background()

	f.send(t, "alice", "doomed message")
	req.Eventually(func() bool {
		count, err := f.chat.UnreadCount(ctx, f.room.ID, "bob")
		return err == nil && count == 1
	}, time.Second, 10*time.Millisecond)

	req.ErrorIs(f.chat.DeleteRoom(ctx, f.room.ID, "bob"), errors.ErrNotCreator)
	req.NoError(f.chat.DeleteRoom(ctx, f.room.ID, "alice"))

	exists, err := f.rooms.Exists(f.room.ID)
	req.NoError(err)
	req.False(exists)

	count, err := f.unread.Get(ctx, f.room.ID, "bob")
	req.NoError(err)
	req.Zero(count)

	_, err = f.chat.ListAll(f.room.ID, "alice")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func Test_Leave_Revokes_Access(t *testing.T) {
	req := require.New(t)
	f := newChatFixture(t)

	f.send(t, "bob", "still here")
	req.NoError(f.chat.Leave(f.room.ID, "bob"))

	_, err := f.chat.ListAll(f.room.ID, "bob")
	req.ErrorIs(err, errors.ErrRoomAccessDenied)
}
