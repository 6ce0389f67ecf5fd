package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// UnreadCounter tracks per-(room,user) unread message counts in a Redis
// hash per room. Increment is a single HINCRBY, so concurrent increments
// from any number of broadcast events never lose updates. An increment for
// a user without a membership row is tolerated; losing a notification is
// worse than an orphan counter, so anomalies are logged upstream rather
// than rejected here.
type UnreadCounter struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewUnreadCounter(rdb *redis.Client, log *slog.Logger) *UnreadCounter {
	return &UnreadCounter{rdb: rdb, log: log}
}

func unreadKey(roomID string) string {
	return fmt.Sprintf("unread:%s", roomID)
}

// Increment adds 1 to the (roomID,userID) counter, creating it at 1 when
// absent. Single indivisible operation, no read-then-write.
func (u *UnreadCounter) Increment(ctx context.Context, roomID, userID string) error {
	return u.rdb.HIncrBy(ctx, unreadKey(roomID), userID, 1).Err()
}

// Reset zeroes the counter; called when the user opens the room. An absent
// field already reads as zero, so the field is simply removed.
func (u *UnreadCounter) Reset(ctx context.Context, roomID, userID string) error {
	return u.rdb.HDel(ctx, unreadKey(roomID), userID).Err()
}

// Get returns the current count, 0 when no entry exists.
func (u *UnreadCounter) Get(ctx context.Context, roomID, userID string) (int64, error) {
	count, err := u.rdb.HGet(ctx, unreadKey(roomID), userID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// Drop removes the whole room hash, part of the room deletion cascade.
func (u *UnreadCounter) Drop(ctx context.Context, roomID string) error {
	return u.rdb.Del(ctx, unreadKey(roomID)).Err()
}
