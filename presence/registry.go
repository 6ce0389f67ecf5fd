// Package presence tracks which users hold an open notification channel,
// locally per instance and cluster-wide through a shared Redis directory.
package presence

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"orai-chat/domain"
)

// directoryKey is the Redis hash mapping userID -> "{instanceID}:{channelID}".
const directoryKey = "user:connections"

const connectGreeting = "Connected to notification service"

// releaseClaim deletes a directory entry only while it still belongs to the
// releasing instance. An unconditional HDEL would let instance A's delayed
// disconnect clobber instance B's fresh claim.
var releaseClaim = redis.NewScript(`
if redis.call("hget", KEYS[1], ARGV[1]) == ARGV[2] then
    return redis.call("hdel", KEYS[1], ARGV[1])
end
return 0`)

// Registry owns the local channel table and mirrors ownership into the
// shared directory. At most one local channel per user; the directory entry
// is last-writer-wins on connect and compare-and-delete on disconnect.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel

	instanceID string
	rdb        *redis.Client
	log        *slog.Logger
	buffer     int
	lifetime   time.Duration
}

func NewRegistry(instanceID string, rdb *redis.Client, log *slog.Logger, buffer int, lifetime time.Duration) *Registry {
	return &Registry{
		channels:   make(map[string]*Channel),
		instanceID: instanceID,
		rdb:        rdb,
		log:        log,
		buffer:     buffer,
		lifetime:   lifetime,
	}
}

func (r *Registry) claim(ch *Channel) string {
	return fmt.Sprintf("%s:%s", r.instanceID, ch.ID())
}

// Connect opens a fresh channel for the user, tearing down any prior local
// one first, records the claim in the shared directory and pushes the
// greeting frame. A failed greeting means the consumer never attached, so
// the whole connect is unwound.
func (r *Registry) Connect(ctx context.Context, userID string) (*Channel, error) {
	r.Disconnect(ctx, userID)

	ch := newChannel(userID, r.buffer, r.lifetime)
	r.mu.Lock()
	r.channels[userID] = ch
	r.mu.Unlock()

	if err := r.rdb.HSet(ctx, directoryKey, userID, r.claim(ch)).Err(); err != nil {
		// Directory is advisory: a missing entry costs a client re-fetch,
		// not data loss. Local delivery still works.
		r.log.Warn("Failed to record connection in directory", "user", userID, "error", err)
	}

	if err := ch.Push(domain.Frame{Name: "connect", Data: connectGreeting}); err != nil {
		r.log.Error("Failed to send connect frame", "user", userID, "error", err)
		r.Disconnect(ctx, userID)
		return nil, err
	}
	return ch, nil
}

// Send pushes a named frame to the user's local channel. No local channel
// means the user is offline or connected to another instance: a silent
// no-op, catch-up happens through store queries. A failed push tears the
// channel down like an explicit disconnect.
func (r *Registry) Send(ctx context.Context, userID, name string, data any) error {
	r.mu.RLock()
	ch := r.channels[userID]
	r.mu.RUnlock()
	if ch == nil {
		return nil
	}
	if err := ch.Push(domain.Frame{Name: name, Data: data}); err != nil {
		r.log.Warn("Channel write failed, removing channel", "user", userID, "error", err)
		r.Disconnect(ctx, userID)
		return err
	}
	return nil
}

// Disconnect is idempotent. It removes the local channel and releases the
// directory entry only if it still points at this instance's channel.
func (r *Registry) Disconnect(ctx context.Context, userID string) {
	r.mu.Lock()
	ch := r.channels[userID]
	delete(r.channels, userID)
	r.mu.Unlock()
	if ch == nil {
		return
	}

	ch.Close()
	// Streams usually end by request-context cancellation; the directory
	// release still has to reach Redis, so it runs on a detached context.
	ctx = context.WithoutCancel(ctx)
	if err := releaseClaim.Run(ctx, r.rdb, []string{directoryKey}, userID, r.claim(ch)).Err(); err != nil && err != redis.Nil {
		r.log.Warn("Failed to release directory entry", "user", userID, "error", err)
	}
	r.log.Debug("Removed channel", "user", userID)
}

// Sweep pushes a heartbeat to every local channel and tears down expired or
// unresponsive ones. Driven by a single shared worker, never by per-channel
// timers.
func (r *Registry) Sweep(ctx context.Context, now time.Time) {
	r.mu.RLock()
	channels := make([]*Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		channels = append(channels, ch)
	}
	r.mu.RUnlock()

	for _, ch := range channels {
		if ch.Expired(now) {
			r.log.Debug("Channel lifetime elapsed", "user", ch.UserID())
			r.Disconnect(ctx, ch.UserID())
			continue
		}
		if err := ch.Push(domain.Frame{Name: "heartbeat", Data: "keep-alive"}); err != nil {
			r.log.Warn("Failed to send heartbeat, removing channel", "user", ch.UserID())
			r.Disconnect(ctx, ch.UserID())
		}
	}
}

// Owner reports which instance currently claims the user's channel,
// according to the shared directory.
func (r *Registry) Owner(ctx context.Context, userID string) (string, bool, error) {
	value, err := r.rdb.HGet(ctx, directoryKey, userID).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	instanceID, _, found := strings.Cut(value, ":")
	if !found {
		return value, true, nil
	}
	return instanceID, true, nil
}

// LocalCount reports the number of channels held by this instance.
func (r *Registry) LocalCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// InstanceID identifies this process in the directory.
func (r *Registry) InstanceID() string {
	return r.instanceID
}
