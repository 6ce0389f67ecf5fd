package presence

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"orai-chat/domain"
	"orai-chat/errors"
)

// Channel is one user's server-to-client push connection on this instance.
// Frames are buffered; a full buffer is treated as a dead consumer, exactly
// like a failed write, and triggers teardown upstream.
type Channel struct {
	id        string
	userID    string
	expiresAt time.Time

	frames    chan domain.Frame
	done      chan struct{}
	closeOnce sync.Once
}

func newChannel(userID string, buffer int, lifetime time.Duration) *Channel {
	return &Channel{
		id:        uuid.NewString(),
		userID:    userID,
		expiresAt: time.Now().Add(lifetime),
		frames:    make(chan domain.Frame, buffer),
		done:      make(chan struct{}),
	}
}

func (c *Channel) ID() string     { return c.id }
func (c *Channel) UserID() string { return c.userID }

// Frames is consumed by the transport writing to the client.
func (c *Channel) Frames() <-chan domain.Frame { return c.frames }

// Done closes when the channel is torn down.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Expired reports whether the bounded lifetime has elapsed.
func (c *Channel) Expired(now time.Time) bool {
	return now.After(c.expiresAt)
}

// Push queues a frame without blocking. A closed or saturated channel is an
// error: both are proof the consumer is gone.
func (c *Channel) Push(frame domain.Frame) error {
	select {
	case <-c.done:
		return errors.ErrChannelClosed
	default:
	}
	select {
	case c.frames <- frame:
		return nil
	case <-c.done:
		return errors.ErrChannelClosed
	default:
		return errors.ErrChannelBlocked
	}
}

// Close is idempotent.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
