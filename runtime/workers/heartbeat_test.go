package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"orai-chat/presence"
)

func TestHeartbeatWorker_SweepsOnEveryTick(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	registry := presence.NewRegistry("node-1", rdb, slog.Default(), 16, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := registry.Connect(ctx, "alice")
	req.NoError(err)
	<-ch.Frames() // greeting

	worker := NewHeartbeatWorker(slog.Default(), registry, 20*time.Millisecond)
	go func() { _ = worker.Run(ctx) }()

	// Several ticks must each land a keep-alive frame.
	for i := 0; i < 3; i++ {
		select {
		case frame := <-ch.Frames():
			req.Equal("heartbeat", frame.Name)
		case <-time.After(500 * time.Millisecond):
			req.Fail("expected a heartbeat frame")
		}
	}
}

func TestHeartbeatWorker_StopsWithTheContext(t *testing.T) {
	req := require.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	registry := presence.NewRegistry("node-1", rdb, slog.Default(), 16, time.Hour)
	worker := NewHeartbeatWorker(slog.Default(), registry, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(500 * time.Millisecond):
		req.Fail("worker should stop when the context is canceled")
	}
}
