package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"

	"orai-chat/api"
	"orai-chat/moderation"
	"orai-chat/observability"
	"orai-chat/presence"
	"orai-chat/repositories"
	"orai-chat/runtime"
	"orai-chat/runtime/workers"
	"orai-chat/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes every component and owns the shutdown order. Returning the
// error to main (instead of exiting in place) lets the deferred cleanups run.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge + Redis)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	redisOptions, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return fmt.Errorf("redis URL invalid: %w", err)
	}
	rdb := redis.NewClient(redisOptions)
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}

	// 3. Instance identity
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	instanceID := hostname + "-" + uuid.NewString()
	log.Info("Instance identity assigned", "instance", instanceID)

	// 4. Core components
	rooms := repositories.NewRoomRepository(db, log)
	store := repositories.NewMessageRepository(db, rooms, log, config.MaxContentLength)
	unread := repositories.NewUnreadCounter(rdb, log)
	index := repositories.NewMessageIndex(writer, log)
	registry := presence.NewRegistry(instanceID, rdb, log, config.ConnectionBufferSize, config.ChannelTTL)

	mask := []rune(config.CensorMask)
	if len(mask) == 0 {
		mask = []rune{'*'}
	}
	censor, err := moderation.NewDefaultCensor(mask[0])
	if err != nil {
		return fmt.Errorf("censor setup failed: %w", err)
	}

	router := runtime.NewRouter(log, store, rooms, unread, registry, index, censor, config.DeliveryTimeout)
	chat := services.NewChatService(log, router, store, rooms, unread, index)

	monitor, err := observability.NewMonitor(log, instanceID)
	if err != nil {
		return fmt.Errorf("monitor setup failed: %w", err)
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewHeartbeatWorker(log, registry, config.HeartbeatInterval))
	go sup.Run(ctx)

	// 7. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	handler := api.NewHandler(log, chat, registry, monitor)
	server := &http.Server{
		Addr:    address,
		Handler: api.NewRouter(handler, config.JwtSecret),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
