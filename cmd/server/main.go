package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/auth"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup (like the database close)
// always executes before the process exits.
func run() (int, error) {
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	digester, err := auth.NewDigester(auth.DigestAlgorithm(config.DigestAlgorithm))
	if err != nil {
		return exitConfig, err
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return exitRuntime, fmt.Errorf("credential store: %w", err)
	}
	defer db.Close()

	gate := services.NewAuthService(repositories.NewCredentialRepository(db), digester)
	sessions := runtime.NewSessionRegistry(uint64(config.ColorSeed))
	rooms := runtime.NewRoomRegistry()
	dispatcher := runtime.NewDispatcher(logger, gate, sessions, rooms, time.Now, config.DefaultRoom)

	transport := ws.NewServer(logger, dispatcher, ws.Options{
		OriginPolicy:   ws.OriginPolicy(config.OriginPolicy),
		AllowedOrigins: config.Origins(),
		SendBuffer:     config.ConnectionBufferSize,
		MaxMessageSize: config.MaxMessageSize,
	})
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: transport.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(
		workers.NewListenerWorker(logger, httpServer),
		workers.NewBadgerGCWorker(logger, db, config.BadgerGCInterval),
	)
	supervisor.Run(ctx)

	logger.Info("Relay stopped")
	return exitOK, nil
}
