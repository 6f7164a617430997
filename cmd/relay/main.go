package main

import (
	"chat-relay/infrastructure/grpc/health"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/tcp/server"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the TCP tier: one message per connection, decoded then inserted
// into the structured store.
func run() (int, error) {
	var config internal.RelayConfig
	if err := internal.LoadConfig(&config); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	repository := storage.NewMessageRepository(db, log, nil)
	relay := server.NewRelayServer(config.Addr(), sink.NewStoreSink(repository, log), log, config.ReadTimeout)
	if err = relay.Listen(); err != nil {
		return exitRuntime, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auxCtx, cancelAux := context.WithCancel(ctx)
	sup := workers.NewSupervisor(log, 0)
	var healthServer *health.Server
	if config.HealthAddr != "" {
		healthServer = health.NewServer(config.HealthAddr, log)
		healthServer.SetServing(true)
		sup.Add(healthServer)
	}
	if config.MetricsAddr != "" {
		sup.Add(observability.NewMetricsServer(config.MetricsAddr, "relay", log))
	}
	auxDone := make(chan struct{})
	go func() {
		sup.Run(auxCtx)
		close(auxDone)
	}()

	err = relay.Run(ctx)
	if healthServer != nil {
		healthServer.SetServing(false)
	}
	cancelAux()
	<-auxDone
	if err != nil {
		return exitRuntime, err
	}
	log.Info("Relay stopped cleanly")
	return exitOK, nil
}
