package main

import (
	"chat-relay/infrastructure/http/server"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/tcp/client"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

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
		fmt.Fprintf(os.Stderr, "Intake terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the HTTP tier: static pages, form submission relayed over TCP,
// then recorded in the local append log.
func run() (int, error) {
	var config internal.IntakeConfig
	if err := internal.LoadConfig(&config); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	appendLog, err := storage.OpenAppendLog(config.AppendLogPath)
	if err != nil {
		return exitRuntime, err
	}
	defer func() {
		log.Info("Closing append log...")
		_ = appendLog.Close()
	}()

	relay := client.NewRelayClient(config.RelayAddr, config.RelayDialTimeout, log)
	intake := server.NewIntakeServer(server.Settings{
		Addr:         config.Addr(),
		StaticDir:    config.StaticDir,
		ReadTimeout:  config.HTTPReadTimeout,
		WriteTimeout: config.HTTPWriteTimeout,
	}, relay, sink.NewLogSink(appendLog, log), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Side listeners live as long as the intake server does
	auxCtx, cancelAux := context.WithCancel(ctx)
	sup := workers.NewSupervisor(log, 0)
	if config.MetricsAddr != "" {
		sup.Add(observability.NewMetricsServer(config.MetricsAddr, "intake", log))
	}
	auxDone := make(chan struct{})
	go func() {
		sup.Run(auxCtx)
		close(auxDone)
	}()

	err = intake.Run(ctx)
	cancelAux()
	<-auxDone
	if err != nil {
		return exitRuntime, err
	}
	log.Info("Intake stopped cleanly")
	return exitOK, nil
}
