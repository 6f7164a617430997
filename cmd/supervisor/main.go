package main

import (
	"chat-relay/domain"
	"chat-relay/internal"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"errors"
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
		fmt.Fprintf(os.Stderr, "Supervisor terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run starts the relay and intake binaries as two child processes and returns
// once both have exited. SIGINT/SIGTERM are forwarded to both children.
// A crashed child is not restarted.
func run() (int, error) {
	var config internal.SupervisorConfig
	if err := internal.LoadConfig(&config); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	relay := runtime.NewProcessWorker(domain.RELAY, config.RelayBinPath, config.ShutdownGrace, log)
	intake := runtime.NewProcessWorker(domain.INTAKE, config.IntakeBinPath, config.ShutdownGrace, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitor := workers.NewProcessMonitorWorker(log, config.MonitorInterval, config.RelayHealthAddr, relay, intake)
		if err := monitor.Run(monitorCtx); err != nil {
			log.Warn("Process monitor stopped", "error", err)
		}
	}()

	sup := workers.NewSupervisor(log, 0)
	sup.Add(relay, intake).Run(ctx)

	cancelMonitor()
	<-monitorDone

	if failures := sup.Failures(); len(failures) > 0 {
		return exitRuntime, errors.Join(failures...)
	}
	log.Info("Both tiers exited")
	return exitOK, nil
}
