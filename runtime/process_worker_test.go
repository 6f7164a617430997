package runtime

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const shell = "/bin/sh"

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(shell); err != nil {
		t.Skip("no POSIX shell available")
	}
}

func TestProcessWorker_CleanExit(t *testing.T) {
	requireShell(t)
	req := require.New(t)
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))

	worker := NewProcessWorker(domain.RELAY, shell, time.Second, log, "-c", "echo relay ready")

	req.NoError(worker.Run(context.Background()))
	req.True(strings.Contains(out.String(), "relay ready"))
	req.Equal(domain.PID(0), worker.Process().PID)
}

func TestProcessWorker_FailingExit(t *testing.T) {
	requireShell(t)
	req := require.New(t)
	worker := NewProcessWorker(domain.INTAKE, shell, time.Second, slog.Default(), "-c", "exit 3")

	err := worker.Run(context.Background())

	req.Error(err)
	req.True(strings.Contains(err.Error(), "INTAKE exited"))
}

func TestProcessWorker_BinaryNotFound(t *testing.T) {
	worker := NewProcessWorker(domain.INTAKE, "/does/not/exist", time.Second, slog.Default())

	err := worker.Run(context.Background())

	require.ErrorIs(t, err, errors.ErrProcessNotFound)
}

func TestProcessWorker_CancelStopsChild(t *testing.T) {
	requireShell(t)
	req := require.New(t)
	worker := NewProcessWorker(domain.RELAY, shell, 500*time.Millisecond, slog.Default(), "-c", "sleep 30")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// Given a running child
	req.Eventually(func() bool { return worker.Process().PID != 0 }, 2*time.Second, 10*time.Millisecond)

	// When the supervisor shuts down
	cancel()

	// Then the child is gone well before its own end
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("child process was not stopped")
	}
}

func TestProcessLogWriter_SplitsLines(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	writer := &processLogWriter{logger: slog.New(slog.NewTextHandler(&out, nil)), kind: domain.RELAY, isError: true}

	n, err := writer.Write([]byte("first\n\nsecond\n"))

	req.NoError(err)
	req.Equal(len("first\n\nsecond\n"), n)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	req.Len(lines, 2)
	req.True(strings.Contains(lines[0], "level=ERROR"))
	req.True(strings.Contains(lines[1], "msg=second"))
	req.True(strings.Contains(lines[1], "process=RELAY"))
}
