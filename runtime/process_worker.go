package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync/atomic"
	"time"
)

// ProcessWorker runs one tier as a child process, isolated from the supervisor's memory.
// Cancelling the context forwards a termination signal; the child is killed if it
// is still alive after the grace period.
type ProcessWorker struct {
	kind    domain.ProcessKind
	binPath string
	args    []string
	grace   time.Duration
	log     *slog.Logger
	pid     atomic.Int32
}

func NewProcessWorker(kind domain.ProcessKind, binPath string, grace time.Duration, log *slog.Logger, args ...string) *ProcessWorker {
	return &ProcessWorker{
		kind:    kind,
		binPath: binPath,
		args:    args,
		grace:   grace,
		log:     log.With("process", kind),
	}
}

func (p *ProcessWorker) Name() string {
	return fmt.Sprintf("ProcessWorker[%s]", p.kind)
}

// Process returns the running child, with a zero PID when none is running.
func (p *ProcessWorker) Process() domain.Process {
	return domain.Process{PID: domain.PID(p.pid.Load()), Kind: p.kind}
}

// Run starts the child and blocks until it exits.
// A child stopped through ctx is not an error; any other non-zero exit is.
func (p *ProcessWorker) Run(ctx context.Context) error {
	// Fail fast on a wrong binary path
	if _, err := os.Stat(p.binPath); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrProcessNotFound, p.binPath)
	}

	cmd := exec.CommandContext(ctx, p.binPath, p.args...)
	cmd.Stdout = &processLogWriter{logger: p.log, kind: p.kind}
	cmd.Stderr = &processLogWriter{logger: p.log, kind: p.kind, isError: true}
	cmd.Cancel = func() error { return terminate(cmd) }
	cmd.WaitDelay = p.grace
	setPlatformSpecificAttrs(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrProcessStartFailed, err)
	}
	p.pid.Store(int32(cmd.Process.Pid))
	p.log.Info("Process started", "pid", cmd.Process.Pid, "bin", p.binPath)

	err := cmd.Wait()
	p.pid.Store(0)

	if ctx.Err() != nil {
		p.log.Info("Process stopped", "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s exited: %w", p.kind, err)
	}
	p.log.Info("Process exited")
	return nil
}
