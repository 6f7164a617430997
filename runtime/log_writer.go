package runtime

import (
	"chat-relay/domain"
	"log/slog"
	"strings"
)

// processLogWriter is an io.Writer that redirects a child's stdout or stderr
// to the supervisor's slog.Logger, tagged with the child kind.
type processLogWriter struct {
	logger  *slog.Logger
	kind    domain.ProcessKind
	isError bool
}

// Write logs each non-empty line of p. The child's own structured logs end up
// as the message of a supervisor log entry.
func (w *processLogWriter) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}

	for _, line := range strings.Split(strings.TrimRight(string(p), "\r\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if w.isError {
			w.logger.Error(line, "process", w.kind)
		} else {
			w.logger.Info(line, "process", w.kind)
		}
	}
	return len(p), nil
}
