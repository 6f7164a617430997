package sink

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/storage"
	"context"
	"log/slog"
)

// LogSink records accepted submissions in the intake append log.
type LogSink struct {
	appendLog storage.IAppendLog
	log       *slog.Logger
}

func NewLogSink(appendLog storage.IAppendLog, log *slog.Logger) LogSink {
	return LogSink{appendLog: appendLog, log: log}
}

func (l LogSink) Consume(_ context.Context, msg domain.Message) error {
	if err := l.appendLog.Append(msg); err != nil {
		return err
	}
	l.log.Debug("Message appended to log", "username", msg.Username)
	return nil
}
