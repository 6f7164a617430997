package sink

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/storage"
	"context"
	"log/slog"
)

// StoreSink inserts relayed messages into the structured store.
type StoreSink struct {
	repository storage.IMessageRepository
	log        *slog.Logger
}

func NewStoreSink(repository storage.IMessageRepository, log *slog.Logger) StoreSink {
	return StoreSink{repository: repository, log: log}
}

func (s StoreSink) Consume(_ context.Context, msg domain.Message) error {
	id, err := s.repository.Insert(msg)
	if err != nil {
		return err
	}
	s.log.Debug("Message stored", "id", id.String(), "username", msg.Username)
	return nil
}
