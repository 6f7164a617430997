//go:generate go run go.uber.org/mock/mockgen -source=message_repository.go -destination=../../mocks/mock_message_repository.go -package=mocks
package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const messagePrefix = "msg:"

type IMessageRepository interface {
	Insert(msg domain.Message) (uuid.UUID, error)
	GetMessages(cursor *string) ([]StoredMessage, *string, error)
}

// StoredMessage is a message as recorded by the structured store.
type StoredMessage struct {
	ID        uuid.UUID
	Username  string
	Body      string
	Timestamp time.Time
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// Insert persists a message in BadgerDB and returns its record ID.
// The key is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     carry the same nanosecond.
//
// The timestamp is the one assigned at intake; the store never re-stamps.
func (m *MessageRepository) Insert(msg domain.Message) (uuid.UUID, error) {
	id := uuid.New()
	key := fmt.Sprintf("%s%019d:%s", messagePrefix, msg.Timestamp.UnixNano(), id)

	record, err := structpb.NewStruct(map[string]any{
		"id":        id.String(),
		"username":  msg.Username,
		"body":      msg.Body,
		"timestamp": msg.Timestamp.Format(time.RFC3339Nano),
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errors.ErrStoreInsert, err)
	}
	bytes, err := proto.Marshal(record)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errors.ErrStoreInsert, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errors.ErrStoreInsert, err)
	}
	return id, nil
}

// GetMessages retrieves messages newest first using a reverse prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
// It stops collecting messages once the configured limitMessages is reached and
// returns the cursor to resume from.
func (m *MessageRepository) GetMessages(cursor *string) ([]StoredMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Start past the newest possible key, then walk backwards
			seekKey = append([]byte(messagePrefix), []byte("9999999999999999999")...)
		default:
			seekKey = append([]byte(messagePrefix), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefix):])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	messages := make([]StoredMessage, 0, len(byteMessages))
	for _, b := range byteMessages {
		message, err := toStoredMessage(b)
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, &lastKey, nil
}

func toStoredMessage(value []byte) (StoredMessage, error) {
	var record structpb.Struct
	if err := proto.Unmarshal(value, &record); err != nil {
		return StoredMessage{}, err
	}
	fields := record.GetFields()
	id, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return StoredMessage{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, fields["timestamp"].GetStringValue())
	if err != nil {
		return StoredMessage{}, err
	}
	return StoredMessage{
		ID:        id,
		Username:  fields["username"].GetStringValue(),
		Body:      fields["body"].GetStringValue(),
		Timestamp: at,
	}, nil
}
