//go:generate go run go.uber.org/mock/mockgen -source=append_log.go -destination=../../mocks/mock_append_log.go -package=mocks
package storage

import (
	"bufio"
	"bytes"
	"chat-relay/codec"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type IAppendLog interface {
	Append(msg domain.Message) error
}

// AppendLog is a newline-delimited file of encoded messages.
// It is owned by the intake process; writers are serialized so a record is
// always written by a single Write call and never interleaved.
type AppendLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// OpenAppendLog opens path in append mode, creating it and its directory if needed.
func OpenAppendLog(path string) (*AppendLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", errors.ErrAppendLog, err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", errors.ErrAppendLog, path, err)
	}
	return &AppendLog{path: path, file: file}, nil
}

// Append writes one record and flushes it to stable storage.
func (a *AppendLog) Append(msg domain.Message) error {
	payload, err := codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrAppendLog, err)
	}
	record := append(payload, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err = a.file.Write(record); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrAppendLog, err)
	}
	if err = a.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", errors.ErrAppendLog, err)
	}
	return nil
}

func (a *AppendLog) Path() string {
	return a.path
}

func (a *AppendLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// ReadAppendLog decodes every complete record of the log at path.
// A trailing line without terminator is the trace of an interrupted write and is skipped.
func ReadAppendLog(path string) ([]domain.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	complete := data
	if i := bytes.LastIndexByte(data, '\n'); i < len(data)-1 {
		complete = data[:i+1]
	}

	var messages []domain.Message
	scanner := bufio.NewScanner(bytes.NewReader(complete))
	scanner.Buffer(make([]byte, 0, 4096), codec.MaxPayloadSize+1)
	line := 0
	for scanner.Scan() {
		line++
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		msg, err := codec.Decode(scanner.Bytes())
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		messages = append(messages, msg)
	}
	return messages, scanner.Err()
}
