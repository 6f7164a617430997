package storage

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppendLog_CreatesDirectoryAndAppends(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "storage", "data.json")

	// Given a log whose directory doesn't exist yet
	appendLog, err := OpenAppendLog(path)
	req.NoError(err)
	defer appendLog.Close()

	at := time.Now().UTC()
	// When two messages are appended
	req.NoError(appendLog.Append(domain.Message{Username: "alice", Body: "hello", Timestamp: at}))
	req.NoError(appendLog.Append(domain.Message{Username: "bob", Body: "multi\nline", Timestamp: at.Add(time.Second)}))

	// Then the file holds exactly two newline-terminated records
	data, err := os.ReadFile(path)
	req.NoError(err)
	req.Equal(2, strings.Count(string(data), "\n"))
	req.True(strings.HasSuffix(string(data), "\n"))

	records, err := ReadAppendLog(path)
	req.NoError(err)
	req.Len(records, 2)
	req.Equal("alice", records[0].Username)
	req.Equal("multi\nline", records[1].Body)
	req.True(at.Equal(records[0].Timestamp))
}

func TestAppendLog_ReopenKeepsExistingRecords(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "data.json")

	first, err := OpenAppendLog(path)
	req.NoError(err)
	req.NoError(first.Append(domain.Message{Username: "alice", Body: "one", Timestamp: time.Now().UTC()}))
	req.NoError(first.Close())

	second, err := OpenAppendLog(path)
	req.NoError(err)
	defer second.Close()
	req.NoError(second.Append(domain.Message{Username: "alice", Body: "two", Timestamp: time.Now().UTC()}))

	records, err := ReadAppendLog(path)
	req.NoError(err)
	req.Len(records, 2)
	req.Equal("one", records[0].Body)
	req.Equal("two", records[1].Body)
}

func TestAppendLog_ConcurrentWritersNeverInterleave(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "data.json")
	appendLog, err := OpenAppendLog(path)
	req.NoError(err)
	defer appendLog.Close()

	const writers = 20
	const perWriter = 10
	body := strings.Repeat("x", 2048)

	errs := make(chan error, writers*perWriter)
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				msg := domain.Message{Username: fmt.Sprintf("user_%d", w), Body: body, Timestamp: time.Now().UTC()}
				errs <- appendLog.Append(msg)
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Then every line decodes as a full record
	records, err := ReadAppendLog(path)
	req.NoError(err)
	req.Len(records, writers*perWriter)
	for _, r := range records {
		req.Equal(body, r.Body)
	}
}

func TestAppendLog_FailureIsReturned(t *testing.T) {
	req := require.New(t)
	appendLog, err := OpenAppendLog(filepath.Join(t.TempDir(), "data.json"))
	req.NoError(err)

	// Given the underlying file is gone
	req.NoError(appendLog.Close())

	// When appending
	err = appendLog.Append(domain.Message{Username: "alice", Body: "hello", Timestamp: time.Now().UTC()})

	// Then the storage error is surfaced, not panicked
	req.ErrorIs(err, errors.ErrAppendLog)
}

func TestOpenAppendLog_PathIsDirectory(t *testing.T) {
	_, err := OpenAppendLog(t.TempDir())
	require.ErrorIs(t, err, errors.ErrAppendLog)
}

func TestReadAppendLog_SkipsInterruptedRecord(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "data.json")
	content := `{"username":"alice","body":"hello","timestamp":"2026-10-17T09:30:12Z"}` + "\n" + `{"username":"bo`
	req.NoError(os.WriteFile(path, []byte(content), 0o644))

	records, err := ReadAppendLog(path)
	req.NoError(err)
	req.Len(records, 1)
	req.Equal("alice", records[0].Username)
}
