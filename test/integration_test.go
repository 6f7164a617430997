package test

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/infrastructure/http/server"
	"chat-relay/infrastructure/storage"
	"chat-relay/infrastructure/tcp/client"
	tcpserver "chat-relay/infrastructure/tcp/server"
	"chat-relay/mocks"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stack struct {
	intake    *httptest.Server
	logPath   string
	appendLog *storage.AppendLog
}

// startRelay runs a relay tier in the background and returns its address.
func startRelay(t *testing.T, repository storage.IMessageRepository) string {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	relay := tcpserver.NewRelayServer("127.0.0.1:0", sink.NewStoreSink(repository, log), log, time.Second)
	require.NoError(t, relay.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return relay.Addr().String()
}

// startIntake runs an intake tier relaying to relayAddr with its own append log.
func startIntake(t *testing.T, relayAddr string) stack {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "storage", "data.json")
	appendLog, err := storage.OpenAppendLog(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = appendLog.Close() })

	intake := server.NewIntakeServer(server.Settings{StaticDir: dir},
		client.NewRelayClient(relayAddr, time.Second, log),
		sink.NewLogSink(appendLog, log), log)
	httpServer := httptest.NewServer(intake.Handler())
	t.Cleanup(httpServer.Close)
	return stack{intake: httpServer, logPath: logPath, appendLog: appendLog}
}

func openStore(t *testing.T) *storage.MessageRepository {
	t.Helper()
	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewMessageRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug), lo.ToPtr(100))
}

func submit(t *testing.T, s stack, username, message string) *http.Response {
	t.Helper()
	httpClient := &http.Client{
		// The 303 itself is under test
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	form := url.Values{"username": {username}, "message": {message}}
	resp, err := httpClient.Post(s.intake.URL+"/message.html", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func logRecords(t *testing.T, path string) []domain.Message {
	t.Helper()
	records, err := storage.ReadAppendLog(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return records
}

func Test_Submission_Reaches_Both_Sinks(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	s := startIntake(t, startRelay(t, store))

	// When alice submits hello
	start := time.Now().UTC()
	resp := submit(t, s, "alice", "hello")
	end := time.Now().UTC()

	// Then the submitter is redirected back to the form
	req.Equal(http.StatusSeeOther, resp.StatusCode)
	req.Equal("/message.html", resp.Header.Get("Location"))

	// Then the append log's last record is the submission, stamped during the request
	records := logRecords(t, s.logPath)
	req.Len(records, 1)
	last := records[len(records)-1]
	req.Equal("alice", last.Username)
	req.Equal("hello", last.Body)
	req.False(last.Timestamp.Before(start))
	req.False(last.Timestamp.After(end))

	// Then the relay inserted the same message, with the intake timestamp
	var stored []storage.StoredMessage
	req.Eventually(func() bool {
		var err error
		stored, _, err = store.GetMessages(nil)
		return err == nil && len(stored) == 1
	}, 2*time.Second, 20*time.Millisecond)
	req.Equal("alice", stored[0].Username)
	req.Equal("hello", stored[0].Body)
	req.True(last.Timestamp.Equal(stored[0].Timestamp))
}

func Test_Store_Failure_Is_Invisible_To_Submitter(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIMessageRepository(ctrl)
	inserted := make(chan struct{})
	repository.EXPECT().Insert(gomock.Any()).
		DoAndReturn(func(domain.Message) (uuid.UUID, error) {
			close(inserted)
			return uuid.Nil, fmt.Errorf("%w: disk full", errors.ErrStoreInsert)
		}).Times(1)
	s := startIntake(t, startRelay(t, repository))

	resp := submit(t, s, "alice", "hello")

	// The relay tier cannot report back: the submission still succeeds
	req.Equal(http.StatusSeeOther, resp.StatusCode)
	select {
	case <-inserted:
	case <-time.After(2 * time.Second):
		t.Fatal("relay never attempted the insert")
	}
	records := logRecords(t, s.logPath)
	req.Len(records, 1)
	req.Equal("alice", records[0].Username)
}

func Test_Store_Keeps_Record_When_Log_Append_Fails(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	s := startIntake(t, startRelay(t, store))

	// Given the append log can no longer be written
	req.NoError(s.appendLog.Close())

	// When alice submits hello
	resp := submit(t, s, "alice", "hello")

	// Then the submitter sees the log failure
	req.Equal(http.StatusInternalServerError, resp.StatusCode)

	// Then the relay already stored the record the log is missing
	req.Eventually(func() bool {
		stored, _, err := store.GetMessages(nil)
		return err == nil && len(stored) == 1 &&
			stored[0].Username == "alice" && stored[0].Body == "hello"
	}, 2*time.Second, 20*time.Millisecond)
	req.Empty(logRecords(t, s.logPath))
}

func Test_Unreachable_Relay_Leaves_Log_Untouched(t *testing.T) {
	req := require.New(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	addr := listener.Addr().String()
	req.NoError(listener.Close())
	s := startIntake(t, addr)

	resp := submit(t, s, "alice", "hello")

	req.Equal(http.StatusInternalServerError, resp.StatusCode)
	req.Empty(logRecords(t, s.logPath))
}

func Test_Invalid_Submission_Reaches_No_Sink(t *testing.T) {
	req := require.New(t)
	store := openStore(t)
	s := startIntake(t, startRelay(t, store))

	for _, form := range [][2]string{{"", "hello"}, {"alice", "   "}, {" \t", ""}} {
		resp := submit(t, s, form[0], form[1])
		req.Equal(http.StatusBadRequest, resp.StatusCode)
	}

	// A valid submission afterwards is the only one recorded anywhere
	req.Equal(http.StatusSeeOther, submit(t, s, "bob", "ok").StatusCode)
	req.Eventually(func() bool {
		stored, _, err := store.GetMessages(nil)
		return err == nil && len(stored) == 1 && stored[0].Username == "bob"
	}, 2*time.Second, 20*time.Millisecond)
	records := logRecords(t, s.logPath)
	req.Len(records, 1)
	req.Equal("bob", records[0].Username)
}
