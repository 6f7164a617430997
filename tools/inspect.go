// Command inspect prints the records of the structured store or of the append log.
//
//	go run ./tools -db ./data/relay -limit 50
//	go run ./tools -log storage/data.json
package main

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/storage"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const bodyPreview = 60

func main() {
	dbPath := flag.String("db", "", "Path to the relay badger DB")
	logPath := flag.String("log", "", "Path to the intake append log")
	limit := flag.Int("limit", 100, "Maximum number of store records")
	flag.Parse()

	switch {
	case *dbPath != "":
		if err := inspectStore(*dbPath, *limit); err != nil {
			log.Fatal(err)
		}
	case *logPath != "":
		if err := inspectLog(*logPath); err != nil {
			log.Fatal(err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func inspectStore(path string, limit int) error {
	db, err := openDB(path)
	if err != nil {
		return fmt.Errorf("error while opening Badger: %w", err)
	}
	defer db.Close()

	repository := storage.NewMessageRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)), &limit)
	messages, _, err := repository.GetMessages(nil)
	if err != nil {
		return err
	}

	table := newTable([]string{"ID", "Timestamp", "Username", "Body"})
	for _, m := range messages {
		table.Append([]string{m.ID.String()[:8], m.Timestamp.Format(time.RFC3339Nano), m.Username, preview(m.Body)})
	}
	table.Render()
	return nil
}

func inspectLog(path string) error {
	messages, err := storage.ReadAppendLog(path)
	if err != nil {
		return err
	}
	table := newTable([]string{"#", "Timestamp", "Username", "Body"})
	table.AppendBulk(lo.Map(messages, func(m domain.Message, i int) []string {
		return []string{fmt.Sprint(i + 1), m.Timestamp.Format(time.RFC3339Nano), m.Username, preview(m.Body)}
	}))
	table.Render()
	return nil
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= bodyPreview {
		return body
	}
	return string(r[:bodyPreview]) + "…"
}

// openDB opens the store read-only so it can be inspected while the relay runs.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
