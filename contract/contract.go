//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Workers exposing a Name method are named after it instead.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	if named, ok := w.(interface{ Name() string }); ok {
		return named.Name()
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Sink durably records an accepted message.
// LogSink and StoreSink are the two variants; they are never coordinated.
type Sink interface {
	Consume(ctx context.Context, msg domain.Message) error
}

// Relay forwards a message to the relay tier.
// A nil error only means the bytes were handed to the transport:
// the relay tier never acknowledges.
type Relay interface {
	Send(ctx context.Context, msg domain.Message) error
}
