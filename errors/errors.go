package errors

import "fmt"

// Validation
var (
	ErrEmptyField      = fmt.Errorf("empty field")
	ErrPayloadTooLarge = fmt.Errorf("payload too large")
)

// Decode errors never leave the relay tier.
var (
	ErrMalformed    = fmt.Errorf("malformed payload")
	ErrMissingField = fmt.Errorf("missing field")
	ErrEmptyPayload = fmt.Errorf("empty payload")
)

// Network
var (
	ErrRelayUnreachable = fmt.Errorf("relay server unreachable")
	ErrRelaySend        = fmt.Errorf("failed to send data to relay server")
)

// Storage
var (
	ErrAppendLog   = fmt.Errorf("append log write failed")
	ErrStoreInsert = fmt.Errorf("store insert failed")
)

// Supervision
var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrProcessNotFound    = fmt.Errorf("process binary not found")
	ErrProcessStartFailed = fmt.Errorf("process failed to start")
	ErrRelayUnavailable   = fmt.Errorf("relay health service unavailable")
)
