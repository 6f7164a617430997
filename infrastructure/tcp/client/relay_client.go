package client

import (
	"chat-relay/codec"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// RelayClient forwards each message over a fresh TCP connection.
// A nil error means the payload was handed to the transport and the connection
// closed cleanly, never that the relay persisted it.
type RelayClient struct {
	addr        string
	dialTimeout time.Duration
	log         *slog.Logger
}

// NewRelayClient builds a client for addr. A zero dialTimeout lets the OS decide.
func NewRelayClient(addr string, dialTimeout time.Duration, log *slog.Logger) *RelayClient {
	return &RelayClient{addr: addr, dialTimeout: dialTimeout, log: log}
}

func (c *RelayClient) Send(ctx context.Context, msg domain.Message) error {
	payload, err := codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrRelaySend, err)
	}
	if len(payload) > codec.MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", errors.ErrPayloadTooLarge, len(payload), codec.MaxPayloadSize)
	}

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrRelayUnreachable, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err = conn.Write(payload); err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %v", errors.ErrRelaySend, err)
	}
	if err = conn.Close(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrRelaySend, err)
	}

	c.log.Debug("Message relayed", "addr", c.addr, "bytes", len(payload))
	return nil
}
