// Package domain contains core concepts of the chat relay.
// This file defines the Message entity and its validation rules.
// Messages are immutable: there is no update or delete path.
package domain

import (
	"chat-relay/errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Message is a submission accepted by the intake tier.
// Timestamp is assigned once, at receipt, and travels unchanged to both sinks.
type Message struct {
	Username  string    `validate:"required"`
	Body      string    `validate:"required"`
	Timestamp time.Time `validate:"required"`
}

// NewMessage trims username and body and rejects the submission when either is empty.
func NewMessage(username, body string, at time.Time) (Message, error) {
	msg := Message{
		Username:  strings.TrimSpace(username),
		Body:      strings.TrimSpace(body),
		Timestamp: at,
	}
	if err := validate.Struct(msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", errors.ErrEmptyField, err)
	}
	return msg, nil
}
