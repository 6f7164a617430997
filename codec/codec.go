// Package codec encodes a Message as one self-describing JSON object.
// The same encoding is used on the relay wire and as an append log record.
package codec

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// MaxPayloadSize bounds a single payload read by the relay tier.
const MaxPayloadSize = 64 * 1024

var validate = newValidator()

// wireMessage uses pointers so an absent key can be told apart from a present one.
type wireMessage struct {
	Username  *string    `json:"username" validate:"required,min=1"`
	Body      *string    `json:"body" validate:"required,min=1"`
	Timestamp *time.Time `json:"timestamp" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// Encode returns the JSON payload of msg, without trailing newline.
// Non-ASCII text and HTML characters are kept as is.
func Encode(msg domain.Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(wireMessage{
		Username:  lo.ToPtr(msg.Username),
		Body:      lo.ToPtr(msg.Body),
		Timestamp: lo.ToPtr(msg.Timestamp),
	})
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a complete payload: one JSON object in valid UTF-8,
// optionally surrounded by whitespace.
func Decode(payload []byte) (domain.Message, error) {
	if len(payload) > MaxPayloadSize {
		return domain.Message{}, fmt.Errorf("%w: %d bytes exceeds %d", errors.ErrMalformed, len(payload), MaxPayloadSize)
	}
	if !utf8.Valid(payload) {
		return domain.Message{}, fmt.Errorf("%w: invalid UTF-8", errors.ErrMalformed)
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	msg, err := decode(dec)
	if err != nil {
		return domain.Message{}, err
	}
	if rest := bytes.TrimSpace(payload[dec.InputOffset():]); len(rest) > 0 {
		return domain.Message{}, fmt.Errorf("%w: %d trailing bytes", errors.ErrMalformed, len(rest))
	}
	return msg, nil
}

// ReadMessage decodes the first JSON value read from r.
// It returns as soon as a complete value is available and never reads more
// than MaxPayloadSize bytes, so a peer that keeps its write side open is not
// waited on once its payload is complete.
func ReadMessage(r io.Reader) (domain.Message, error) {
	return decode(json.NewDecoder(io.LimitReader(r, MaxPayloadSize)))
}

func decode(dec *json.Decoder) (domain.Message, error) {
	var w wireMessage
	if err := dec.Decode(&w); err != nil {
		if stderrors.Is(err, io.EOF) {
			return domain.Message{}, errors.ErrEmptyPayload
		}
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMalformed, err)
	}

	if err := validate.Struct(w); err != nil {
		var fieldErrors validator.ValidationErrors
		if stderrors.As(err, &fieldErrors) {
			fields := lo.Map(fieldErrors, func(fe validator.FieldError, _ int) string {
				return fe.Field()
			})
			return domain.Message{}, fmt.Errorf("%w: %s", errors.ErrMissingField, strings.Join(fields, ", "))
		}
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrMalformed, err)
	}

	return domain.Message{
		Username:  *w.Username,
		Body:      *w.Body,
		Timestamp: *w.Timestamp,
	}, nil
}
