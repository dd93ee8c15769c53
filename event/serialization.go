package event

import (
	"encoding/json"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Encode serializes an envelope to UTF-8 JSON
func Encode(env *Envelope) ([]byte, error) {
	if env == nil {
		return nil, errors.New("encode event: nil envelope")
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", env.Event, err)
	}
	return body, nil
}

// Decode parses and validates a message body.
// Unknown event types decode fine so the dispatcher can ack and skip them.
func Decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{BodySize: len(body), Err: err}
	}

	if err := env.Validate(); err != nil {
		return nil, &DecodeError{BodySize: len(body), Err: err}
	}

	return &env, nil
}

// Validate checks the fields a known event type needs
func (e *Envelope) Validate() error {
	if err := validation.ValidateStruct(e,
		validation.Field(&e.Event, validation.Required),
	); err != nil {
		return err
	}

	if !e.Event.IsKnown() {
		return nil
	}

	data := &e.Data
	return validation.ValidateStruct(data,
		validation.Field(&data.UserID, validation.Required),
		validation.Field(&data.Product, validation.When(e.Event.requiresProduct(), validation.Required)),
		validation.Field(&data.Qty, validation.Min(0)),
	)
}

// Validate checks a product snapshot
func (p Product) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
	)
}
