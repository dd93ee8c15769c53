package event

import "context"

// Handler applies one envelope.
// A returned error is reported as a HandlerError and the message is rejected.
type Handler interface {
	Handle(ctx context.Context, env *Envelope) error
}

// HandlerFunc functional handler adapter
type HandlerFunc func(ctx context.Context, env *Envelope) error

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, env *Envelope) error {
	return f(ctx, env)
}
