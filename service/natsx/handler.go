package natsx

import "context"

// NatsxMessage is the unified message object handed to handlers.
type NatsxMessage struct {
	Subject string
	Data    []byte
	Header  map[string]string
}

// NatsxHandler is the business handler function.
type NatsxHandler func(ctx context.Context, msg NatsxMessage) error

// NatsxMiddleware wraps handlers (logging, metrics, idempotency...).
type NatsxMiddleware func(NatsxHandler) NatsxHandler

// NatsxChain composes middlewares around a handler.
func NatsxChain(h NatsxHandler, mws ...NatsxMiddleware) NatsxHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
