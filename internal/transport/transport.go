// Package transport defines the interface for pluggable event transports.
//
// Each transport (HTTP, gRPC, Telegram) implements this interface and is
// handed the dispatcher's Handler. The dispatcher doesn't care how events
// arrive; it only works with the Transport contract.
package transport

import (
	"context"

	"github.com/nadzzz/readmebot/internal/message"
)

// Handler processes an inbound event and returns the reply for its sender.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, ev *message.Event) (*message.Response, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc", "telegram").
	Name() string

	// Listen starts accepting events and passes them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
