// Package transport defines the interface for the server's network surfaces.
//
// Each transport (HTTP API, gRPC health) implements this interface and is
// started by main in its own goroutine. Transports share the same services
// but know nothing about one another.
package transport

import "context"

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts accepting requests. It blocks until the context is
	// cancelled or the listener fails.
	Listen(ctx context.Context) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
