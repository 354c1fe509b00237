package circuit

import (
	"log/slog"

	"github.com/roach88/fhegraph/internal/ir"
)

// NodeObserver is notified synchronously after each node is appended, on the
// goroutine that called the Add method.
type NodeObserver interface {
	NodeAdded(node ir.Node)
}

// ObserverFunc adapts a function to NodeObserver.
type ObserverFunc func(node ir.Node)

// NodeAdded calls f(node).
func (f ObserverFunc) NodeAdded(node ir.Node) {
	f(node)
}

// Option configures Build.
type Option func(*config)

type config struct {
	observers []NodeObserver
	logger    *slog.Logger
}

// WithObserver registers o. Observers run in registration order.
func WithObserver(o NodeObserver) Option {
	return func(c *config) {
		c.observers = append(c.observers, o)
	}
}

// WithLogger sets the logger used for per-node debug records.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
