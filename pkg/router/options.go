// SPDX-License-Identifier: MPL-2.0

package router

import (
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skeleton-dev/skeleton/pkg/container"
)

const (
	// EventActive fires after an entry becomes active.
	EventActive EventType = "active"
	// EventDisposed fires after an entry's container is disposed.
	EventDisposed EventType = "disposed"
	// EventFailed fires after an entry fails to materialize.
	EventFailed EventType = "failed"
)

type (
	// Option configures a Router.
	Option func(*options)

	// NavigateOption configures one Navigate call.
	NavigateOption func(*navigateOptions)

	// EventType classifies router events.
	EventType string

	// Event is delivered to observers.
	Event struct {
		Type  EventType
		Entry *Entry
		Err   error
	}

	// Observer receives router events synchronously.
	Observer func(Event)

	options struct {
		logger     *log.Logger
		registerer prometheus.Registerer
		workers    int64
		dispatch   container.Dispatcher
		observers  []Observer
	}

	navigateOptions struct {
		push bool
	}
)

// WithLogger sets the router's logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the router's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithWorkers bounds the number of background tasks running at once across
// all scopes. Zero or negative means unbounded.
func WithWorkers(n int64) Option {
	return func(o *options) { o.workers = n }
}

// WithDispatcher delivers task completion callbacks through d. d must run
// callbacks on the goroutine that calls Pop, Back and Shutdown so that a
// callback never overlaps the disposal of its entry.
func WithDispatcher(d container.Dispatcher) Option {
	return func(o *options) { o.dispatch = d }
}

// WithObserver adds an observer.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observers = append(o.observers, fn) }
}

// Push makes Navigate create a new subfeature entry even when one for the
// target is already on the stack.
func Push() NavigateOption {
	return func(o *navigateOptions) { o.push = true }
}
