// Package events provides the in-process domain event dispatcher
package events

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/alchemorsel/evolver/internal/domain/shared"
	"github.com/alchemorsel/evolver/internal/ports/outbound"
)

// Wildcard matches every event name
const Wildcard = "*"

// Dispatcher fans domain events out to registered handlers. A pattern
// ending in ".*" matches every event under that prefix.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	log      *zap.Logger
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]shared.EventHandler),
		log:      log.Named("events"),
	}
}

// Register adds handler for eventName, which may be a pattern
func (d *Dispatcher) Register(eventName string, handler shared.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventName] = append(d.handlers[eventName], handler)
	d.log.Debug("Registered event handler", zap.String("event", eventName))
}

// Dispatch runs every matching handler. Handler errors are collected,
// never short-circuited.
func (d *Dispatcher) Dispatch(event shared.DomainEvent) error {
	handlers := d.matching(event.EventName())
	if len(handlers) == 0 {
		d.log.Debug("No handlers registered for event", zap.String("event", event.EventName()))
		return nil
	}

	var err error
	for _, handler := range handlers {
		if herr := handler(event); herr != nil {
			d.log.Error("Event handler failed",
				zap.String("event", event.EventName()),
				zap.Error(herr))
			err = multierr.Append(err, herr)
		}
	}
	return err
}

// Publish dispatches each event in order
func (d *Dispatcher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	var err error
	for _, event := range events {
		err = multierr.Append(err, d.Dispatch(event))
	}
	return err
}

func (d *Dispatcher) matching(name string) []shared.EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []shared.EventHandler
	for pattern, handlers := range d.handlers {
		if matches(pattern, name) {
			out = append(out, handlers...)
		}
	}
	return out
}

func matches(pattern, name string) bool {
	switch {
	case pattern == Wildcard:
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == name
	}
}

// LoggingHandler logs every event it receives
func LoggingHandler(log *zap.Logger) shared.EventHandler {
	return func(event shared.DomainEvent) error {
		log.Info("Domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
			zap.Any("payload", event))
		return nil
	}
}

var (
	_ shared.EventDispatcher  = (*Dispatcher)(nil)
	_ outbound.EventPublisher = (*Dispatcher)(nil)
)
