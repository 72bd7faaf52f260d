package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bookwell-inc/bookwell/internal/shared/goroutine"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// WildcardEventType subscribes a handler to every event type.
const WildcardEventType = "*"

const defaultHandlerTimeout = 10 * time.Second

// InMemoryEventDispatcher fans events out to handlers on background
// goroutines. Publish never blocks: a full buffer drops the event.
type InMemoryEventDispatcher struct {
	handlers       map[string][]EventHandler
	mu             sync.RWMutex
	running        bool
	stopCh         chan struct{}
	eventCh        chan DomainEvent
	wg             sync.WaitGroup
	handlerWG      sync.WaitGroup
	handlerTimeout time.Duration
	logger         logger.Interface
}

func NewInMemoryEventDispatcher(bufferSize int, log logger.Interface) *InMemoryEventDispatcher {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	return &InMemoryEventDispatcher{
		handlers:       make(map[string][]EventHandler),
		stopCh:         make(chan struct{}),
		eventCh:        make(chan DomainEvent, bufferSize),
		handlerTimeout: defaultHandlerTimeout,
		logger:         log,
	}
}

func (d *InMemoryEventDispatcher) Publish(event DomainEvent) error {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		return fmt.Errorf("event dispatcher is not running")
	}

	select {
	case d.eventCh <- event:
		return nil
	default:
		d.logger.Warnw("event dropped, dispatcher buffer full",
			"event_type", event.GetEventType(),
			"aggregate_id", event.GetAggregateID(),
		)
		return fmt.Errorf("event channel is full")
	}
}

func (d *InMemoryEventDispatcher) PublishAll(events []DomainEvent) error {
	for _, event := range events {
		if err := d.Publish(event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.GetEventType(), err)
		}
	}
	return nil
}

// Subscribe registers handler for eventType, or for all types with
// WildcardEventType.
func (d *InMemoryEventDispatcher) Subscribe(eventType string, handler EventHandler) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
	return nil
}

func (d *InMemoryEventDispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("event dispatcher is already running")
	}

	d.running = true
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.processEvents()
	}()

	return nil
}

// Stop drains buffered events and waits for in-flight handlers.
func (d *InMemoryEventDispatcher) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return fmt.Errorf("event dispatcher is not running")
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	d.handlerWG.Wait()

	return nil
}

func (d *InMemoryEventDispatcher) processEvents() {
	for {
		select {
		case <-d.stopCh:
			for {
				select {
				case event := <-d.eventCh:
					d.handleEvent(event)
				default:
					return
				}
			}
		case event := <-d.eventCh:
			d.handleEvent(event)
		}
	}
}

func (d *InMemoryEventDispatcher) handleEvent(event DomainEvent) {
	eventType := event.GetEventType()

	d.mu.RLock()
	handlers := make([]EventHandler, 0, len(d.handlers[eventType])+len(d.handlers[WildcardEventType]))
	handlers = append(handlers, d.handlers[eventType]...)
	handlers = append(handlers, d.handlers[WildcardEventType]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if !handler.CanHandle(eventType) {
			continue
		}
		h := handler
		d.handlerWG.Add(1)
		goroutine.SafeGo(d.logger, "event-handler-"+h.Name(), func() {
			defer d.handlerWG.Done()
			ctx, cancel := context.WithTimeout(context.Background(), d.handlerTimeout)
			defer cancel()

			if err := h.Handle(ctx, event); err != nil {
				d.logger.Warnw("event handler failed",
					"handler", h.Name(),
					"event_type", eventType,
					"aggregate_id", event.GetAggregateID(),
					"error", err,
				)
			}
		})
	}
}

// FuncHandler adapts a function to EventHandler.
type FuncHandler struct {
	name       string
	eventTypes map[string]bool
	fn         func(ctx context.Context, event DomainEvent) error
}

// NewFuncHandler builds a handler for eventTypes; none means every type.
func NewFuncHandler(name string, fn func(ctx context.Context, event DomainEvent) error, eventTypes ...string) *FuncHandler {
	types := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		types[t] = true
	}
	return &FuncHandler{name: name, eventTypes: types, fn: fn}
}

func (h *FuncHandler) Name() string { return h.name }

func (h *FuncHandler) CanHandle(eventType string) bool {
	return len(h.eventTypes) == 0 || h.eventTypes[eventType]
}

func (h *FuncHandler) Handle(ctx context.Context, event DomainEvent) error {
	return h.fn(ctx, event)
}
