package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Publisher defines the interface for publishing engine events
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// GoChannelBus implements Publisher on Watermill's in-process Go channel
// Pub/Sub. It is the default event channel: the engine and its UI run in
// one process, so events never need to leave it.
type GoChannelBus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// NewGoChannelBus creates the in-process event bus
func NewGoChannelBus(logger *slog.Logger) *GoChannelBus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, watermill.NewSlogLogger(logger))

	return &GoChannelBus{
		pubsub: pubsub,
		logger: logger,
	}
}

// Publish publishes an event to its type topic
func (b *GoChannelBus) Publish(ctx context.Context, event *Event) error {
	msg, err := marshalEvent(event)
	if err != nil {
		return err
	}

	if err := b.pubsub.Publish(string(event.Type), msg); err != nil {
		b.logger.Error("Failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe returns a channel of decoded events for one event type.
// The subscription lives until ctx is cancelled or the bus is closed.
func (b *GoChannelBus) Subscribe(ctx context.Context, eventType EventType) (<-chan *Event, error) {
	messages, err := b.pubsub.Subscribe(ctx, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", eventType, err)
	}

	out := make(chan *Event)
	go func() {
		defer close(out)
		for msg := range messages {
			event, err := unmarshalEvent(msg.Payload)
			msg.Ack()
			if err != nil {
				b.logger.Warn("Dropping undecodable event", "topic", eventType, "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// On registers a callback for one event type. Each invocation is isolated:
// a panicking handler is logged and must not prevent other subscribers
// from running.
func (b *GoChannelBus) On(ctx context.Context, eventType EventType, handler func(*Event)) error {
	events, err := b.Subscribe(ctx, eventType)
	if err != nil {
		return err
	}

	go func() {
		for event := range events {
			b.invoke(eventType, handler, event)
		}
	}()

	return nil
}

func (b *GoChannelBus) invoke(eventType EventType, handler func(*Event), event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event subscriber panicked",
				"event_type", eventType,
				"event_id", event.ID,
				"panic", r)
		}
	}()
	handler(event)
}

// Close closes the bus and all subscriptions
func (b *GoChannelBus) Close() error {
	return b.pubsub.Close()
}

func marshalEvent(event *Event) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	return msg, nil
}

func unmarshalEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// MockEventPublisher is a mock implementation for testing
type MockEventPublisher struct {
	mu     sync.Mutex
	events []Event
	logger *slog.Logger
}

// NewMockEventPublisher creates a new mock event publisher
func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]Event, 0),
		logger: logger,
	}
}

// Publish stores the event in memory (for testing)
func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

// Close is a no-op for the mock publisher
func (m *MockEventPublisher) Close() error {
	return nil
}

// PublishedEvents returns all published events (for testing)
func (m *MockEventPublisher) PublishedEvents() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns the published events with the given type (for testing)
func (m *MockEventPublisher) EventsOfType(eventType EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ClearEvents clears all published events (for testing)
func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = m.events[:0]
}
