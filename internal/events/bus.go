package events

import (
	"sync"
	"time"

	"cliconfig-go/internal/config"
)

// EventType represents the type of event
type EventType string

const (
	// Store events
	VisibilityChanged  EventType = "visibility_changed"
	PreferencesChanged EventType = "preferences_changed"
	RecentFilesChanged EventType = "recent_files_changed"

	// Configuration events
	ConfigReloaded EventType = "config_reloaded"
)

// Event represents a single event in the system
type Event struct {
	Type      EventType   `json:"type"`
	Action    string      `json:"action,omitempty"`  // e.g. "pin", "hide", "set_theme"
	ToolID    string      `json:"tool_id,omitempty"` // Tool the action applied to, if any
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Bus is a thread-safe event bus for pub/sub messaging
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	all         []chan Event
	closed      bool
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
	}
}

// Subscribe subscribes to a specific event type and returns a channel for receiving events
// The channel is buffered to prevent blocking publishers
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, config.EventChannelBufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll subscribes to every event type, including ones first published later
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, config.EventChannelBufferSizeAll)
	b.all = append(b.all, ch)
	return ch
}

// Publish publishes an event to all subscribers of that event type
// This method is non-blocking - if a subscriber's channel is full, the event is dropped
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			// Channel is full, drop event to prevent blocking
		}
	}
	for _, ch := range b.all {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes the event bus and all subscriber channels
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for _, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}

	b.subscribers = make(map[EventType][]chan Event)
	b.all = nil
}
