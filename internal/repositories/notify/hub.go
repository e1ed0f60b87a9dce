// Package notify delivers change notifications for list and detail views.
// Writers publish after a successful store write; subscribers receive on a
// buffered channel keyed by resource path ("categories", "entries",
// "photos"). Publishing never blocks: a slow subscriber drops
// events rather than stalling a commit.
package notify

import "sync"

// Op classifies a change event.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one change to a resource path.
type Event struct {
	Path string
	Op   Op
	ID   int64
}

const subscriberBuffer = 16

// Hub fans change events out to path subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan Event)}
}

// Subscribe registers interest in a resource path. The returned cancel
// function removes the subscription and closes the channel.
func (h *Hub) Subscribe(path string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[path] = append(h.subs[path], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.subs[path]
		for i, c := range list {
			if c == ch {
				h.subs[path] = append(list[:i], list[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber of ev.Path. Full subscriber
// buffers drop the event.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	list := make([]chan Event, len(h.subs[ev.Path]))
	copy(list, h.subs[ev.Path])
	h.mu.Unlock()

	for _, ch := range list {
		select {
		case ch <- ev:
		default:
		}
	}
}
