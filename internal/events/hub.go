package events

import "sync"

// Hub is the in-process Notifier. Subscribers get a buffered channel per
// subscription; a slow subscriber drops events rather than blocking the
// scheduler.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[uint64]map[int]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]map[int]chan Event)}
}

// Subscribe returns a channel of userID's events and a cancel func. The
// channel is closed on cancel.
func (h *Hub) Subscribe(userID uint64) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	ch := make(chan Event, 16)
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan Event)
	}
	h.subs[userID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[userID][id]; ok {
			delete(h.subs[userID], id)
			close(sub)
		}
	}
	return ch, cancel
}

func (h *Hub) Notify(userID uint64, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[userID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
