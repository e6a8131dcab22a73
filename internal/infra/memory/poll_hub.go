package memory

import (
	"context"
	"sync"

	"lessonloop/internal/domain"
)

// PollHub is an in-process implementation of app.PollEvents. Subscribers of a
// class receive every event published for it; a slow subscriber loses its
// oldest pending event rather than blocking the publisher.
type PollHub struct {
	mu     sync.Mutex
	topics map[string]map[chan domain.PollEvent]struct{}
}

func NewPollHub() *PollHub {
	return &PollHub{topics: make(map[string]map[chan domain.PollEvent]struct{})}
}

func (h *PollHub) Publish(_ context.Context, classID string, event domain.PollEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.topics[classID] {
		deliver(ch, event)
	}
	return nil
}

func (h *PollHub) Subscribe(_ context.Context, classID string) (<-chan domain.PollEvent, func(), error) {
	ch := make(chan domain.PollEvent, 8)

	h.mu.Lock()
	subs, ok := h.topics[classID]
	if !ok {
		subs = make(map[chan domain.PollEvent]struct{})
		h.topics[classID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.topics[classID]
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(h.topics, classID)
		}
	}
	return ch, cancel, nil
}

// Subscribers reports how many subscribers a class has.
func (h *PollHub) Subscribers(classID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[classID])
}

// deliver must be called with the owning lock held so the channel cannot be
// closed concurrently.
func deliver(ch chan domain.PollEvent, event domain.PollEvent) {
	select {
	case ch <- event:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}
