package events

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/google/uuid"
)

type subscriber struct {
	kind Kind
	ch   chan media.Item
}

// Hub is an in-process Bus for single-instance deployments.
type Hub struct {
	mu     sync.RWMutex
	owners map[string]map[string]subscriber
}

func NewHub() *Hub {
	return &Hub{owners: map[string]map[string]subscriber{}}
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.deliver(ev)
	return nil
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.owners[ev.Owner] {
		if s.kind != ev.Kind {
			continue
		}
		select {
		case s.ch <- ev.Item:
		default:
		}
	}
}

func (h *Hub) Subscribe(_ context.Context, owner string, kind Kind) (<-chan media.Item, func(), error) {
	id := uuid.NewString()
	ch := make(chan media.Item, DefaultBufferSize)

	h.mu.Lock()
	subs, ok := h.owners[owner]
	if !ok {
		subs = map[string]subscriber{}
		h.owners[owner] = subs
	}
	subs[id] = subscriber{kind: kind, ch: ch}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			subs := h.owners[owner]
			if s, ok := subs[id]; ok {
				delete(subs, id)
				close(s.ch)
			}
			if len(subs) == 0 {
				delete(h.owners, owner)
			}
		})
	}
	return ch, cancel, nil
}

// Close drops every subscriber.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, subs := range h.owners {
		for _, s := range subs {
			close(s.ch)
		}
		delete(h.owners, owner)
	}
	return nil
}
