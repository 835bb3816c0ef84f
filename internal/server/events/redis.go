package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/redis/go-redis/v9"
)

// RedisBus carries events over Redis pub/sub so that every server instance
// sees changes made through any other. One channel per owner.
type RedisBus struct {
	client *redis.Client
	prefix string
	logger logging.Logger
}

func NewRedisBus(client *redis.Client, prefix string, logger logging.Logger) *RedisBus {
	return &RedisBus{client: client, prefix: prefix, logger: logger.With("module", "events")}
}

func (b *RedisBus) channel(owner string) string {
	return fmt.Sprintf("%s:items:%s", b.prefix, owner)
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(ev.Owner), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Kind, err)
	}
	return nil
}

// Subscribe waits for Redis to confirm the subscription before returning, so
// events published afterwards are not missed.
func (b *RedisBus) Subscribe(ctx context.Context, owner string, kind Kind) (<-chan media.Item, func(), error) {
	ps := b.client.Subscribe(ctx, b.channel(owner))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan media.Item, DefaultBufferSize)
	done := make(chan struct{})
	go func() {
		defer close(out)
		b.forward(ps.Channel(), done, kind, out)
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, cancel, nil
}

func (b *RedisBus) forward(in <-chan *redis.Message, done <-chan struct{}, kind Kind, out chan<- media.Item) {
	for {
		select {
		case <-done:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn(context.Background(), "dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			if ev.Kind != kind {
				continue
			}
			select {
			case out <- ev.Item:
			default:
			}
		}
	}
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
