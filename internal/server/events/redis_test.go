package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableBus(t *testing.T) *RedisBus {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	return NewRedisBus(client, "locker", logging.Nop())
}

func TestRedisBus_Channel(t *testing.T) {
	b := unreachableBus(t)
	defer b.Close()
	assert.Equal(t, "locker:items:u1", b.channel("u1"))
}

func TestRedisBus_Unreachable(t *testing.T) {
	b := unreachableBus(t)
	defer b.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := b.Publish(ctx, Event{Kind: KindCreated, Owner: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish created")

	_, _, err = b.Subscribe(ctx, "u1", KindCreated)
	require.Error(t, err)
}

func TestRedisBus_Forward(t *testing.T) {
	b := unreachableBus(t)
	defer b.Close()

	payload := func(ev Event) string {
		raw, err := json.Marshal(ev)
		require.NoError(t, err)
		return string(raw)
	}

	in := make(chan *redis.Message, 4)
	in <- &redis.Message{Channel: "locker:items:u1", Payload: "not json"}
	in <- &redis.Message{Channel: "locker:items:u1", Payload: payload(Event{Kind: KindDeleted, Owner: "u1", Item: media.Item{ID: "x"}})}
	in <- &redis.Message{Channel: "locker:items:u1", Payload: payload(Event{Kind: KindCreated, Owner: "u1", Item: media.Item{ID: "y", Size: 3}})}
	close(in)

	out := make(chan media.Item, 4)
	b.forward(in, make(chan struct{}), KindCreated, out)

	require.Len(t, out, 1)
	it := <-out
	assert.Equal(t, "y", it.ID)
	assert.EqualValues(t, 3, it.Size)
}

func TestRedisBus_ForwardStopsOnDone(t *testing.T) {
	b := unreachableBus(t)
	defer b.Close()

	done := make(chan struct{})
	close(done)
	finished := make(chan struct{})
	go func() {
		b.forward(make(chan *redis.Message), done, KindCreated, make(chan media.Item))
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("forward did not stop")
	}
}
