// Package events fans catalog changes out to subscribed callers.
package events

import (
	"context"

	"github.com/dmitrijs2005/safelocker/internal/media"
)

// DefaultBufferSize is the per-subscriber channel buffer.
const DefaultBufferSize = 64

// Kind names a catalog change.
type Kind string

const (
	KindCreated Kind = "created"
	KindDeleted Kind = "deleted"
)

// Event is one catalog change of one owner's item.
type Event struct {
	Kind  Kind       `json:"kind"`
	Owner string     `json:"owner"`
	Item  media.Item `json:"item"`
}

// Bus delivers events to subscribers of the same owner and kind.
// Subscribers that fall behind lose events; publishing never blocks on them.
type Bus interface {
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of items and a cancel func that closes it.
	Subscribe(ctx context.Context, owner string, kind Kind) (<-chan media.Item, func(), error)
	Close() error
}
