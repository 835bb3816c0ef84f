package locker

import (
	"slices"

	"github.com/dmitrijs2005/safelocker/internal/media"
)

// Order is a createdAt sort direction.
type Order int

const (
	Newest Order = iota
	Oldest
)

// ParseOrder accepts asc/oldest and desc/newest. Empty means Newest.
func ParseOrder(s string) (Order, bool) {
	switch s {
	case "", "desc", "newest":
		return Newest, true
	case "asc", "oldest":
		return Oldest, true
	}
	return Newest, false
}

// Toggle flips the direction.
func (o Order) Toggle() Order {
	if o == Newest {
		return Oldest
	}
	return Newest
}

func (o Order) String() string {
	if o == Oldest {
		return "oldest first"
	}
	return "newest first"
}

// SortByCreated returns a copy of items ordered by CreatedAt. Ties keep their
// input order. items is not modified.
func SortByCreated(items []media.Item, o Order) []media.Item {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b media.Item) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if o == Newest {
			return -c
		}
		return c
	})
	return out
}
