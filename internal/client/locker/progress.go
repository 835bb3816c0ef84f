package locker

import (
	"sync"

	"github.com/dmitrijs2005/safelocker/internal/media"
)

// Stage is the step a file is in.
type Stage string

const (
	StageStore  Stage = "store"
	StageRecord Stage = "record"
	StageDone   Stage = "done"
	StageFailed Stage = "failed"
)

// Event reports progress of one file together with the batch aggregate.
//
// Percent is the file's own completion. Overall is the unweighted mean of
// every file's Percent, rounded down, so it reaches 100 only once every file
// did. Both never decrease over the life of a batch.
type Event struct {
	Index   int
	Name    string
	Key     string
	Loaded  int64
	Total   int64
	Percent int
	Overall int
	Stage   Stage
	Item    *media.Item
	Err     error
}

// Terminal reports whether ev is the last event for its file.
func (ev Event) Terminal() bool {
	return ev.Stage == StageDone || ev.Stage == StageFailed
}

// tracker aggregates per-file percentages. emit is called with the lock held
// so observers see events one at a time and in order.
type tracker struct {
	mu      sync.Mutex
	names   []string
	percent []int
	sum     int
	emit    func(Event)
}

func newTracker(files []File, emit func(Event)) *tracker {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return &tracker{names: names, percent: make([]int, len(files)), emit: emit}
}

func percentOf(loaded, total int64) int {
	if total <= 0 || loaded <= 0 {
		return 0
	}
	if loaded >= total {
		return 100
	}
	return int(loaded * 100 / total)
}

// report records pct for file i and emits ev. Byte progress that does not
// move the file's percentage is swallowed unless force is set.
func (t *tracker) report(i, pct int, ev Event, force bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pct < t.percent[i] {
		pct = t.percent[i]
	}
	if pct == t.percent[i] && !force {
		return
	}
	t.sum += pct - t.percent[i]
	t.percent[i] = pct

	ev.Index = i
	ev.Name = t.names[i]
	ev.Percent = pct
	ev.Overall = t.sum / len(t.percent)
	if t.emit != nil {
		t.emit(ev)
	}
}

func (t *tracker) started(i int, key string, size int64) {
	t.report(i, 0, Event{Key: key, Total: size, Stage: StageStore}, true)
}

func (t *tracker) progress(i int, key string, loaded, total int64) {
	t.report(i, percentOf(loaded, total), Event{Key: key, Loaded: loaded, Total: total, Stage: StageStore}, false)
}

func (t *tracker) stored(i int, key string, size int64) {
	t.report(i, 100, Event{Key: key, Loaded: size, Total: size, Stage: StageRecord}, true)
}

func (t *tracker) done(i int, item *media.Item) {
	t.report(i, 100, Event{Key: item.Key, Loaded: item.Size, Total: item.Size, Stage: StageDone, Item: item}, true)
}

func (t *tracker) failed(i int, key string, err error) {
	t.report(i, 0, Event{Key: key, Stage: StageFailed, Err: err}, true)
}
