package locker

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a batch. Items holds the records created for the
// files that were both stored and recorded, in batch order. Failed lists the
// rest.
type Result struct {
	Items  []media.Item
	Failed []FileError
}

// Uploader stores a batch of files and records each stored object in the
// catalog. Files are processed concurrently and a batch only succeeds when
// every file did; files that made it are kept either way.
type Uploader struct {
	store   ObjectStore
	catalog Catalog
	logger  logging.Logger
}

func NewUploader(store ObjectStore, catalog Catalog, logger logging.Logger) *Uploader {
	return &Uploader{store: store, catalog: catalog, logger: logger.With("module", "uploader")}
}

// Upload validates files, processes them concurrently and waits until every
// file has settled. observe, when not nil, receives progress events one at a
// time. An empty selection returns an empty Result and no error.
//
// The returned error is ErrTooManyFiles or ErrBatchTooLarge when the batch
// was rejected up front, and otherwise ErrBatchFailed joined with one
// *FileError per failed file.
func (u *Uploader) Upload(ctx context.Context, files []File, observe func(Event)) (*Result, error) {
	if err := ValidateBatch(files); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &Result{}, nil
	}
	return u.run(ctx, files, observe)
}

// Start validates files and begins uploading them in the background. Progress
// is consumed through the returned Batch. ctx is handed to the collaborators;
// nothing else cancels a started batch.
func (u *Uploader) Start(ctx context.Context, files []File) (*Batch, error) {
	if err := ValidateBatch(files); err != nil {
		return nil, err
	}

	b := newBatch(len(files))
	if len(files) == 0 {
		b.finish(&Result{}, nil)
		return b, nil
	}

	go func() {
		res, err := u.run(ctx, files, b.dispatch)
		b.finish(res, err)
	}()
	return b, nil
}

func (u *Uploader) run(ctx context.Context, files []File, emit func(Event)) (*Result, error) {
	tr := newTracker(files, emit)
	items := make([]*media.Item, len(files))
	failures := make([]*FileError, len(files))

	// A plain Group never cancels siblings, so Wait returns only after every
	// file settled.
	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			it, ferr := u.uploadOne(ctx, i, f, tr)
			if ferr != nil {
				failures[i] = ferr
				return ferr
			}
			items[i] = it
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{}
	errs := []error{ErrBatchFailed}
	for i := range files {
		if failures[i] != nil {
			res.Failed = append(res.Failed, *failures[i])
			errs = append(errs, failures[i])
			continue
		}
		res.Items = append(res.Items, *items[i])
	}

	if len(res.Failed) > 0 {
		u.logger.Error(ctx, "batch failed", "files", len(files), "failed", len(res.Failed))
		return res, errors.Join(errs...)
	}
	u.logger.Info(ctx, "batch uploaded", "files", len(files))
	return res, nil
}

func (u *Uploader) uploadOne(ctx context.Context, i int, f File, tr *tracker) (*media.Item, *FileError) {
	folder := media.FolderFor(f.Type)
	key := media.NewKey(folder, f.Name)

	fail := func(stage Stage, err error) *FileError {
		tr.failed(i, key, err)
		return &FileError{Index: i, Name: f.Name, Stage: stage, Err: err}
	}

	tr.started(i, key, f.Size)

	if f.Open == nil {
		return nil, fail(StageStore, fmt.Errorf("no content for %s", f.Name))
	}
	body, err := f.Open()
	if err != nil {
		return nil, fail(StageStore, err)
	}
	defer body.Close()

	stored, err := u.store.Put(ctx, key, body, f.Size, f.Type, func(loaded, total int64) {
		tr.progress(i, key, loaded, total)
	})
	if err != nil {
		u.logger.Error(ctx, "object store failed", "file", f.Name, "key", key, "error", err)
		return nil, fail(StageStore, err)
	}
	if stored == "" {
		stored = key
	}
	tr.stored(i, stored, f.Size)

	item, err := u.catalog.Create(ctx, NewItem{
		Filename: f.Name,
		Key:      stored,
		FileType: f.Type,
		Folder:   string(folder),
		Size:     f.Size,
	})
	if err != nil {
		u.logger.Error(ctx, "object stored without catalog record", "file", f.Name, "key", stored, "error", err)
		return nil, fail(StageRecord, err)
	}

	tr.done(i, item)
	return item, nil
}

// Batch is an upload running in the background.
type Batch struct {
	all   *stream[Event]
	files []*stream[Event]
	done  chan struct{}
	res   *Result
	err   error
}

func newBatch(n int) *Batch {
	b := &Batch{all: newStream[Event](), files: make([]*stream[Event], n), done: make(chan struct{})}
	for i := range b.files {
		b.files[i] = newStream[Event]()
	}
	return b
}

func (b *Batch) dispatch(ev Event) {
	b.all.push(ev)
	fs := b.files[ev.Index]
	fs.push(ev)
	if ev.Terminal() {
		fs.close()
	}
}

func (b *Batch) finish(res *Result, err error) {
	b.res, b.err = res, err
	for _, fs := range b.files {
		fs.close()
	}
	b.all.close()
	close(b.done)
}

// Len is the number of files in the batch.
func (b *Batch) Len() int { return len(b.files) }

// Events yields every progress event of the batch in emission order and ends
// once the batch settled. It can be ranged over once.
func (b *Batch) Events() iter.Seq[Event] { return b.all.seq() }

// File yields the events of file i only and ends after that file's terminal
// event: StageDone at 100% or StageFailed. It can be ranged over once.
func (b *Batch) File(i int) iter.Seq[Event] {
	if i < 0 || i >= len(b.files) {
		return func(func(Event) bool) {}
	}
	return b.files[i].seq()
}

// Done is closed when the batch settled.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch settled and returns what Upload would have.
func (b *Batch) Wait() (*Result, error) {
	<-b.done
	return b.res, b.err
}
