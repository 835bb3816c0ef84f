package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/safelocker/internal/client/locker"
	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/media"
)

const progressStep = 10

var errSignedOut = errors.New("not signed in, login first")

// msgUploadFailed is shown once for a batch with at least one failed file.
const msgUploadFailed = "An error occurred during upload."

func (a *App) requireUser() error {
	if !a.isLoggedIn() {
		return errSignedOut
	}
	return nil
}

// Upload stores the files at paths. Per-file progress is printed in steps
// and a summary follows once every file settled.
func (a *App) Upload(ctx context.Context, paths []string) error {
	if err := a.requireUser(); err != nil {
		return err
	}

	files := make([]locker.File, 0, len(paths))
	for _, p := range paths {
		f, err := locker.FileFromPath(p)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	batch, err := a.uploader.Start(ctx, files)
	if err != nil {
		return err
	}

	last := make(map[int]int, len(files))
	for ev := range batch.Events() {
		switch {
		case ev.Stage == locker.StageDone:
			a.printf("  done    %s -> %s (overall %d%%)\n", ev.Name, ev.Key, ev.Overall)
		case ev.Stage == locker.StageFailed:
			a.printf("  failed  %s: %v\n", ev.Name, ev.Err)
		default:
			prev, ok := last[ev.Index]
			if ok && ev.Percent-prev < progressStep && !(ev.Percent == 100 && prev != 100) {
				continue
			}
			last[ev.Index] = ev.Percent
			a.printf("  %3d%%    %s (overall %d%%)\n", ev.Percent, ev.Name, ev.Overall)
		}
	}

	res, err := batch.Wait()
	a.listing = a.library.List(ctx)
	if res != nil {
		a.printf("Uploaded %d of %d files.\n", len(res.Items), batch.Len())
	}
	if errors.Is(err, locker.ErrBatchFailed) && res != nil {
		a.println(msgUploadFailed)
		for _, fe := range res.Failed {
			a.printf("  %s (%s): %v\n", fe.Name, fe.Stage, fe.Err)
		}
		return common.WithMessage(locker.ErrBatchFailed, msgUploadFailed)
	}
	return err
}

// List prints the caller's files grouped by folder. args may name a folder
// and a sort direction (asc or desc) in any order.
func (a *App) List(ctx context.Context, args []string) error {
	if err := a.requireUser(); err != nil {
		return err
	}

	var only media.Folder
	for _, arg := range args {
		if f, ok := media.ParseFolder(arg); ok {
			only = f
			continue
		}
		if o, ok := locker.ParseOrder(arg); ok {
			a.order = o
			continue
		}
		return common.Invalid(fmt.Sprintf("unknown list argument %q", arg))
	}

	a.listing = a.library.List(ctx)
	if a.listing.Len() == 0 {
		a.println("No files yet.")
		return nil
	}

	for _, f := range media.Folders {
		if only != "" && f != only {
			continue
		}
		items := locker.SortByCreated(a.listing.Get(f), a.order)
		a.printf("%s %s (%d)\n", f.Icon(), f.Title(), len(items))
		for _, it := range items {
			a.printf("  %s  %-30s %10s  %s  %s\n",
				it.ID, it.Filename, locker.FormatBytes(it.Size, 2),
				it.CreatedAt.Local().Format("2006-01-02 15:04"), it.Key)
		}
	}
	return nil
}

// Sort flips the createdAt direction used by List.
func (a *App) Sort(context.Context) error {
	a.order = a.order.Toggle()
	a.printf("Sorting %s.\n", a.order)
	return nil
}

// URL prints a temporary download link for key.
func (a *App) URL(ctx context.Context, key string) error {
	if err := a.requireUser(); err != nil {
		return err
	}
	u, err := a.library.URL(ctx, key)
	if err != nil {
		return err
	}
	a.println(u)
	return nil
}

// Delete removes the file with the given id. The id is resolved against the
// last listing, which is refreshed once when the id is unknown.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.requireUser(); err != nil {
		return err
	}

	it, ok := a.lookup(id)
	if !ok {
		a.listing = a.library.List(ctx)
		if it, ok = a.lookup(id); !ok {
			return fmt.Errorf("no file with id %s: %w", id, common.ErrorNotFound)
		}
	}

	if err := a.library.Delete(ctx, it.ID, it.Key); err != nil {
		return err
	}
	a.listing = a.library.List(ctx)
	a.printf("Deleted %s.\n", it.Filename)
	return nil
}

// Watch prints files created or deleted by any of the caller's clients
// until Enter is pressed.
func (a *App) Watch(ctx context.Context) error {
	if err := a.requireUser(); err != nil {
		return err
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- a.watcher.Watch(wctx, func(c locker.Change) {
			if c.Deleted {
				a.printf("  - %s (%s)\n", c.Item.Filename, c.Item.Key)
				return
			}
			a.printf("  + %s (%s, %s)\n", c.Item.Filename, c.Item.Key, locker.FormatBytes(c.Item.Size, 2))
		})
	}()

	a.println("Watching for changes, press Enter to stop.")
	stop := make(chan struct{})
	go func() {
		_, _ = a.reader.ReadString('\n')
		close(stop)
	}()

	select {
	case <-stop:
		cancel()
		return <-done
	case err := <-done:
		// the reader goroutine still owns the next line of input
		a.println("Watch stopped, press Enter to continue.")
		<-stop
		return err
	}
}
