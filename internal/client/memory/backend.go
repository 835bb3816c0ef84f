// Package memory is an in-process stand-in for the hosted collaborators. It
// implements session.Identity together with the locker object store,
// catalog and watcher, and can be seeded with demo data for offline use.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/client/locker"
	"github.com/dmitrijs2005/safelocker/internal/client/session"
	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/google/uuid"
)

// Code is the one-time code every flow of the backend accepts.
const Code = "123456"

const defaultLimit = 100

var (
	errInvalidCredentials = common.WithMessage(common.ErrorUnauthorized, "Invalid credentials")
	errInvalidCode        = common.WithMessage(common.ErrInvalidCode, "Invalid OTP")
	errNotConfirmed       = common.WithMessage(common.ErrUserNotConfirmed, "User is not confirmed.")
	errUserExists         = common.WithMessage(common.ErrorAlreadyExists, "An account with the given email already exists.")
	errSignedOut          = common.WithMessage(common.ErrorUnauthorized, "No current user")
)

type account struct {
	user      session.User
	password  string
	confirmed bool
}

// Backend keeps accounts, objects and records in memory. It is safe for
// concurrent use.
type Backend struct {
	mu       sync.Mutex
	accounts map[string]*account
	current  *account
	objects  map[string]int64
	items    []media.Item
	watchers map[int]func(locker.Change)
	nextW    int
	now      func() time.Time
}

var (
	_ session.Identity   = (*Backend)(nil)
	_ locker.ObjectStore = (*Backend)(nil)
	_ locker.Catalog     = (*Backend)(nil)
	_ locker.Watcher     = (*Backend)(nil)
)

func New() *Backend {
	return &Backend{
		accounts: map[string]*account{},
		objects:  map[string]int64{},
		watchers: map[int]func(locker.Change){},
		now:      time.Now,
	}
}

func (b *Backend) signedIn() (*account, error) {
	if b.current == nil {
		return nil, errSignedOut
	}
	return b.current, nil
}

func (b *Backend) CurrentUser(ctx context.Context) (*session.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, err := b.signedIn()
	if err != nil {
		return nil, err
	}
	u := acc.user
	return &u, nil
}

func (b *Backend) SignIn(ctx context.Context, email, password string) (*session.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[email]
	if !ok || acc.password != password {
		return nil, errInvalidCredentials
	}
	if !acc.confirmed {
		return nil, errNotConfirmed
	}
	b.current = acc
	u := acc.user
	return &u, nil
}

func (b *Backend) SignUp(ctx context.Context, name, email, password string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[email]; ok {
		return errUserExists
	}
	b.accounts[email] = &account{
		user:     session.User{Username: email, UserID: uuid.NewString(), Name: name, Email: email},
		password: password,
	}
	return nil
}

func (b *Backend) ConfirmSignUp(ctx context.Context, email, code string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[email]
	if !ok || code != Code {
		return errInvalidCode
	}
	acc.confirmed = true
	return nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.current = nil
	b.mu.Unlock()
	return nil
}

// ResetPassword succeeds for unknown emails too.
func (b *Backend) ResetPassword(ctx context.Context, email string) error {
	return nil
}

func (b *Backend) ConfirmResetPassword(ctx context.Context, email, code, newPassword string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, ok := b.accounts[email]
	if !ok || code != Code {
		return errInvalidCode
	}
	acc.password = newPassword
	return nil
}

// Put drains body in ten steps, reporting progress after each.
func (b *Backend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, progress func(loaded, total int64)) (string, error) {
	b.mu.Lock()
	_, err := b.signedIn()
	b.mu.Unlock()
	if err != nil {
		return "", err
	}

	step := max(size/10, 1)
	var loaded int64
	for {
		n, err := io.CopyN(io.Discard, body, step)
		loaded += n
		if n > 0 && progress != nil {
			progress(loaded, size)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	if loaded != size {
		return "", fmt.Errorf("body has %d bytes, expected %d", loaded, size)
	}

	b.mu.Lock()
	b.objects[key] = size
	b.mu.Unlock()
	return key, nil
}

func (b *Backend) URL(ctx context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.signedIn(); err != nil {
		return "", err
	}
	if _, ok := b.objects[key]; !ok {
		return "", fmt.Errorf("object %s: %w", key, common.ErrorNotFound)
	}
	return "memory://objects/" + key, nil
}

// Remove deletes the object under key. Removing a missing object succeeds.
func (b *Backend) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.signedIn(); err != nil {
		return err
	}
	delete(b.objects, key)
	return nil
}

func (b *Backend) Create(ctx context.Context, in locker.NewItem) (*media.Item, error) {
	b.mu.Lock()
	acc, err := b.signedIn()
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	if _, ok := media.ParseFolder(in.Folder); !ok {
		b.mu.Unlock()
		return nil, common.Invalid("folder must be one of photos, videos, documents")
	}

	it := media.Item{
		ID:        uuid.NewString(),
		Owner:     acc.user.UserID,
		Filename:  in.Filename,
		Key:       in.Key,
		FileType:  in.FileType,
		Folder:    in.Folder,
		CreatedAt: b.now().UTC(),
		Size:      in.Size,
	}
	b.items = append(b.items, it)
	watchers := b.snapshotWatchers()
	b.mu.Unlock()

	for _, fn := range watchers {
		fn(locker.Change{Item: it})
	}
	return &it, nil
}

// List pages through the caller's records in creation order. NextToken is
// the offset of the next page.
func (b *Backend) List(ctx context.Context, q locker.ListQuery) (*locker.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acc, err := b.signedIn()
	if err != nil {
		return nil, err
	}

	var mine []media.Item
	for _, it := range b.items {
		if it.Owner != acc.user.UserID {
			continue
		}
		if q.Folder != "" && it.Folder != q.Folder {
			continue
		}
		mine = append(mine, it)
	}
	slices.SortStableFunc(mine, func(x, y media.Item) int { return x.CreatedAt.Compare(y.CreatedAt) })

	offset := 0
	if q.NextToken != "" {
		offset, err = strconv.Atoi(q.NextToken)
		if err != nil || offset < 0 || offset > len(mine) {
			return nil, common.Invalid("invalid next token")
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	end := min(offset+limit, len(mine))
	page := &locker.Page{Items: mine[offset:end]}
	if end < len(mine) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (b *Backend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	acc, err := b.signedIn()
	if err != nil {
		b.mu.Unlock()
		return err
	}

	i := slices.IndexFunc(b.items, func(it media.Item) bool {
		return it.ID == id && it.Owner == acc.user.UserID
	})
	if i < 0 {
		b.mu.Unlock()
		return fmt.Errorf("item %s: %w", id, common.ErrorNotFound)
	}
	it := b.items[i]
	b.items = slices.Delete(b.items, i, i+1)
	watchers := b.snapshotWatchers()
	b.mu.Unlock()

	for _, fn := range watchers {
		fn(locker.Change{Deleted: true, Item: it})
	}
	return nil
}

// Watch delivers changes made through this backend until ctx is done.
func (b *Backend) Watch(ctx context.Context, fn func(locker.Change)) error {
	b.mu.Lock()
	if _, err := b.signedIn(); err != nil {
		b.mu.Unlock()
		return err
	}
	id := b.nextW
	b.nextW++
	b.watchers[id] = fn
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.watchers, id)
	b.mu.Unlock()
	return nil
}

func (b *Backend) snapshotWatchers() []func(locker.Change) {
	out := make([]func(locker.Change), 0, len(b.watchers))
	for _, fn := range b.watchers {
		out = append(out, fn)
	}
	return out
}
