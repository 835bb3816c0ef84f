package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/client/locker"
	"github.com/dmitrijs2005/safelocker/internal/client/session"
	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedIn(t *testing.T) *Backend {
	t.Helper()
	b := New().Seed()
	_, err := b.SignIn(context.Background(), DemoEmail, DemoPassword)
	require.NoError(t, err)
	return b
}

func TestIdentity_DemoAccount(t *testing.T) {
	ctx := context.Background()
	b := New().Seed()

	_, err := b.CurrentUser(ctx)
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = b.SignIn(ctx, DemoEmail, "Wrong123!")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Equal(t, "Invalid credentials", err.Error())

	u, err := b.SignIn(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, session.User{Username: "testuser", UserID: "mock-user-id", Name: "Test User", Email: DemoEmail}, *u)

	cur, err := b.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, *u, *cur)

	require.NoError(t, b.SignOut(ctx))
	_, err = b.CurrentUser(ctx)
	assert.Error(t, err)
}

func TestIdentity_SignUpFlow(t *testing.T) {
	ctx := context.Background()
	b := New()

	require.NoError(t, b.SignUp(ctx, "Ann", "ann@example.com", "Secret12!"))
	assert.ErrorIs(t, b.SignUp(ctx, "Ann", "ann@example.com", "Secret12!"), common.ErrorAlreadyExists)

	_, err := b.SignIn(ctx, "ann@example.com", "Secret12!")
	require.ErrorIs(t, err, common.ErrUserNotConfirmed)

	err = b.ConfirmSignUp(ctx, "ann@example.com", "000000")
	require.ErrorIs(t, err, common.ErrInvalidCode)
	assert.Equal(t, "Invalid OTP", err.Error())

	require.NoError(t, b.ConfirmSignUp(ctx, "ann@example.com", Code))
	u, err := b.SignIn(ctx, "ann@example.com", "Secret12!")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Username)
	assert.NotEmpty(t, u.UserID)
}

func TestIdentity_ResetFlow(t *testing.T) {
	ctx := context.Background()
	b := New().Seed()

	require.NoError(t, b.ResetPassword(ctx, "nobody@example.com"))
	require.NoError(t, b.ResetPassword(ctx, DemoEmail))

	require.ErrorIs(t, b.ConfirmResetPassword(ctx, DemoEmail, "111111", "Newpass1!"), common.ErrInvalidCode)
	require.NoError(t, b.ConfirmResetPassword(ctx, DemoEmail, Code, "Newpass1!"))

	_, err := b.SignIn(ctx, DemoEmail, DemoPassword)
	require.Error(t, err)
	_, err = b.SignIn(ctx, DemoEmail, "Newpass1!")
	require.NoError(t, err)
}

func TestSession_WithMemoryBackend(t *testing.T) {
	ctx := context.Background()
	s := session.New(New().Seed(), logging.Nop())

	_, err := s.SignIn(ctx, DemoEmail, "Wrong123!")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())

	u, err := s.SignIn(ctx, DemoEmail, DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, "Test User", u.Name)
}

func TestSeed_ListsFiveItemsInFolders(t *testing.T) {
	b := signedIn(t)
	lib := locker.NewLibrary(b, b, logging.Nop())

	fs := lib.List(context.Background())
	assert.Len(t, fs.Photos, 2)
	assert.Len(t, fs.Videos, 1)
	assert.Len(t, fs.Documents, 2)

	newest := locker.SortByCreated(fs.Photos, locker.Newest)
	assert.Equal(t, "vacation.jpg", newest[0].Filename)
	assert.Equal(t, "family.png", newest[1].Filename)

	// records carry the owner's user id, as the hosted catalog stores them
	for _, it := range append(append(fs.Photos, fs.Videos...), fs.Documents...) {
		assert.Equal(t, "mock-user-id", it.Owner)
	}
}

func TestList_RequiresSession(t *testing.T) {
	b := New().Seed()
	_, err := b.List(context.Background(), locker.ListQuery{})
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	lib := locker.NewLibrary(b, b, logging.Nop())
	assert.Zero(t, lib.List(context.Background()).Len())
}

func TestList_PagingAndFilter(t *testing.T) {
	ctx := context.Background()
	b := signedIn(t)

	p1, err := b.List(ctx, locker.ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, p1.Items, 2)
	require.Equal(t, "2", p1.NextToken)
	assert.Equal(t, "resume.pdf", p1.Items[0].Filename, "oldest first")

	p2, err := b.List(ctx, locker.ListQuery{Limit: 10, NextToken: p1.NextToken})
	require.NoError(t, err)
	assert.Len(t, p2.Items, 3)
	assert.Empty(t, p2.NextToken)

	docs, err := b.List(ctx, locker.ListQuery{Folder: "documents"})
	require.NoError(t, err)
	assert.Len(t, docs.Items, 2)

	_, err = b.List(ctx, locker.ListQuery{NextToken: "bogus"})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestList_ScopedByOwner(t *testing.T) {
	ctx := context.Background()
	b := New().Seed()
	require.NoError(t, b.SignUp(ctx, "Ann", "ann@example.com", "Secret12!"))
	require.NoError(t, b.ConfirmSignUp(ctx, "ann@example.com", Code))
	_, err := b.SignIn(ctx, "ann@example.com", "Secret12!")
	require.NoError(t, err)

	page, err := b.List(ctx, locker.ListQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	err = b.Delete(ctx, "mock1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUploadAndDelete_EndToEnd(t *testing.T) {
	ctx := context.Background()
	b := signedIn(t)
	b.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	var (
		mu      sync.Mutex
		changes []locker.Change
	)
	wctx, cancel := context.WithCancel(ctx)
	watching := make(chan error, 1)
	go func() {
		watching <- b.Watch(wctx, func(c locker.Change) {
			mu.Lock()
			changes = append(changes, c)
			mu.Unlock()
		})
	}()
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.watchers) == 1
	}, time.Second, 5*time.Millisecond)

	content := bytes.Repeat([]byte("x"), 1000)
	up := locker.NewUploader(b, b, logging.Nop())
	var percents []int
	res, err := up.Upload(ctx, []locker.File{{
		Name: "notes.txt",
		Type: "text/plain",
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(content)), nil },
	}}, func(ev locker.Event) { percents = append(percents, ev.Percent) })
	require.NoError(t, err)
	require.Len(t, res.Items, 1)

	it := res.Items[0]
	assert.Equal(t, "mock-user-id", it.Owner)
	assert.Equal(t, "documents", it.Folder)
	assert.True(t, strings.HasPrefix(it.Key, "documents/"))
	assert.True(t, media.ValidKey(it.Key))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), it.CreatedAt)
	assert.Contains(t, percents, 50)
	assert.Equal(t, 100, percents[len(percents)-1])

	lib := locker.NewLibrary(b, b, logging.Nop())
	url, err := lib.URL(ctx, it.Key)
	require.NoError(t, err)
	assert.Equal(t, "memory://objects/"+it.Key, url)

	require.NoError(t, lib.Delete(ctx, it.ID, it.Key))
	_, err = lib.URL(ctx, it.Key)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 5, lib.List(ctx).Len())

	cancel()
	require.NoError(t, <-watching)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.False(t, changes[0].Deleted)
	assert.True(t, changes[1].Deleted)
	assert.Equal(t, it.ID, changes[1].Item.ID)
}

func TestPut_RequiresSession(t *testing.T) {
	b := New()
	_, err := b.Put(context.Background(), "documents/x.txt", strings.NewReader("abc"), 3, "text/plain", nil)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestPut_ShortBody(t *testing.T) {
	b := signedIn(t)
	_, err := b.Put(context.Background(), "documents/x.txt", strings.NewReader("ab"), 3, "text/plain", nil)
	assert.Error(t, err)
}
