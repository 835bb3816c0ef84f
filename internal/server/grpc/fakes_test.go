package grpc

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/server/auth"
	"github.com/dmitrijs2005/safelocker/internal/server/config"
	"github.com/dmitrijs2005/safelocker/internal/server/events"
	"github.com/dmitrijs2005/safelocker/internal/server/metrics"
	"github.com/dmitrijs2005/safelocker/internal/server/models"
	"github.com/dmitrijs2005/safelocker/internal/server/services"
	"github.com/stretchr/testify/require"
)

const testSecret = "k"

type fakeIdentity struct {
	user   *models.User
	tokens *services.TokenPair
	err    error

	mu    sync.Mutex
	calls []string
}

func (f *fakeIdentity) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeIdentity) SignUp(_ context.Context, name, email, _ string) (*models.User, error) {
	f.record("signup " + email)
	return f.user, f.err
}

func (f *fakeIdentity) ConfirmSignUp(_ context.Context, email, code string) error {
	f.record("confirm " + email + " " + code)
	return f.err
}

func (f *fakeIdentity) SignIn(_ context.Context, email, _ string) (*models.User, *services.TokenPair, error) {
	f.record("signin " + email)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.user, f.tokens, nil
}

func (f *fakeIdentity) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	f.record("refresh " + token)
	return f.tokens, f.err
}

func (f *fakeIdentity) SignOut(_ context.Context, token string) error {
	f.record("signout " + token)
	return f.err
}

func (f *fakeIdentity) ForgotPassword(_ context.Context, email string) error {
	f.record("forgot " + email)
	return f.err
}

func (f *fakeIdentity) ConfirmForgotPassword(_ context.Context, email, code, _ string) error {
	f.record("reset " + email + " " + code)
	return f.err
}

func (f *fakeIdentity) CurrentUser(_ context.Context, userID string) (*models.User, error) {
	f.record("current " + userID)
	return f.user, f.err
}

// fakeCatalog keeps items in memory and publishes on a real hub.
type fakeCatalog struct {
	hub *events.Hub
	err error

	subscriptions atomic.Int32
	// hold, when set, stalls Subscribe until it is closed or the call ends
	hold chan struct{}

	mu    sync.Mutex
	items map[string]media.Item
	seq   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{hub: events.NewHub(), items: map[string]media.Item{}}
}

func (f *fakeCatalog) Create(ctx context.Context, owner string, in services.NewItem) (*media.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.seq++
	it := media.Item{
		ID:        "item-" + strconv.Itoa(f.seq),
		Owner:     owner,
		Filename:  in.Filename,
		Key:       in.Key,
		FileType:  in.FileType,
		Folder:    in.Folder,
		Size:      in.Size,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, f.seq, 0, time.UTC),
	}
	f.items[it.ID] = it
	f.mu.Unlock()

	_ = f.hub.Publish(ctx, events.Event{Kind: events.KindCreated, Owner: owner, Item: it})
	return &it, nil
}

func (f *fakeCatalog) List(_ context.Context, owner string, q services.ListQuery) (*services.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []media.Item
	for _, it := range f.items {
		if it.Owner == owner && (q.Folder == "" || it.Folder == q.Folder) {
			out = append(out, it)
		}
	}
	return &services.Page{Items: out}, nil
}

func (f *fakeCatalog) Delete(ctx context.Context, owner, id string) (*media.Item, error) {
	f.mu.Lock()
	it, ok := f.items[id]
	if !ok || it.Owner != owner {
		f.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	delete(f.items, id)
	f.mu.Unlock()

	_ = f.hub.Publish(ctx, events.Event{Kind: events.KindDeleted, Owner: owner, Item: it})
	return &it, nil
}

func (f *fakeCatalog) Subscribe(ctx context.Context, owner string, kind events.Kind) (<-chan media.Item, func(), error) {
	if f.hold != nil {
		f.subscriptions.Add(1)
		select {
		case <-f.hold:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	ch, cancel, err := f.hub.Subscribe(ctx, owner, kind)
	if f.hold == nil {
		f.subscriptions.Add(1)
	}
	return ch, cancel, err
}

type fakeObjects struct {
	err error
}

func (f *fakeObjects) PrepareUpload(_ context.Context, owner, key, _ string, _ int64) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "https://bucket/" + services.ObjectName(owner, key) + "?put", time.Unix(1700000000, 0).UTC(), nil
}

func (f *fakeObjects) DownloadURL(_ context.Context, owner, key string) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return "https://bucket/" + services.ObjectName(owner, key) + "?get", time.Unix(1700000000, 0).UTC(), nil
}

func (f *fakeObjects) Remove(_ context.Context, _, _ string) error { return f.err }

func testConfig() *config.Config {
	return &config.Config{
		EndpointAddrGRPC: "127.0.0.1:0",
		SecretKey:        testSecret,
		AuthRateLimit:    100,
		AuthRateBurst:    100,
	}
}

type fixture struct {
	server   *GRPCServer
	identity *fakeIdentity
	catalog  *fakeCatalog
	objects  *fakeObjects
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	f := &fixture{
		identity: &fakeIdentity{
			user:   &models.User{ID: "u1", Email: "ann@example.com", Name: "Ann", Confirmed: true},
			tokens: &services.TokenPair{AccessToken: "a", RefreshToken: "r"},
		},
		catalog: newFakeCatalog(),
		objects: &fakeObjects{},
		metrics: metrics.New(),
	}
	f.server = NewGRPCServer(cfg, logging.Nop(), f.identity, f.catalog, f.objects, f.metrics)
	return f
}

func token(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	tok, err := auth.GenerateToken(userID, []byte(testSecret), ttl)
	require.NoError(t, err)
	return tok
}
