package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/dbx"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/server/config"
	"github.com/dmitrijs2005/safelocker/internal/server/mail"
	"github.com/dmitrijs2005/safelocker/internal/server/models"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/codes"
	mediarepo "github.com/dmitrijs2005/safelocker/internal/server/repositories/media"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// store is a shared in-memory backing for the fake repositories. It ignores
// transactions; tests check those through sqlmock expectations.
type store struct {
	mu      sync.Mutex
	seq     int
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	codes   map[string]*models.Code
	items   map[string]*media.Item
	failAll error
}

func newStore() *store {
	return &store{
		users:  map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
		codes:  map[string]*models.Code{},
		items:  map[string]*media.Item{},
	}
}

func (s *store) nextID() string {
	s.seq++
	return "id-" + strconv.Itoa(s.seq)
}

type fakeUsers struct{ s *store }

func (f fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failAll != nil {
		return nil, f.s.failAll
	}
	for _, e := range f.s.users {
		if e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = f.s.nextID()
	c.CreatedAt = time.Now()
	f.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failAll != nil {
		return nil, f.s.failAll
	}
	for _, u := range f.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) Confirm(_ context.Context, id string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Confirmed = true
	return nil
}

func (f fakeUsers) UpdatePassword(_ context.Context, id string, hash []byte) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeTokens struct{ s *store }

func (f fakeTokens) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (f fakeTokens) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	t, ok := f.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.s.tokens, token)
	return t, nil
}

func (f fakeTokens) Delete(_ context.Context, token string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.tokens, token)
	return nil
}

func (f fakeTokens) DeleteByUser(_ context.Context, userID string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for k, t := range f.s.tokens {
		if t.UserID == userID {
			delete(f.s.tokens, k)
		}
	}
	return nil
}

type fakeCodes struct{ s *store }

func codeKey(userID string, p models.CodePurpose) string { return userID + "/" + string(p) }

func (f fakeCodes) Upsert(_ context.Context, userID string, p models.CodePurpose, hash string, validity time.Duration) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.codes[codeKey(userID, p)] = &models.Code{UserID: userID, Purpose: p, Hash: hash, Expires: time.Now().Add(validity)}
	return nil
}

func (f fakeCodes) Find(_ context.Context, userID string, p models.CodePurpose) (*models.Code, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.codes[codeKey(userID, p)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *c
	return &out, nil
}

func (f fakeCodes) Delete(_ context.Context, userID string, p models.CodePurpose) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.codes, codeKey(userID, p))
	return nil
}

type fakeMedia struct{ s *store }

func (f fakeMedia) Create(_ context.Context, it *media.Item) (*media.Item, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failAll != nil {
		return nil, f.s.failAll
	}
	c := *it
	c.ID = f.s.nextID()
	c.CreatedAt = time.Date(2025, 1, 1, 0, 0, f.s.seq, 0, time.UTC)
	f.s.items[c.ID] = &c
	out := c
	return &out, nil
}

func (f fakeMedia) List(_ context.Context, p mediarepo.ListParams) ([]media.Item, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.failAll != nil {
		return nil, f.s.failAll
	}
	var out []media.Item
	for _, it := range f.s.items {
		if it.Owner != p.Owner || (p.Folder != "" && it.Folder != p.Folder) {
			continue
		}
		if !p.AfterCreated.IsZero() {
			if it.CreatedAt.Before(p.AfterCreated) || (it.CreatedAt.Equal(p.AfterCreated) && it.ID <= p.AfterID) {
				continue
			}
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

func (f fakeMedia) Delete(_ context.Context, owner, id string) (*media.Item, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	it, ok := f.s.items[id]
	if !ok || it.Owner != owner {
		return nil, common.ErrorNotFound
	}
	delete(f.s.items, id)
	return it, nil
}

type fakeRepoManager struct{ s *store }

func (m fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return fakeUsers{m.s} }
func (m fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return fakeTokens{m.s} }
func (m fakeRepoManager) Codes(dbx.DBTX) codes.Repository                 { return fakeCodes{m.s} }
func (m fakeRepoManager) Media(dbx.DBTX) mediarepo.Repository             { return fakeMedia{m.s} }

// outbox records mail instead of sending it.
type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (o *outbox) Send(_ context.Context, m mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, m)
	return nil
}

func (o *outbox) last(t *testing.T) mail.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return o.sent[len(o.sent)-1]
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

func newIdentity(t *testing.T) (*IdentityService, *store, *outbox, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	st := newStore()
	ob := &outbox{}
	return NewIdentityService(db, fakeRepoManager{st}, ob, testConfig(), logging.Nop()), st, ob, mock
}
