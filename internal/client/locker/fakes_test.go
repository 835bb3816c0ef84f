package locker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/media"
)

// fakeStore keeps objects in memory and reports progress in fixed chunks.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string]int64
	calls   []string
	failPut map[string]error // by content type
	failRm  error
	chunk   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]int64{}, failPut: map[string]error{}, chunk: 1 << 20}
}

func (s *fakeStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string, progress func(loaded, total int64)) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, "put "+key)
	err := s.failPut[contentType]
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	var loaded int64
	buf := make([]byte, s.chunk)
	for {
		n, rerr := body.Read(buf)
		loaded += int64(n)
		if n > 0 && progress != nil {
			progress(loaded, size)
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return "", rerr
		}
	}
	if loaded != size {
		return "", fmt.Errorf("short body: %d of %d", loaded, size)
	}

	s.mu.Lock()
	s.objects[key] = loaded
	s.mu.Unlock()
	return key, nil
}

func (s *fakeStore) URL(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "url "+key)
	if _, ok := s.objects[key]; !ok {
		return "", errors.New("not found")
	}
	return "https://objects.test/" + key + "?sig=1", nil
}

func (s *fakeStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "remove "+key)
	if s.failRm != nil {
		return s.failRm
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) putCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, "put ") {
			n++
		}
	}
	return n
}

// fakeCatalog is an in-memory catalog with optional paging and failures.
type fakeCatalog struct {
	mu        sync.Mutex
	items     []media.Item
	seq       int
	failWith  error
	failList  error
	failDel   error
	pageSize  int
	loopToken bool
	deletes   int
}

func (c *fakeCatalog) Create(ctx context.Context, in NewItem) (*media.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return nil, c.failWith
	}
	c.seq++
	it := media.Item{
		ID: fmt.Sprintf("id-%d", c.seq), Owner: "owner-1", Filename: in.Filename, Key: in.Key,
		FileType: in.FileType, Folder: in.Folder, Size: in.Size,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, c.seq, 0, time.UTC),
	}
	c.items = append(c.items, it)
	return &it, nil
}

func (c *fakeCatalog) List(ctx context.Context, q ListQuery) (*Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failList != nil {
		return nil, c.failList
	}
	if c.loopToken {
		return &Page{Items: c.items[:1], NextToken: "again"}, nil
	}

	start := 0
	if q.NextToken != "" {
		fmt.Sscanf(q.NextToken, "off-%d", &start)
	}
	size := c.pageSize
	if size <= 0 {
		size = len(c.items)
	}
	end := min(start+size, len(c.items))
	page := &Page{Items: append([]media.Item(nil), c.items[start:end]...)}
	if end < len(c.items) {
		page.NextToken = fmt.Sprintf("off-%d", end)
	}
	return page, nil
}

func (c *fakeCatalog) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	if c.failDel != nil {
		return c.failDel
	}
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (c *fakeCatalog) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func sizedFile(name, mime string, size int64) File {
	return File{
		Name: name,
		Type: mime,
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(io.LimitReader(zeroReader{}, size)), nil
		},
	}
}

func bytesFile(name, mime string, b []byte) File {
	return File{
		Name: name,
		Type: mime,
		Size: int64(len(b)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil },
	}
}
