package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/safelocker/internal/common"
	"github.com/dmitrijs2005/safelocker/internal/logging"
	"github.com/dmitrijs2005/safelocker/internal/media"
	"github.com/dmitrijs2005/safelocker/internal/server/events"
	"github.com/dmitrijs2005/safelocker/internal/server/metrics"
	mediarepo "github.com/dmitrijs2005/safelocker/internal/server/repositories/media"
	"github.com/dmitrijs2005/safelocker/internal/server/repositories/repomanager"
)

// Page sizes of List.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

var errBadNextToken = common.Invalid("Invalid pagination token.")

// NewItem is what a caller supplies to Create. Owner, id and creation time
// are assigned by the server.
type NewItem struct {
	Filename string
	Key      string
	FileType string
	Folder   string
	Size     int64
}

// ListQuery selects one page of the caller's records.
type ListQuery struct {
	Folder    string
	Limit     int
	NextToken string
}

type Page struct {
	Items     []media.Item
	NextToken string
}

// CatalogService keeps the per-owner catalog of stored objects and announces
// every change on the event bus.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bus         events.Bus
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager, bus events.Bus, mt *metrics.Metrics, logger logging.Logger) *CatalogService {
	return &CatalogService{db: db, repomanager: m, bus: bus, metrics: mt, logger: logger.With("module", "catalog")}
}

func validateNewItem(in NewItem) error {
	folder, ok := media.ParseFolder(in.Folder)
	if !ok {
		return common.Invalid(fmt.Sprintf("Unknown folder %q.", in.Folder))
	}
	keyFolder, ok := media.SplitKey(in.Key)
	if !ok {
		return common.Invalid(fmt.Sprintf("Invalid key %q.", in.Key))
	}
	if keyFolder != folder {
		return common.Invalid(fmt.Sprintf("Key %q does not belong to folder %q.", in.Key, in.Folder))
	}
	if in.Size < 0 {
		return common.Invalid("Size must not be negative.")
	}
	if in.Filename == "" {
		return common.Invalid("Filename is required.")
	}
	return nil
}

func (s *CatalogService) Create(ctx context.Context, owner string, in NewItem) (*media.Item, error) {
	if err := validateNewItem(in); err != nil {
		return nil, err
	}

	it, err := s.repomanager.Media(s.db).Create(ctx, &media.Item{
		Owner:    owner,
		Filename: in.Filename,
		Key:      in.Key,
		FileType: in.FileType,
		Folder:   in.Folder,
		Size:     in.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating item: %w", err)
	}

	s.metrics.ItemsCreated.WithLabelValues(it.Folder).Inc()
	s.publish(ctx, events.KindCreated, it)
	return it, nil
}

func (s *CatalogService) List(ctx context.Context, owner string, q ListQuery) (*Page, error) {
	limit, err := pageSize(q.Limit)
	if err != nil {
		return nil, err
	}
	if q.Folder != "" {
		if _, ok := media.ParseFolder(q.Folder); !ok {
			return nil, common.Invalid(fmt.Sprintf("Unknown folder %q.", q.Folder))
		}
	}

	p := mediarepo.ListParams{Owner: owner, Folder: q.Folder, Limit: limit + 1}
	if q.NextToken != "" {
		c, err := decodeCursor(q.NextToken)
		if err != nil {
			return nil, err
		}
		p.AfterCreated, p.AfterID = c.CreatedAt, c.ID
	}

	items, err := s.repomanager.Media(s.db).List(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}

	page := &Page{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[limit-1]
		page.NextToken = encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *CatalogService) Delete(ctx context.Context, owner, id string) (*media.Item, error) {
	if id == "" {
		return nil, common.Invalid("Id is required.")
	}
	it, err := s.repomanager.Media(s.db).Delete(ctx, owner, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error deleting item: %w", err)
	}

	s.metrics.ItemsDeleted.Inc()
	s.publish(ctx, events.KindDeleted, it)
	return it, nil
}

// Subscribe streams owner's changes of one kind until cancel is called.
func (s *CatalogService) Subscribe(ctx context.Context, owner string, kind events.Kind) (<-chan media.Item, func(), error) {
	return s.bus.Subscribe(ctx, owner, kind)
}

// publish is best effort: the record is already stored.
func (s *CatalogService) publish(ctx context.Context, kind events.Kind, it *media.Item) {
	if err := s.bus.Publish(ctx, events.Event{Kind: kind, Owner: it.Owner, Item: *it}); err != nil {
		s.logger.Warn(ctx, "Publishing event failed", "kind", kind, "id", it.ID, "error", err)
	}
}

func pageSize(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, common.Invalid("Limit must not be negative.")
	case limit == 0:
		return DefaultPageSize, nil
	case limit > MaxPageSize:
		return MaxPageSize, nil
	}
	return limit, nil
}

// cursor is the position after which the next page starts.
type cursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func encodeCursor(c cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (cursor, error) {
	var c cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, errBadNextToken
	}
	if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" || c.CreatedAt.IsZero() {
		return c, errBadNextToken
	}
	return c, nil
}
