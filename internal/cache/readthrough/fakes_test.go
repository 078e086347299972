package readthrough

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"

	"goflare.io/broker/internal/cache/limited"
	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/enrich"
	"goflare.io/broker/internal/models"
)

var testNow = time.Date(2025, 10, 6, 18, 0, 0, 0, time.UTC)

type fakeSecondary struct {
	mu      sync.Mutex
	entry   *models.Entry
	records map[string]models.Record
	err     error
	recent  atomic.Int64
	finds   atomic.Int64
}

func (s *fakeSecondary) Recent(ctx context.Context, kind models.Kind, limit int) (*models.Entry, error) {
	s.recent.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.entry == nil {
		return models.NewEntry(nil), nil
	}
	records := s.entry.Records
	if len(records) > limit {
		records = records[:limit]
	}
	return models.NewEntry(records), nil
}

func (s *fakeSecondary) Find(ctx context.Context, kind models.Kind, id string) (models.Record, error) {
	s.finds.Inc()
	if s.err != nil {
		return models.Record{}, s.err
	}
	r, ok := s.records[id]
	if !ok {
		return models.Record{}, models.ErrNotFound
	}
	return r, nil
}

type fakePrimary struct {
	items []models.Item
	err   error
	// failures are returned, one per call, before err and items
	failures    []error
	mu          sync.Mutex
	block       chan struct{}
	honorCtx    bool
	sawDeadline atomic.Bool
	published   atomic.Int64
	lastLimit   atomic.Int64
	itemCalls   atomic.Int64
}

func (p *fakePrimary) nextErr(ctx context.Context) error {
	_, ok := ctx.Deadline()
	p.sawDeadline.Store(ok)
	if p.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.failures) > 0 {
		err := p.failures[0]
		p.failures = p.failures[1:]
		return err
	}
	return p.err
}

func (p *fakePrimary) Published(ctx context.Context, limit int) ([]models.Item, error) {
	p.published.Inc()
	p.lastLimit.Store(int64(limit))
	if p.block != nil {
		<-p.block
	}
	if err := p.nextErr(ctx); err != nil {
		return nil, err
	}
	items := p.items
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (p *fakePrimary) Item(ctx context.Context, id string) (models.Item, error) {
	p.itemCalls.Inc()
	if err := p.nextErr(ctx); err != nil {
		return models.Item{}, err
	}
	for _, it := range p.items {
		if it.ID == id {
			return it, nil
		}
	}
	return models.Item{}, models.ErrNotFound
}

type dispatched struct {
	kind models.Kind
	ids  []string
}

type fakeDispatcher struct {
	mu     sync.Mutex
	jobs   []dispatched
	refuse bool
}

func (d *fakeDispatcher) Dispatch(kind models.Kind, records []models.Record) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	d.jobs = append(d.jobs, dispatched{kind: kind, ids: ids})
	return !d.refuse
}

func (d *fakeDispatcher) all() []dispatched {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatched(nil), d.jobs...)
}

type harness struct {
	cache      *Cache
	secondary  *fakeSecondary
	primary    *fakePrimary
	dispatcher *fakeDispatcher
	stats      *models.Metrics
}

func newHarness(t *testing.T, local bool, opts ...config.Option) *harness {
	t.Helper()
	opts = append([]config.Option{config.WithLocalCache(false, 0)}, opts...)
	cfg, err := config.NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	catalog, err := enrich.DefaultCatalog()
	if err != nil {
		t.Fatal(err)
	}

	var l1 *limited.Cache
	if local {
		l1, err = limited.New(64, cfg.Freshness, cfg.Logger)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = l1.Close() })
	}

	h := &harness{
		secondary:  &fakeSecondary{},
		primary:    &fakePrimary{},
		dispatcher: &fakeDispatcher{},
		stats:      models.NewMetrics(),
	}
	h.cache = New(cfg, h.secondary, h.primary, enrich.NewDeriver(catalog, cfg.Enrichment), h.dispatcher, l1, h.stats)
	h.cache.now = func() time.Time { return testNow }
	return h
}

func cachedRecords(n int, age time.Duration) *models.Entry {
	records := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.Record{
			ID:         "cached-" + string(rune('a'+i)),
			Kind:       models.KindHeadlines,
			Title:      "cached",
			Team:       "general",
			ComputedAt: testNow.Add(-age),
		})
	}
	return models.NewEntry(records)
}

func primaryItems(n int) []models.Item {
	items := make([]models.Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.Item{
			ID:          "post-" + string(rune('a'+i)),
			Title:       "Bears notebook",
			Excerpt:     "Practice notes.",
			PublishedAt: testNow.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	return items
}

func resultIDs(r models.Result) []string {
	ids := make([]string, 0, len(r.Data))
	for _, rec := range r.Data {
		ids = append(ids, rec.ID)
	}
	return ids
}
