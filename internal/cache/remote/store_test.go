package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/models"
)

func newTestStore(t *testing.T, mr *miniredis.Miniredis, opts ...config.Option) *Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	opts = append([]config.Option{config.WithRetries(1, time.Millisecond, time.Millisecond)}, opts...)
	cfg, err := config.NewConfig(opts...)
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	s, err := New(context.Background(), client, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func record(id string, published time.Time) models.Record {
	return models.Record{
		ID:          id,
		Kind:        models.KindHeadlines,
		Title:       "title " + id,
		Stats:       []string{"24-17"},
		Team:        "bears",
		PublishedAt: published,
		ComputedAt:  published.Add(time.Hour),
	}
}

func ids(e *models.Entry) []string {
	out := make([]string, 0, len(e.Records))
	for _, r := range e.Records {
		out = append(out, r.ID)
	}
	return out
}

func TestStoreUpsertRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, miniredis.RunT(t))
	base := time.Date(2025, 10, 6, 12, 0, 0, 0, time.UTC)

	err := s.Upsert(ctx, models.KindHeadlines, []models.Record{
		record("a", base.Add(-3*time.Hour)),
		record("b", base.Add(-1*time.Hour)),
		record("c", base.Add(-2*time.Hour)),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{2, []string{"b", "c"}},
		{10, []string{"b", "c", "a"}},
		{0, []string{}},
	}
	for _, tt := range tests {
		got, err := s.Recent(ctx, models.KindHeadlines, tt.limit)
		if err != nil {
			t.Fatalf("Recent(%d) error = %v", tt.limit, err)
		}
		if g := ids(got); len(g) != len(tt.want) {
			t.Errorf("Recent(%d) = %v, want %v", tt.limit, g, tt.want)
		} else {
			for i := range g {
				if g[i] != tt.want[i] {
					t.Errorf("Recent(%d) = %v, want %v", tt.limit, g, tt.want)
					break
				}
			}
		}
	}

	page, _ := s.Recent(ctx, models.KindHeadlines, 10)
	// oldest record ("a") stamps the page
	if want := base.Add(-2 * time.Hour); !page.ComputedAt.Equal(want) {
		t.Errorf("ComputedAt = %v, want %v", page.ComputedAt, want)
	}
	if page.Records[0].Team != "bears" || len(page.Records[0].Stats) != 1 {
		t.Errorf("record fields lost: %+v", page.Records[0])
	}
}

func TestStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, miniredis.RunT(t))
	now := time.Now().UTC()

	first := record("a", now)
	if err := s.Upsert(ctx, models.KindHeadlines, []models.Record{first}); err != nil {
		t.Fatal(err)
	}
	second := first
	second.Title = "rewritten"
	if err := s.Upsert(ctx, models.KindHeadlines, []models.Record{second}); err != nil {
		t.Fatal(err)
	}

	page, err := s.Recent(ctx, models.KindHeadlines, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Records) != 1 {
		t.Fatalf("len = %d, want 1", len(page.Records))
	}
	if page.Records[0].Title != "rewritten" {
		t.Errorf("Title = %q", page.Records[0].Title)
	}
}

func TestStoreRetention(t *testing.T) {
	ctx := context.Background()

	t.Run("applied", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s := newTestStore(t, mr, config.WithRetention(48*time.Hour))
		if err := s.Upsert(ctx, models.KindPulse, []models.Record{record("a", time.Now())}); err != nil {
			t.Fatal(err)
		}
		for _, key := range []string{s.recordsKey(models.KindPulse), s.recentKey(models.KindPulse)} {
			if got := mr.TTL(key); got != 48*time.Hour {
				t.Errorf("TTL(%s) = %v, want 48h", key, got)
			}
		}
	})

	t.Run("disabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s := newTestStore(t, mr, config.WithRetention(0))
		if err := s.Upsert(ctx, models.KindPulse, []models.Record{record("a", time.Now())}); err != nil {
			t.Fatal(err)
		}
		if got := mr.TTL(s.recordsKey(models.KindPulse)); got != 0 {
			t.Errorf("TTL = %v, want none", got)
		}
	})
}

func TestStoreKindsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, miniredis.RunT(t))
	if err := s.Upsert(ctx, models.KindHeadlines, []models.Record{record("a", time.Now())}); err != nil {
		t.Fatal(err)
	}

	page, err := s.Recent(ctx, models.KindPulse, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !page.Empty() {
		t.Errorf("pulse page = %v, want empty", ids(page))
	}
}

func TestStoreFind(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, miniredis.RunT(t))
	if err := s.Upsert(ctx, models.KindBriefing, []models.Record{record("a", time.Now())}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Find(ctx, models.KindBriefing, "a")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.ID != "a" {
		t.Errorf("ID = %q", got.ID)
	}

	if _, err := s.Find(ctx, models.KindBriefing, "missing"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.Find(ctx, models.KindHeadlines, "a"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for other kind", err)
	}

	// known to the filter but gone from Redis
	s.bloomFilter.Add(models.KindBriefing, "evicted")
	if _, err := s.Find(ctx, models.KindBriefing, "evicted"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreBloomFilterSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	first := newTestStore(t, mr)
	if err := first.Upsert(ctx, models.KindHeadlines, []models.Record{record("a", time.Now())}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !mr.Exists(first.bloomKey()) {
		t.Fatal("bloom filter was not saved")
	}

	second := newTestStore(t, mr)
	if _, err := second.Find(ctx, models.KindHeadlines, "a"); err != nil {
		t.Errorf("Find() after restart error = %v", err)
	}
}

func TestStoreBloomFilterRebuiltWhenMissing(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	first := newTestStore(t, mr)
	if err := first.Upsert(ctx, models.KindPulse, []models.Record{record("a", time.Now())}); err != nil {
		t.Fatal(err)
	}
	mr.Del(first.bloomKey())

	second := newTestStore(t, mr)
	if _, err := second.Find(ctx, models.KindPulse, "a"); err != nil {
		t.Errorf("Find() after rebuild error = %v", err)
	}
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s := newTestStore(t, mr)
	mr.Close()

	if _, err := s.Recent(ctx, models.KindHeadlines, 10); err == nil {
		t.Error("Recent() on closed server should fail")
	}
	if err := s.Upsert(ctx, models.KindHeadlines, []models.Record{record("a", time.Now())}); err == nil {
		t.Error("Upsert() on closed server should fail")
	}
}

func TestStoreGobCodec(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, miniredis.RunT(t), config.WithSerialization("gob"))
	in := record("a", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := s.Upsert(ctx, models.KindHeadlines, []models.Record{in}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Find(ctx, models.KindHeadlines, "a")
	if err != nil {
		t.Fatal(err)
	}
	if !got.PublishedAt.Equal(in.PublishedAt) || got.Title != in.Title {
		t.Errorf("Find() = %+v", got)
	}
}
