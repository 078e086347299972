package readthrough

import (
	"context"
	"errors"
	"testing"
	"time"

	"goflare.io/broker/internal/models"
)

func TestLookup(t *testing.T) {
	fresh := models.Record{ID: "post-a", Kind: models.KindBriefing, Title: "cached", ComputedAt: testNow.Add(-time.Minute)}
	stale := fresh
	stale.ComputedAt = testNow.Add(-time.Hour)

	tests := []struct {
		name        string
		cached      *models.Record
		primaryErr  error
		items       []models.Item
		wantSource  models.Source
		wantStale   bool
		wantTitle   string
		wantPrimary int64
		wantWrites  int
	}{
		{
			name:       "fresh cache",
			cached:     &fresh,
			items:      primaryItems(1),
			wantSource: models.SourceCache,
			wantTitle:  "cached",
		},
		{
			name:        "stale cache recomputed",
			cached:      &stale,
			items:       primaryItems(1),
			wantSource:  models.SourceBroker,
			wantTitle:   "Bears notebook",
			wantPrimary: 1,
			wantWrites:  1,
		},
		{
			name:        "cache miss recomputed",
			items:       primaryItems(1),
			wantSource:  models.SourceBroker,
			wantTitle:   "Bears notebook",
			wantPrimary: 1,
			wantWrites:  1,
		},
		{
			name:        "primary down, stale served",
			cached:      &stale,
			primaryErr:  errDown,
			wantSource:  models.SourceCache,
			wantStale:   true,
			wantTitle:   "cached",
			wantPrimary: 1,
		},
		{
			name:        "unknown everywhere",
			wantSource:  models.SourceUnavailable,
			wantPrimary: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, false)
			h.secondary.records = map[string]models.Record{}
			if tt.cached != nil {
				h.secondary.records[tt.cached.ID] = *tt.cached
			}
			h.primary.items = tt.items
			h.primary.err = tt.primaryErr

			got, err := h.cache.Lookup(context.Background(), models.KindBriefing, "post-a")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.Source != tt.wantSource || got.Stale != tt.wantStale {
				t.Errorf("got %q stale=%v, want %q stale=%v", got.Source, got.Stale, tt.wantSource, tt.wantStale)
			}
			if tt.wantTitle != "" {
				if len(got.Data) != 1 || got.Data[0].Title != tt.wantTitle {
					t.Errorf("Data = %+v, want one record titled %q", got.Data, tt.wantTitle)
				}
			} else if got.Data != nil {
				t.Errorf("Data = %+v, want nil", got.Data)
			}
			if n := h.primary.itemCalls.Load(); n != tt.wantPrimary {
				t.Errorf("primary reads = %d, want %d", n, tt.wantPrimary)
			}
			if n := len(h.dispatcher.all()); n != tt.wantWrites {
				t.Errorf("write-backs = %d, want %d", n, tt.wantWrites)
			}
		})
	}
}

func TestLookupRejectsUnknownKind(t *testing.T) {
	h := newHarness(t, false)
	if _, err := h.cache.Lookup(context.Background(), models.Kind("odds"), "x"); !errors.Is(err, models.ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestLookupEmptyID(t *testing.T) {
	h := newHarness(t, false)
	got, err := h.cache.Lookup(context.Background(), models.KindHeadlines, "")
	if err != nil || got.Source != models.SourceUnavailable {
		t.Errorf("got %q, %v; want unavailable", got.Source, err)
	}
	if n := h.secondary.finds.Load(); n != 0 {
		t.Errorf("secondary reads = %d, want 0", n)
	}
}

func TestLookupRecomputeOutlivesCaller(t *testing.T) {
	h := newHarness(t, false)
	h.primary.items = primaryItems(1)
	h.primary.honorCtx = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := h.cache.Lookup(ctx, models.KindBriefing, "post-a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != models.SourceBroker || len(got.Data) != 1 {
		t.Errorf("got %q with %d records, want broker with 1", got.Source, len(got.Data))
	}
}
