package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind selects which derived data set a read is for.
type Kind string

const (
	KindHeadlines Kind = "headlines"
	KindPulse     Kind = "pulse"
	KindBriefing  Kind = "briefing"
)

// Kinds returns every supported kind in canonical order.
func Kinds() []Kind {
	return []Kind{KindHeadlines, KindPulse, KindBriefing}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind resolves a kind name, case-insensitively.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return k, nil
}

// Source tags which path served a Result.
type Source string

const (
	SourceCache       Source = "cache"
	SourceBroker      Source = "broker"
	SourceUnavailable Source = "unavailable"
)

// Item is a raw published record read from the primary content store.
type Item struct {
	ID          string
	Title       string
	Excerpt     string
	Body        string
	Author      string
	Team        string
	PublishedAt time.Time
	Views       int64
	Comments    int64
	Shares      int64
}

// Record is the enriched, cacheable projection of an Item.
type Record struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary,omitempty"`
	Stats          []string  `json:"stats,omitempty"`
	Team           string    `json:"team"`
	Reliability    float64   `json:"reliability"`
	Velocity       float64   `json:"velocity"`
	Views          int64     `json:"views,omitempty"`
	Comments       int64     `json:"comments,omitempty"`
	Shares         int64     `json:"shares,omitempty"`
	Engagement     int64     `json:"engagement,omitempty"`
	ReadingMinutes int       `json:"readingMinutes,omitempty"`
	PublishedAt    time.Time `json:"publishedAt"`
	ComputedAt     time.Time `json:"computedAt"`
}

// Result is what a read hands back to page-rendering code.
// Data is nil when Source is SourceUnavailable.
type Result struct {
	Data      []Record  `json:"data"`
	Source    Source    `json:"source"`
	Stale     bool      `json:"stale,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Unavailable builds the result reported when every source is exhausted.
func Unavailable(now time.Time) Result {
	return Result{Source: SourceUnavailable, FetchedAt: now}
}
