package enrich

import (
	"fmt"
	"math"
	"strings"
	"time"

	"goflare.io/broker/internal/config"
	"goflare.io/broker/internal/models"
)

const (
	wordsPerMinute   = 200
	commentWeight    = 3
	shareWeight      = 5
	minVelocityHours = 1.0
)

// Deriver turns raw primary items into enriched records. It performs no I/O.
type Deriver struct {
	catalog *Catalog
	cfg     config.EnrichmentConfig
}

// NewDeriver builds a Deriver over catalog.
func NewDeriver(catalog *Catalog, cfg config.EnrichmentConfig) *Deriver {
	return &Deriver{catalog: catalog, cfg: cfg}
}

// Derive projects every item into a record of the requested kind, stamping
// each with computedAt.
func (d *Deriver) Derive(kind models.Kind, items []models.Item, computedAt time.Time) ([]models.Record, error) {
	var project func(models.Item, time.Time) models.Record
	switch kind {
	case models.KindHeadlines:
		project = d.headline
	case models.KindPulse:
		project = d.pulse
	case models.KindBriefing:
		project = d.briefing
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
	}

	records := make([]models.Record, 0, len(items))
	for _, item := range items {
		r := project(item, computedAt)
		r.ID = item.ID
		r.Kind = kind
		r.Title = item.Title
		r.PublishedAt = item.PublishedAt
		r.ComputedAt = computedAt
		records = append(records, r)
	}
	return records, nil
}

func (d *Deriver) headline(item models.Item, _ time.Time) models.Record {
	stats := ExtractStats(item.Title+"\n"+item.Excerpt, d.cfg.MaxStats)
	return models.Record{
		Summary:     item.Excerpt,
		Stats:       stats,
		Team:        d.team(item),
		Reliability: d.reliability(stats, item),
		Velocity:    d.cfg.DefaultVelocity,
	}
}

func (d *Deriver) pulse(item models.Item, now time.Time) models.Record {
	engagement := Engagement(item.Views, item.Comments, item.Shares)
	return models.Record{
		Team:        d.team(item),
		Reliability: d.cfg.DefaultReliability,
		Velocity:    Velocity(engagement, item.PublishedAt, now),
		Views:       item.Views,
		Comments:    item.Comments,
		Shares:      item.Shares,
		Engagement:  engagement,
	}
}

func (d *Deriver) briefing(item models.Item, _ time.Time) models.Record {
	stats := ExtractStats(strings.Join([]string{item.Title, item.Excerpt, item.Body}, "\n"), d.cfg.MaxStats)
	summary := FirstSentence(item.Excerpt)
	if summary == "" {
		summary = FirstSentence(item.Body)
	}
	return models.Record{
		Summary:        summary,
		Stats:          stats,
		Team:           d.team(item),
		Reliability:    d.reliability(stats, item),
		Velocity:       d.cfg.DefaultVelocity,
		ReadingMinutes: ReadingMinutes(item.Body),
	}
}

// team prefers the editor-assigned tag when it names a catalog team.
func (d *Deriver) team(item models.Item) string {
	if item.Team != "" {
		for _, name := range d.catalog.Names() {
			if strings.EqualFold(name, item.Team) {
				return name
			}
		}
	}
	if t := d.catalog.Detect(item.Title, item.Excerpt+" "+item.Body); t != "" {
		return t
	}
	return d.cfg.FallbackTag
}

func (d *Deriver) reliability(stats []string, item models.Item) float64 {
	sources := []string{item.Title, item.Excerpt, item.Body}
	return Reliability(stats, sources, d.cfg.Quorum, d.cfg.DefaultReliability, d.cfg.VerifiedBonus)
}

// Engagement weighs comments and shares above views.
func Engagement(views, comments, shares int64) int64 {
	return views + commentWeight*comments + shareWeight*shares
}

// Velocity is engagement per hour since publication, with at least one hour
// in the denominator, rounded to two decimals.
func Velocity(engagement int64, published, now time.Time) float64 {
	hours := minVelocityHours
	if !published.IsZero() {
		if h := now.Sub(published).Hours(); h > hours {
			hours = h
		}
	}
	return math.Round(float64(engagement)/hours*100) / 100
}

// ReadingMinutes estimates reading time at 200 words per minute, minimum one.
func ReadingMinutes(body string) int {
	words := len(strings.Fields(body))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// FirstSentence returns text up to and including the first sentence terminator.
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			// skip decimal points like 38.5
			if r == '.' && i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9' {
				continue
			}
			return text[:i+1]
		}
	}
	return text
}
