package content

import (
	"regexp"
	"strings"
	"time"

	"goflare.io/broker/internal/models"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Post is a row of the primary content store.
type Post struct {
	ID          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex"`
	Excerpt     string
	Body        string
	Author      string
	Team        string
	Status      string     `gorm:"index;not null;default:draft"`
	PublishedAt *time.Time `gorm:"index"`
	Views       int64
	Comments    int64
	Shares      int64
}

func (p *Post) toItem() models.Item {
	item := models.Item{
		ID:       p.ID,
		Title:    p.Title,
		Excerpt:  p.Excerpt,
		Body:     p.Body,
		Author:   p.Author,
		Team:     p.Team,
		Views:    p.Views,
		Comments: p.Comments,
		Shares:   p.Shares,
	}
	if p.PublishedAt != nil {
		item.PublishedAt = p.PublishedAt.UTC()
	}
	return item
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases title and joins its words with dashes.
func Slugify(title string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(title), "-"), "-")
}
