package enrich

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed teams.yaml
var defaultCatalog []byte

// Team is a category a record can be tagged with.
type Team struct {
	Name     string   `yaml:"name"`
	League   string   `yaml:"league"`
	Keywords []string `yaml:"keywords"`
}

// Catalog is the ordered keyword table used for tag detection. Order matters:
// ties go to the earlier team.
type Catalog struct {
	Teams []Team `yaml:"teams"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalog)
}

// LoadCatalog reads a YAML catalog from r.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return parseCatalog(data)
}

// LoadCatalogFile reads a YAML catalog from path, or the embedded default
// when path is empty.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i, t := range c.Teams {
		if t.Name == "" {
			return nil, fmt.Errorf("team %d: name is required", i)
		}
		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("team %q: at least one keyword is required", t.Name)
		}
		for j, kw := range t.Keywords {
			c.Teams[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return &c, nil
}

// Names lists the team names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Teams))
	for _, t := range c.Teams {
		names = append(names, t.Name)
	}
	return names
}

// Detect returns the best matching team for the given title and body text,
// or "" when nothing matches. Title hits count double.
func (c *Catalog) Detect(title, text string) string {
	titleTokens := tokenize(title)
	textTokens := tokenize(text)
	titleLower := strings.ToLower(title)
	textLower := strings.ToLower(text)

	best, bestScore := "", 0
	for _, team := range c.Teams {
		score := 0
		for _, kw := range team.Keywords {
			if strings.Contains(kw, " ") {
				score += 2 * strings.Count(titleLower, kw)
				score += strings.Count(textLower, kw)
				continue
			}
			score += 2 * countToken(titleTokens, kw)
			score += countToken(textTokens, kw)
		}
		// strictly greater keeps the earlier team on ties
		if score > bestScore {
			best, bestScore = team.Name, score
		}
	}
	return best
}

func countToken(tokens []string, kw string) int {
	n := 0
	for _, t := range tokens {
		if t == kw {
			n++
		}
	}
	return n
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
