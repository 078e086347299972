package enrich

import (
	"regexp"
	"strings"
)

type statPattern struct {
	re *regexp.Regexp
	// keep filters matches; nil keeps all
	keep func(string) bool
}

var statPatterns = []statPattern{
	// 31 points, 2 TDs, 112 rushing yards
	{re: regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s+(?:(?:rushing|passing|receiving)\s+)?(?:points|pts|rebounds|assists|yards|touchdowns|tds|sacks|goals|saves|strikeouts|home runs|rbis|hits|wins|losses|interceptions)\b`)},
	// 24-17, 10-7; whole hyphenated runs are matched so dates like 2024-10-19 can be dropped
	{re: regexp.MustCompile(`\b\d+(?:-\d+)+\b`), keep: isScorePair},
	// 45%, 38.5%
	{re: regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?%`)},
}

func isScorePair(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		if len(p) > 3 {
			return false
		}
	}
	return true
}

// ExtractStats pulls statistic phrases out of free text, in order of first
// appearance, without duplicates, keeping at most max (all when max <= 0).
func ExtractStats(text string, max int) []string {
	type hit struct {
		pos  int
		stat string
	}

	var hits []hit
	for _, p := range statPatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			stat := text[loc[0]:loc[1]]
			if p.keep != nil && !p.keep(stat) {
				continue
			}
			hits = append(hits, hit{pos: loc[0], stat: normalizeStat(stat)})
		}
	}

	// insertion sort; hit counts are tiny
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	seen := make(map[string]bool, len(hits))
	var out []string
	for _, h := range hits {
		key := strings.ToLower(h.stat)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h.stat)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func normalizeStat(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
