package enrich

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Corroborated reports whether stat appears in at least quorum of sources.
func Corroborated(stat string, sources []string, quorum int) bool {
	if quorum <= 0 {
		return true
	}
	needle := strings.ToLower(stat)
	matches := 0
	for _, src := range sources {
		if src != "" && containsStat(strings.ToLower(src), needle) {
			matches++
			if matches >= quorum {
				return true
			}
		}
	}
	return false
}

// containsStat reports whether stat occurs in text as a whole token, so
// "10-7" is not found in "110-70" or in the date "2024-10-7".
func containsStat(text, stat string) bool {
	if stat == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], stat)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(stat)
		if !joinedBefore(text, start) && !joinedAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func joinedBefore(text string, i int) bool {
	r, size := utf8.DecodeLastRuneInString(text[:i])
	if size == 0 {
		return false
	}
	if isWordRune(r) {
		return true
	}
	if r == '-' || r == '.' {
		prev, _ := utf8.DecodeLastRuneInString(text[:i-size])
		return unicode.IsDigit(prev)
	}
	return false
}

func joinedAfter(text string, i int) bool {
	r, size := utf8.DecodeRuneInString(text[i:])
	if size == 0 {
		return false
	}
	if isWordRune(r) {
		return true
	}
	if r == '-' || r == '.' {
		next, _ := utf8.DecodeRuneInString(text[i+size:])
		return unicode.IsDigit(next)
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Reliability scores a set of stats against their sources: base plus bonus
// scaled by the corroborated fraction, clamped to [0, 1]. No stats means base.
func Reliability(stats, sources []string, quorum int, base, bonus float64) float64 {
	if len(stats) == 0 {
		return clamp01(base)
	}
	verified := 0
	for _, s := range stats {
		if Corroborated(s, sources, quorum) {
			verified++
		}
	}
	return clamp01(base + bonus*float64(verified)/float64(len(stats)))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
