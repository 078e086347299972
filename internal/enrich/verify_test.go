package enrich

import (
	"math"
	"testing"
)

func TestCorroborated(t *testing.T) {
	sources := []string{"Bears win 24-17", "A 24-17 final at Soldier Field", ""}

	tests := []struct {
		stat   string
		quorum int
		want   bool
	}{
		{"24-17", 2, true},
		{"24-17", 3, false},
		{"24-17", 1, true},
		{"4-17", 1, false},
		{"3 touchdowns", 1, false},
		{"anything", 0, true},
	}
	for _, tt := range tests {
		if got := Corroborated(tt.stat, sources, tt.quorum); got != tt.want {
			t.Errorf("Corroborated(%q, quorum=%d) = %v, want %v", tt.stat, tt.quorum, got, tt.want)
		}
	}
}

func TestCorroboratedMatchesWholeStats(t *testing.T) {
	tests := []struct {
		name    string
		stat    string
		sources []string
		want    bool
	}{
		{"inside a longer score", "10-7", []string{"Won 110-70", "a 110-70 rout"}, false},
		{"inside a date", "10-7", []string{"on 2024-10-7", "dated 2024-10-7"}, false},
		{"decimal tail", "5%", []string{"shot 38.5%", "38.5% from deep"}, false},
		{"sentence end", "10-7", []string{"They won 10-7.", "A 10-7 final, again"}, true},
		{"case and punctuation", "3 touchdowns", []string{"(3 Touchdowns)", "threw 3 touchdowns!"}, true},
		{"longer unit word", "2 goals", []string{"2 goalsx", "2 goalsy"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Corroborated(tt.stat, tt.sources, 2); got != tt.want {
				t.Errorf("Corroborated(%q) = %v, want %v", tt.stat, got, tt.want)
			}
		})
	}
}

func TestReliability(t *testing.T) {
	sources := []string{"Bears win 24-17", "24-17 final, 3 touchdowns", "nothing here"}

	tests := []struct {
		name  string
		stats []string
		base  float64
		bonus float64
		want  float64
	}{
		{"no stats keeps base", nil, 0.5, 0.4, 0.5},
		{"half corroborated", []string{"24-17", "3 touchdowns"}, 0.5, 0.4, 0.7},
		{"all corroborated", []string{"24-17"}, 0.5, 0.4, 0.9},
		{"clamped high", []string{"24-17"}, 0.9, 0.4, 1},
		{"clamped low", nil, -0.2, 0.4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reliability(tt.stats, sources, 2, tt.base, tt.bonus)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Reliability() = %v, want %v", got, tt.want)
			}
		})
	}
}
