package utils

import "testing"

func TestShardIndexIsStableAndBounded(t *testing.T) {
	for _, key := range []string{"headlines", "pulse", "briefing", ""} {
		first := ShardIndex(4, key)
		if first >= 4 {
			t.Errorf("ShardIndex(4, %q) = %d, out of range", key, first)
		}
		if again := ShardIndex(4, key); again != first {
			t.Errorf("ShardIndex not stable for %q: %d vs %d", key, first, again)
		}
	}
	if got := ShardIndex(0, "headlines"); got != 0 {
		t.Errorf("expected 0 for zero shards, got %d", got)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"broker", "headlines", "records"}, "broker:headlines:records"},
		{[]string{"", "pulse"}, "pulse"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Key(tt.parts...); got != tt.want {
			t.Errorf("Key(%v) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}
