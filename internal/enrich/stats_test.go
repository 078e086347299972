package enrich

import (
	"reflect"
	"testing"
)

func TestExtractStats(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{
			name: "ordered by appearance",
			text: "Williams throws 3 touchdowns as Bears win 24-17",
			want: []string{"3 touchdowns", "24-17"},
		},
		{
			name: "duplicates collapse case-insensitively",
			text: "DeRozan scored 31 points. Yes, 31  Points.",
			want: []string{"31 points"},
		},
		{
			name: "prefixed yards",
			text: "Swift ran for 112 rushing yards",
			want: []string{"112 rushing yards"},
		},
		{
			name: "percentages",
			text: "Bulls shot 38.5% from deep and 51% overall",
			want: []string{"38.5%", "51%"},
		},
		{
			name: "capped",
			text: "8 rebounds, 7 assists, 22 points",
			max:  2,
			want: []string{"8 rebounds", "7 assists"},
		},
		{
			name: "dates are not scores",
			text: "On 2024-10-19 the Bears won 24-17",
			want: []string{"24-17"},
		},
		{
			name: "long hyphenated numbers skipped",
			text: "Call 1234-567 or check the 110-70 rout",
			want: []string{"110-70"},
		},
		{
			name: "nothing to find",
			text: "Practice report: all quiet at Halas Hall",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractStats(tt.text, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractStats() = %q, want %q", got, tt.want)
			}
		})
	}
}
