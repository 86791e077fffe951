package advisor

import (
	"strings"
	"testing"
)

func TestParseReply(t *testing.T) {
	lim := DefaultLimits()
	tests := []struct {
		name    string
		reply   string
		tickers []string
		want    map[string]string
	}{
		{
			name:    "simple line",
			reply:   "ABC: BUY - strong momentum",
			tickers: []string{"ABC"},
			want:    map[string]string{"ABC": "BUY - strong momentum"},
		},
		{
			name:    "markdown and case",
			reply:   "**abc**: WAIT - earnings next week\n\n- (XYZ) PASS - margin squeeze from tariffs",
			tickers: []string{"ABC", "XYZ"},
			want: map[string]string{
				"ABC": "WAIT - earnings next week",
				"XYZ": "PASS - margin squeeze from tariffs",
			},
		},
		{
			name:    "first assignment wins",
			reply:   "ABC: BUY - first take\nABC: PASS - second take",
			tickers: []string{"ABC"},
			want:    map[string]string{"ABC": "BUY - first take"},
		},
		{
			name:    "first match per line",
			reply:   "XYZ: BUY - better than ABC on margins",
			tickers: []string{"ABC", "XYZ"},
			want:    map[string]string{"XYZ": "BUY - better than ABC on margins"},
		},
		{
			name:    "longer ticker at same offset",
			reply:   "AAPL: BUY - services growth accelerating",
			tickers: []string{"A", "AAPL"},
			want:    map[string]string{"AAPL": "BUY - services growth accelerating"},
		},
		{
			name:    "too short is skipped",
			reply:   "ABC: BUY\nXYZ: WAIT - guidance cut",
			tickers: []string{"ABC", "XYZ"},
			want:    map[string]string{"XYZ": "WAIT - guidance cut"},
		},
		{
			name:    "exactly five characters kept",
			reply:   "ABC: BUY!!",
			tickers: []string{"ABC", "XYZ"},
			want:    map[string]string{"ABC": "BUY!!"},
		},
		{
			name:    "keys keep the given ticker spelling",
			reply:   "BRK-B: BUY - insurance float compounding",
			tickers: []string{"brk-b"},
			want:    map[string]string{"brk-b": "BUY - insurance float compounding"},
		},
		{
			name:    "blank reply",
			reply:   "  \n\t\n",
			tickers: []string{"ABC"},
			want:    map[string]string{},
		},
		{
			name:    "unparseable reply",
			reply:   "I could not find any news today.\nSorry.",
			tickers: []string{"ABC", "XYZ"},
			want: map[string]string{
				"ABC": "Parse failed. Raw: I could not find any news today....",
				"XYZ": "Parse failed. Raw: I could not find any news today....",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReply(tt.reply, tt.tickers, lim)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d notes %v, want %d", len(got), got, len(tt.want))
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("note[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestParseReplyTruncates(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := ParseReply("ABC: "+long, []string{"ABC"}, DefaultLimits())
	if n := len([]rune(got["ABC"])); n != 120 {
		t.Errorf("note length = %d runes, want 120", n)
	}
}

func TestParseFailedPlaceholderSnippet(t *testing.T) {
	reply := strings.Repeat("x", 100) + "\nsecond"
	got := ParseFailedPlaceholder(reply)
	want := "Parse failed. Raw: " + strings.Repeat("x", 60) + "..."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
