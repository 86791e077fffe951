package advisor

import (
	"strings"
	"unicode"
)

// Limits bound the length of a kept note, in runes.
type Limits struct {
	MinLen int
	MaxLen int
}

// DefaultLimits keeps notes of 5 to 120 characters.
func DefaultLimits() Limits {
	return Limits{MinLen: 5, MaxLen: 120}
}

// ParseReply maps tickers to notes found in reply. Matching ignores case and
// the result is keyed by the tickers as given. A blank reply yields an empty
// map. A non-blank reply with no usable line assigns the parse-failed
// placeholder to every ticker.
func ParseReply(reply string, tickers []string, lim Limits) map[string]string {
	notes := make(map[string]string)
	if strings.TrimSpace(reply) == "" {
		return notes
	}

	upper := make([]string, len(tickers))
	for i, t := range tickers {
		upper[i] = asciiUpper(t)
	}

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		i, rest, ok := matchTicker(line, upper)
		if !ok {
			continue
		}
		ticker := tickers[i]
		note := strings.TrimSpace(strings.TrimLeftFunc(rest, isLeadingNoise))
		if len([]rune(note)) < lim.MinLen {
			continue
		}
		if _, seen := notes[ticker]; seen {
			continue
		}
		notes[ticker] = truncate(note, lim.MaxLen)
	}

	if len(notes) == 0 {
		placeholder := ParseFailedPlaceholder(reply)
		for _, t := range tickers {
			notes[t] = placeholder
		}
	}
	return notes
}

// ParseFailedPlaceholder carries a snippet of the first reply line.
func ParseFailedPlaceholder(reply string) string {
	first := strings.TrimSpace(reply)
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	return "Parse failed. Raw: " + truncate(strings.TrimSpace(first), 60) + "..."
}

// matchTicker finds the earliest of the upper-cased tickers mentioned in line
// and returns its index. When two tickers start at the same offset the longer
// one wins, so "AAPL" beats "A".
func matchTicker(line string, tickers []string) (index int, rest string, ok bool) {
	haystack := asciiUpper(line)
	best, index := -1, -1
	for i, t := range tickers {
		if t == "" {
			continue
		}
		idx := strings.Index(haystack, t)
		if idx < 0 {
			continue
		}
		if best < 0 || idx < best || (idx == best && len(t) > len(tickers[index])) {
			best, index = idx, i
		}
	}
	if best < 0 {
		return -1, "", false
	}
	return index, line[best+len(tickers[index]):], true
}

func isLeadingNoise(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}

// asciiUpper upper-cases ASCII letters only so byte offsets stay aligned
// with the original string.
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
