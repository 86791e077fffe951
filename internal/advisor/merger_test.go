package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/model"
)

type fakeClient struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeClient) Ask(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func candidates() []model.Snapshot {
	return []model.Snapshot{
		{Ticker: "ABC", Name: "Abc Corp", Price: 80, ATH: 120, PctFromATH: -33.3, Change1d: -6.1, Streak: -4, ROC30d: -12, FairValue: 110, Upside: 37.5, Rating: "buy"},
		{Ticker: "XYZ", Name: "Xyz Inc", Price: 40, ATH: 55, PctFromATH: -27.2, Change1d: -1.2, Streak: -3, ROC30d: -8},
	}
}

func TestAssessEmptySkipsClient(t *testing.T) {
	client := &fakeClient{reply: "ABC: BUY - never asked"}
	got := NewMerger(client, Limits{}, logger.Discard()).Assess(context.Background(), nil)
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
	if client.calls != 0 {
		t.Errorf("client called %d times, want 0", client.calls)
	}
}

func TestAssessSuccess(t *testing.T) {
	client := &fakeClient{reply: "ABC: BUY - cloud margins expanding\nXYZ: PASS - debt refinancing risk"}
	got := NewMerger(client, Limits{}, logger.Discard()).Assess(context.Background(), candidates())

	if client.calls != 1 {
		t.Fatalf("client called %d times, want 1", client.calls)
	}
	if got["ABC"] != "BUY - cloud margins expanding" || got["XYZ"] != "PASS - debt refinancing risk" {
		t.Errorf("unexpected notes %v", got)
	}
	for _, want := range []string{
		"ABC (Abc Corp): Price $80, ATH $120 (-33.3%), 1d change -6.1%, streak -4 days, 30d return -12.0%, analyst FV $110 (+38%), rating BUY",
		"XYZ (Xyz Inc): Price $40, ATH $55 (-27.2%), 1d change -1.2%, streak -3 days, 30d return -8.0%\n",
		"Format: TICKER: [BUY/WAIT/PASS]",
	} {
		if !strings.Contains(client.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAssessFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", &Error{Kind: FailureNotFound, Command: "/usr/local/bin/claude"}, "claude CLI not found"},
		{"timeout", &Error{Kind: FailureTimeout}, "AI request timed out"},
		{"exit", &Error{Kind: FailureExit, Detail: "rate limited: please retry after a short while\n"}, "CLI error: rate limited: please retry after a short"},
		{"other", &Error{Kind: FailureOther, Err: errors.New("pipe broke")}, "AI error: pipe broke"},
		{"plain error", errors.New("unexpected"), "AI error: unexpected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{err: tt.err}
			got := NewMerger(client, Limits{}, logger.Discard()).Assess(context.Background(), candidates())
			if len(got) != 2 {
				t.Fatalf("got %d notes, want 2", len(got))
			}
			for ticker, note := range got {
				if note != tt.want {
					t.Errorf("%s = %q, want %q", ticker, note, tt.want)
				}
			}
		})
	}
}

func TestApply(t *testing.T) {
	shared := model.Snapshot{Ticker: "ABC", PctFromATH: -30, Change1d: -7}
	o := model.ScanOutcome{
		Watchlist: []model.Snapshot{shared},
		BigDrops:  []model.Snapshot{shared, {Ticker: "DEF", Change1d: -5}},
		BigGains:  []model.Snapshot{{Ticker: "GHI", Change1d: 9}},
	}

	cands := Candidates(&o)
	if len(cands) != 2 {
		t.Fatalf("candidates = %d, want 2", len(cands))
	}

	Apply(&o, map[string]string{"ABC": "BUY - oversold bounce setup", "GHI": "ignored"})

	if o.Watchlist[0].Assessment != "BUY - oversold bounce setup" {
		t.Errorf("watchlist note = %q", o.Watchlist[0].Assessment)
	}
	if o.BigDrops[0].Assessment != "BUY - oversold bounce setup" {
		t.Errorf("big_drops note = %q", o.BigDrops[0].Assessment)
	}
	if o.BigDrops[1].Assessment != "" {
		t.Errorf("DEF note = %q, want empty", o.BigDrops[1].Assessment)
	}
	if o.BigGains[0].Assessment != "" {
		t.Errorf("big_gains should not receive notes, got %q", o.BigGains[0].Assessment)
	}
}

func TestAssessKeysMatchApply(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
		want   string
	}{
		{"reply", &fakeClient{reply: "BRK-B: WAIT - buyback pace slowing"}, "WAIT - buyback pace slowing"},
		{"timeout", &fakeClient{err: &Error{Kind: FailureTimeout}}, "AI request timed out"},
		{"unparseable", &fakeClient{reply: "no opinion today"}, "Parse failed. Raw: no opinion today..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := model.ScanOutcome{Watchlist: []model.Snapshot{{Ticker: "brk-b", Price: 450, ATH: 600, PctFromATH: -25}}}

			notes := NewMerger(tt.client, Limits{}, logger.Discard()).Assess(context.Background(), Candidates(&o))
			if notes["brk-b"] != tt.want {
				t.Errorf("notes = %v, want brk-b -> %q", notes, tt.want)
			}

			Apply(&o, notes)
			if got := o.Watchlist[0].Assessment; got != tt.want {
				t.Errorf("assessment = %q, want %q", got, tt.want)
			}
		})
	}
}
