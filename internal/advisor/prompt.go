package advisor

import (
	"fmt"
	"strings"

	"github.com/eduardosasso/bullish/internal/model"
)

const promptHeader = `You are a direct stock analyst. Search for latest news on these stocks, then give a ONE LINE verdict (max 100 chars).

RULES:
- Start with BUY, WAIT, or PASS
- State the KEY catalyst or risk in plain English
- NO URLs, links, or markdown formatting
- NO vague statements - be specific about WHY

GOOD examples:
"BUY - Cloud revenue up 40% YoY, AI integrations driving enterprise deals"
"PASS - Payroll processing facing AI automation threat; defensive but no growth catalyst"
"WAIT - Strong earnings but China exposure risk with new tariffs pending"

BAD examples (never do this):
"BUY - [Link](url) shows strong performance"
"WAIT - Stock is volatile"
"PASS - Concerns about outlook"

Stocks:
`

const promptFooter = `

Format: TICKER: [BUY/WAIT/PASS] - specific catalyst or risk`

// Candidates returns the advisory bucket members, one per ticker.
func Candidates(o *model.ScanOutcome) []model.Snapshot {
	return o.Unique(model.AdvisoryBuckets...)
}

// Summary renders the one-line description of s sent to the advisor.
func Summary(s model.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): Price $%.0f, ATH $%.0f (%+.1f%%), 1d change %+.1f%%, streak %d days, 30d return %+.1f%%",
		s.Ticker, s.Name, s.Price, s.ATH, s.PctFromATH, s.Change1d, s.Streak, s.ROC30d)
	if s.FairValue != 0 {
		fmt.Fprintf(&b, ", analyst FV $%.0f (%+.0f%%)", s.FairValue, s.Upside)
	}
	if s.Rating != "" {
		fmt.Fprintf(&b, ", rating %s", strings.ToUpper(s.Rating))
	}
	return b.String()
}

// BuildPrompt composes the single request covering every candidate.
func BuildPrompt(cands []model.Snapshot) string {
	lines := make([]string, len(cands))
	for i, s := range cands {
		lines[i] = Summary(s)
	}
	return promptHeader + strings.Join(lines, "\n") + promptFooter
}
