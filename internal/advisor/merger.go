package advisor

import (
	"context"
	"errors"

	"github.com/eduardosasso/bullish/internal/logger"
	"github.com/eduardosasso/bullish/internal/metrics"
	"github.com/eduardosasso/bullish/internal/model"
)

// Merger asks the advisor about candidates and never fails the caller.
type Merger struct {
	client Client
	limits Limits
	log    *logger.Entry
}

// NewMerger creates a Merger. Zero limits fall back to DefaultLimits.
func NewMerger(client Client, limits Limits, log *logger.Log) *Merger {
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Merger{client: client, limits: limits, log: log.WithComponent("advisor")}
}

// Assess returns a note per candidate ticker. Every failure is converted to a
// placeholder note. An empty candidate set returns an empty map without
// contacting the advisor.
func (m *Merger) Assess(ctx context.Context, cands []model.Snapshot) map[string]string {
	notes := make(map[string]string)
	if len(cands) == 0 {
		return notes
	}

	tickers := make([]string, len(cands))
	for i, s := range cands {
		tickers[i] = s.Ticker
	}

	m.log.WithField("candidates", len(cands)).Info("requesting assessments")
	reply, err := m.client.Ask(ctx, BuildPrompt(cands))
	if err != nil {
		placeholder, kind := placeholderFor(err)
		m.log.WithError(err).WithField("kind", kind.String()).Warn("advisor request failed")
		metrics.AdvisorRequests.WithLabelValues(kind.String()).Inc()
		for _, t := range tickers {
			notes[t] = placeholder
		}
		return notes
	}

	parsed := ParseReply(reply, tickers, m.limits)
	result := FailureNone.String()
	if parsed[tickers[0]] == ParseFailedPlaceholder(reply) {
		result = "parse_failed"
	}
	metrics.AdvisorRequests.WithLabelValues(result).Inc()
	m.log.WithField("assessed", len(parsed)).Info("assessments received")
	return parsed
}

func placeholderFor(err error) (string, FailureKind) {
	var advErr *Error
	if errors.As(err, &advErr) {
		return advErr.Placeholder(), advErr.Kind
	}
	e := &Error{Kind: FailureOther, Err: err}
	return e.Placeholder(), FailureOther
}

// Apply writes notes, keyed by snapshot ticker, into the advisory buckets.
// Members without a note get an empty assessment.
func Apply(o *model.ScanOutcome, notes map[string]string) {
	for _, b := range model.AdvisoryBuckets {
		list := o.List(b)
		for i := range *list {
			s := &(*list)[i]
			s.Assessment = notes[s.Ticker]
		}
	}
}
