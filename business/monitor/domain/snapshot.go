// Package domain contains the core domain types for the monitor context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProtocolQuote is one protocol's answer for the watched trade. A failed
// quote keeps its protocol name and carries the error text instead of
// amounts.
type ProtocolQuote struct {
	Protocol  string
	AmountOut decimal.Decimal
	Price     decimal.Decimal // output per unit of input
	Err       string          // empty on success
}

// Failed reports whether the quote attempt errored.
func (q ProtocolQuote) Failed() bool { return q.Err != "" }

// Spread is the gap between the best and worst successful quotes of one
// sampling round.
type Spread struct {
	BestProtocol  string
	WorstProtocol string
	Absolute      decimal.Decimal // best output - worst output
	BasisPoints   decimal.Decimal // absolute / worst * 10000
}

// IsZero reports whether the round had too few quotes to compare.
func (s Spread) IsZero() bool { return s.BestProtocol == "" }

// CalculateSpread compares the successful quotes of a round. Fewer than
// two successes yield a zero spread. Ties keep the first-seen protocol.
func CalculateSpread(quotes []ProtocolQuote) Spread {
	var best, worst *ProtocolQuote
	for i := range quotes {
		q := &quotes[i]
		if q.Failed() {
			continue
		}
		if best == nil || q.AmountOut.GreaterThan(best.AmountOut) {
			best = q
		}
		if worst == nil || q.AmountOut.LessThan(worst.AmountOut) {
			worst = q
		}
	}
	if best == nil || worst == nil || best.Protocol == worst.Protocol {
		return Spread{}
	}

	absolute := best.AmountOut.Sub(worst.AmountOut)
	bps := decimal.Zero
	if !worst.AmountOut.IsZero() {
		bps = absolute.Div(worst.AmountOut).Mul(decimal.NewFromInt(10000))
	}

	return Spread{
		BestProtocol:  best.Protocol,
		WorstProtocol: worst.Protocol,
		Absolute:      absolute,
		BasisPoints:   bps,
	}
}

// Snapshot is one sampling round: every protocol's quote for the watched
// pair and size, the winner, and the inter-protocol spread.
type Snapshot struct {
	Pair      string
	AmountIn  decimal.Decimal
	Timestamp time.Time
	Quotes    []ProtocolQuote
	Best      *ProtocolQuote
	Spread    Spread
}

// NewSnapshot assembles a round. Best is the successful quote with the
// highest output, first-seen on ties; nil when every quote failed.
func NewSnapshot(pair string, amountIn decimal.Decimal, quotes []ProtocolQuote, at time.Time) *Snapshot {
	s := &Snapshot{
		Pair:      pair,
		AmountIn:  amountIn,
		Timestamp: at,
		Quotes:    quotes,
		Spread:    CalculateSpread(quotes),
	}
	for i := range quotes {
		q := &quotes[i]
		if q.Failed() {
			continue
		}
		if s.Best == nil || q.AmountOut.GreaterThan(s.Best.AmountOut) {
			s.Best = q
		}
	}
	return s
}

// HealthyQuotes counts the successful quotes in the round.
func (s *Snapshot) HealthyQuotes() int {
	n := 0
	for _, q := range s.Quotes {
		if !q.Failed() {
			n++
		}
	}
	return n
}
