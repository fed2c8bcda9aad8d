package strategy

import "TrendLens/internal/model"

// Fallback lines used when no rule fires for a horizon.
const (
	ShortTermIdle = "No short-term setup: stay on the sidelines"
	MidTermIdle   = "No mid-term trend: wait for a reversal"
)

// Advice is the trading commentary derived from an analysis. It adds
// horizon-specific reading on top of the signal state and never replaces it.
type Advice struct {
	ShortTerm []string // 1-4 weeks
	MidTerm   []string // 1-3 months
	Warning   string
}

var (
	shortTermRules = []rule{rsiOversold, macdBullish, nearLowerBand}
	midTermRules   = []rule{aboveMidMA, shortAboveMid, midAboveLong}
)

// Advise builds short- and mid-term commentary from an analysis.
func Advise(a *model.Analysis) Advice {
	adv := Advice{
		ShortTerm: apply(a, shortTermRules),
		MidTerm:   apply(a, midTermRules),
	}
	if len(adv.ShortTerm) == 0 {
		adv.ShortTerm = []string{ShortTermIdle}
	}
	if len(adv.MidTerm) == 0 {
		adv.MidTerm = []string{MidTermIdle}
	}

	if a.Signal.Momentum == model.Overbought && a.Signal.Band == model.NearUpperBand {
		adv.Warning = "⚠️ RSI overbought at the upper band: consider taking partial profit"
	}
	return adv
}
