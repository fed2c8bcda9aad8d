package strategy

import (
	"fmt"

	"TrendLens/internal/model"
)

// A rule inspects an analysis and returns the advice line it contributes, if any.
type rule func(a *model.Analysis) (string, bool)

func rsiOversold(a *model.Analysis) (string, bool) {
	if a.Signal.Momentum != model.Oversold {
		return "", false
	}
	return fmt.Sprintf("RSI oversold (%.1f): rebound possible", a.Signal.RSI), true
}

func macdBullish(a *model.Analysis) (string, bool) {
	if a.Signal.Trend != model.BullishCross {
		return "", false
	}
	return "MACD above signal line: upward momentum", true
}

func nearLowerBand(a *model.Analysis) (string, bool) {
	if a.Signal.Band != model.NearLowerBand {
		return "", false
	}
	return fmt.Sprintf("Price near lower Bollinger band (%.0f%%): consider buying", a.Signal.BandPosition), true
}

func aboveMidMA(a *model.Analysis) (string, bool) {
	if !a.Trend.AboveMA50 {
		return "", false
	}
	return fmt.Sprintf("Close above %s: uptrend", maName(a, 1, "mid-term average")), true
}

func shortAboveMid(a *model.Analysis) (string, bool) {
	if !a.Trend.MA20AboveMA50 {
		return "", false
	}
	return fmt.Sprintf("%s above %s: bullish alignment holds",
		maName(a, 0, "short-term average"), maName(a, 1, "mid-term average")), true
}

func midAboveLong(a *model.Analysis) (string, bool) {
	if !a.Trend.MA50AboveMA200 {
		return "", false
	}
	return fmt.Sprintf("%s above %s: long-term trend intact",
		maName(a, 1, "mid-term average"), maName(a, 2, "long-term average")), true
}

func maName(a *model.Analysis, i int, fallback string) string {
	if i < len(a.MovingAverages) && a.MovingAverages[i].Name != "" {
		return a.MovingAverages[i].Name
	}
	return fallback
}

func apply(a *model.Analysis, rules []rule) []string {
	var out []string
	for _, r := range rules {
		if line, ok := r(a); ok {
			out = append(out, line)
		}
	}
	return out
}
