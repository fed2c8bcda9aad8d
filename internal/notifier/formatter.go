package notifier

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"TrendLens/internal/alert"
	"TrendLens/internal/model"
	"TrendLens/internal/recorder"
	"TrendLens/internal/strategy"
)

// price renders a value with two decimals, or n/a when undefined.
func price(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return humanize.FormatFloat("#,###.##", decimal.NewFromFloat(v).Round(2).InexactFloat64())
}

func pct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).Round(1).StringFixed(1) + "%"
}

func signedPct(v float64) string {
	s := pct(v)
	if s != "n/a" && v >= 0 {
		return "+" + s
	}
	return s
}

func last(s model.IndicatorSeries) float64 {
	v, ok := s.Last()
	if !ok {
		return math.NaN()
	}
	return v
}

// FormatAnalysisReport formats one symbol's analysis and advice into a Telegram message.
func FormatAnalysisReport(a *model.Analysis, adv strategy.Advice) string {
	var b strings.Builder

	date := a.ComputedAt.Format("2006-01-02")
	bar, hasBar := a.Series.Last()
	if hasBar {
		date = bar.Time.Format("2006-01-02")
	}
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> technical report | %s\n", html.EscapeString(a.Symbol), date))
	if a.Source != "" {
		b.WriteString(fmt.Sprintf("<i>source: %s, %d bars</i>\n", html.EscapeString(a.Source), a.Series.Len()))
	}
	b.WriteString("\n")

	if hasBar {
		change := ""
		if n := a.Series.Len(); n >= 2 {
			prev := a.Series.At(n - 2).Close
			change = " (" + signedPct((bar.Close-prev)/prev*100) + ")"
		}
		b.WriteString(fmt.Sprintf("Close: %s%s | Volume: %s\n", price(bar.Close), change, humanize.Comma(bar.Volume)))
		for _, ma := range a.MovingAverages {
			v := last(ma)
			dev := math.NaN()
			if !math.IsNaN(v) {
				dev = (bar.Close - v) / v * 100
			}
			b.WriteString(fmt.Sprintf("%s: %s (%s)\n", ma.Name, price(v), signedPct(dev)))
		}
	}

	sig := a.Signal
	b.WriteString("\n📈 <b>Signals:</b>\n")
	b.WriteString(fmt.Sprintf("  %s: %s %s\n", a.RSI.Name, price(sig.RSI), sig.Momentum))
	b.WriteString(fmt.Sprintf("  MACD: %s / signal %s %s\n", price(sig.MACD), price(sig.Signal), sig.Trend))
	b.WriteString(fmt.Sprintf("  Bollinger: %s to %s, position %s %s\n",
		price(last(a.Bollinger.Lower)), price(last(a.Bollinger.Upper)), pct(sig.BandPosition), sig.Band))

	b.WriteString("\n🎯 <b>Short-term (1-4 weeks):</b>\n")
	for _, line := range adv.ShortTerm {
		b.WriteString("  • " + line + "\n")
	}
	b.WriteString("🎯 <b>Mid-term (1-3 months):</b>\n")
	for _, line := range adv.MidTerm {
		b.WriteString("  • " + line + "\n")
	}

	b.WriteString("\n⚡ <b>Risk:</b>\n")
	if a.Risk != nil {
		b.WriteString(fmt.Sprintf("  Stop loss: %s (-%s)\n", price(a.Risk.StopLoss), pct(a.Risk.StopLossPct)))
		b.WriteString(fmt.Sprintf("  Target: %s (+%s)\n", price(a.Risk.Target), pct(a.Risk.TargetPct)))
	} else {
		b.WriteString("  " + html.EscapeString(a.LevelsNote) + "\n")
	}

	if adv.Warning != "" {
		b.WriteString(fmt.Sprintf("\n%s\n", adv.Warning))
	}
	return b.String()
}

// FormatDigest summarizes a watchlist run, one line per symbol.
func FormatDigest(analyses []*model.Analysis, failed []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Watchlist digest</b> | %d analyzed", len(analyses)))
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf(", %d failed", len(failed)))
	}
	b.WriteString("\n\n")

	for _, a := range analyses {
		s := a.Signal
		b.WriteString(fmt.Sprintf("<b>%s</b> %s | RSI %s %s | %s | %s\n",
			html.EscapeString(a.Symbol), price(s.Close), price(s.RSI), s.Momentum, s.Trend, s.Band))
	}
	if len(failed) > 0 {
		b.WriteString("\n❌ " + html.EscapeString(strings.Join(failed, ", ")) + "\n")
	}
	return b.String()
}

// FormatAlerts lists signal transitions detected in a scheduled run.
func FormatAlerts(changes []alert.Change) string {
	var b strings.Builder
	b.WriteString("🔔 <b>Signal changes</b>\n\n")
	for _, c := range changes {
		b.WriteString("  • " + html.EscapeString(c.String()) + "\n")
	}
	return b.String()
}

// FormatHistory renders recorded snapshots, newest first.
func FormatHistory(symbol string, snaps []recorder.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>%s</b> history\n\n", html.EscapeString(symbol)))
	if len(snaps) == 0 {
		b.WriteString("No snapshots recorded yet.\n")
		return b.String()
	}
	for _, s := range snaps {
		b.WriteString(fmt.Sprintf("%s (%s) %s | RSI %s %s | %s | %s\n",
			s.BarTime.Format("2006-01-02"), humanize.Time(s.ComputedAt),
			price(s.Close), price(s.RSI), s.RSIState, s.MACDState, s.BandState))
	}
	return b.String()
}

// FormatHelp lists the supported bot commands.
func FormatHelp(watchlist []string) string {
	var b strings.Builder
	b.WriteString("🤖 <b>TrendLens commands</b>\n\n")
	b.WriteString("/analyze SYMBOL - full technical report\n")
	b.WriteString("/watchlist - digest of every watched symbol\n")
	b.WriteString("/history SYMBOL - recently recorded signals\n")
	b.WriteString("/help - this message\n")
	if len(watchlist) > 0 {
		b.WriteString("\nWatching: " + html.EscapeString(strings.Join(watchlist, ", ")) + "\n")
	}
	return b.String()
}

var tagPattern = regexp.MustCompile(`</?[a-z]+>`)

// StripHTML turns a formatted message into plain terminal text.
func StripHTML(msg string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(msg, ""))
}
