package notifier

import (
	"fmt"
	"html"
	"strings"

	"HedgeRatio/internal/model"
	"HedgeRatio/internal/recorder"
	"HedgeRatio/internal/report"
)

// FormatHedgeReport formats a hedge result into a Telegram HTML message.
func FormatHedgeReport(res *model.HedgeResult) string {
	var b strings.Builder
	e := res.Estimate

	b.WriteString(fmt.Sprintf("📊 <b>Hedge ratio</b> | %s vs %s\n",
		html.EscapeString(res.SpotSymbol), html.EscapeString(res.FuturesSymbol)))
	b.WriteString(fmt.Sprintf("%s → %s, %d observations\n\n",
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), e.Observations))

	b.WriteString(fmt.Sprintf("ρ̂: %.3f\n", e.Correlation))
	b.WriteString(fmt.Sprintf("σ̂S: %.3f%%\n", e.SigmaSpot))
	b.WriteString(fmt.Sprintf("σ̂F: %.3f%%\n", e.SigmaFutures))
	b.WriteString(fmt.Sprintf("<b>ĥ: %.3f</b>\n", e.HedgeRatio))
	if res.Contracts != nil {
		b.WriteString(fmt.Sprintf("\n📦 <b>N*:</b> %s contracts (V_F %s)\n",
			report.FormatContracts(res.Contracts.Contracts),
			report.FormatContracts(res.Contracts.FuturesContractValue)))
	}
	return b.String()
}

// FormatError formats a failed calculation.
func FormatError(spot, futures, message string) string {
	return fmt.Sprintf("❌ <b>%s vs %s</b>\n%s",
		html.EscapeString(spot), html.EscapeString(futures), html.EscapeString(message))
}

// FormatHistory formats recent runs, newest first.
func FormatHistory(runs []recorder.RunRecord) string {
	if len(runs) == 0 {
		return "No calculations recorded yet."
	}
	var b strings.Builder
	b.WriteString("🕘 <b>Recent calculations</b>\n\n")
	for _, r := range runs {
		pair := html.EscapeString(r.SpotSymbol + "/" + r.FuturesSymbol)
		if r.Error != "" {
			b.WriteString(fmt.Sprintf("%s %s: failed\n", r.RecordedAt.Format("01-02 15:04"), pair))
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s: ĥ=%.3f ρ̂=%.3f n=%d\n",
			r.RecordedAt.Format("01-02 15:04"), pair, r.HedgeRatio, r.Correlation, r.Observations))
	}
	return b.String()
}
