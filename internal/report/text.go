package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"HedgeRatio/internal/model"
)

// PreviewRows is how many trailing aligned rows the preview table shows.
const PreviewRows = 10

// FormatContracts renders N* with thousands separators and exactly two
// decimals, rounding half away from zero.
func FormatContracts(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(n).Round(2)
	sign := ""
	if d.Sign() < 0 {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole).StringFixed(2) // "0.xx"
	return sign + humanize.Comma(whole.IntPart()) + frac[1:]
}

// WriteText writes the metrics, the optional contract count and the preview table.
func WriteText(w io.Writer, res *model.HedgeResult) error {
	e := res.Estimate
	var b strings.Builder

	fmt.Fprintf(&b, "Minimum variance hedge ratio: %s vs %s (%s to %s, %d observations)\n\n",
		res.SpotSymbol, res.FuturesSymbol,
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), e.Observations)
	fmt.Fprintf(&b, "  Correlation (ρ̂)       %.3f\n", e.Correlation)
	fmt.Fprintf(&b, "  σ̂S (%%)               %.3f\n", e.SigmaSpot)
	fmt.Fprintf(&b, "  σ̂F (%%)               %.3f\n", e.SigmaFutures)
	fmt.Fprintf(&b, "  ĥ (hedge ratio)       %.3f\n", e.HedgeRatio)
	if res.Contracts != nil {
		fmt.Fprintf(&b, "  N* (optimal futures)  %s\n", FormatContracts(res.Contracts.Contracts))
	}
	b.WriteString("\nRecent data\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return WriteTable(w, res.Returns.Tail(PreviewRows))
}

// WriteTable writes aligned rows as a column table.
func WriteTable(w io.Writer, rows []model.ReturnRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Date\tSpot\tFutures\trS\trF\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			r.Date.Format("2006-01-02"), r.Spot, r.Futures, r.SpotReturn, r.FuturesReturn)
	}
	return tw.Flush()
}
