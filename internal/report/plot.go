package report

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"HedgeRatio/internal/model"
)

const (
	plotWidth  = 700
	plotHeight = 500
	plotMargin = 60
)

// Line is the hedge line segment y = h*x drawn over the rF range.
type Line struct {
	X0, Y0, X1, Y1 float64
}

// HedgeLine returns the segment of slope h through the origin spanning the
// futures return range.
func HedgeLine(res *model.HedgeResult) Line {
	minX, maxX := bounds(res.Returns.FuturesReturns())
	h := res.Estimate.HedgeRatio
	return Line{X0: minX, Y0: h * minX, X1: maxX, Y1: h * maxX}
}

// ScatterSVG renders (rF, rS) pairs with the hedge line.
func ScatterSVG(res *model.HedgeResult) []byte {
	xs, ys := res.Returns.FuturesReturns(), res.Returns.SpotReturns()
	line := HedgeLine(res)

	minX, maxX := bounds(xs)
	minY, maxY := bounds(append(append([]float64{}, ys...), line.Y0, line.Y1))
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)

	sx := func(x float64) float64 {
		return plotMargin + (x-minX)/(maxX-minX)*(plotWidth-2*plotMargin)
	}
	sy := func(y float64) float64 {
		return plotHeight - plotMargin - (y-minY)/(maxY-minY)*(plotHeight-2*plotMargin)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="12">`+"\n",
		plotWidth, plotHeight, plotWidth, plotHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="white"/>` + "\n")
	fmt.Fprintf(&b, `<text x="%d" y="24" text-anchor="middle" font-size="15">%s</text>`+"\n",
		plotWidth/2, html.EscapeString(fmt.Sprintf("%s vs %s hedge ratio", res.SpotSymbol, res.FuturesSymbol)))

	// grid at zero
	if minY < 0 && maxY > 0 {
		fmt.Fprintf(&b, `<line x1="%d" y1="%.2f" x2="%d" y2="%.2f" stroke="#bbb" stroke-dasharray="4 4"/>`+"\n",
			plotMargin, sy(0), plotWidth-plotMargin, sy(0))
	}
	if minX < 0 && maxX > 0 {
		fmt.Fprintf(&b, `<line x1="%.2f" y1="%d" x2="%.2f" y2="%d" stroke="#bbb" stroke-dasharray="4 4"/>`+"\n",
			sx(0), plotMargin, sx(0), plotHeight-plotMargin)
	}
	fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#333"/>`+"\n",
		plotMargin, plotMargin, plotWidth-2*plotMargin, plotHeight-2*plotMargin)

	b.WriteString(`<g fill="steelblue" fill-opacity="0.6">` + "\n")
	for i := range xs {
		fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3"/>`+"\n", sx(xs[i]), sy(ys[i]))
	}
	b.WriteString("</g>\n")

	fmt.Fprintf(&b, `<line class="hedge" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="red" stroke-width="2"/>`+"\n",
		sx(line.X0), sy(line.Y0), sx(line.X1), sy(line.Y1))

	fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle">r̂F (%% change in futures)</text>`+"\n", plotWidth/2, plotHeight-20)
	fmt.Fprintf(&b, `<text x="18" y="%d" text-anchor="middle" transform="rotate(-90 18 %d)">r̂S (%% change in spot)</text>`+"\n", plotHeight/2, plotHeight/2)
	fmt.Fprintf(&b, `<text x="%d" y="%d" fill="red">hedge line (ĥ=%.3f)</text>`+"\n", plotMargin+10, plotMargin+18, res.Estimate.HedgeRatio)
	fmt.Fprintf(&b, `<text x="%d" y="%d" fill="steelblue">daily %% returns</text>`+"\n", plotMargin+10, plotMargin+34)
	b.WriteString("</svg>\n")
	return b.Bytes()
}

func bounds(vs []float64) (lo, hi float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// pad widens [lo, hi] by 5% so points do not sit on the frame.
func pad(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(lo), 1)
	}
	return lo - span*0.05, hi + span*0.05
}
