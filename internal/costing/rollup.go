package costing

import (
	"math"

	"github.com/samber/lo"
)

// Breakdown contains every intermediate value of the roll-up.
type Breakdown struct {
	ComponentTotal      float64
	Labour              float64
	Polish              float64
	Hardware            float64
	CNC                 float64
	Foam                float64
	Iron                float64
	CustomTotal         float64
	ExtrasTotal         float64
	Subtotal            float64
	MA                  float64
	SubtotalWithMA      float64
	Profit              float64
	SubtotalWithMargins float64
	GST                 float64
}

// Totals contains the final price.
type Totals struct {
	GrandTotal float64
}

// Summary groups the per-line values, the breakdown and the totals.
type Summary struct {
	Lines     []Line
	Breakdown Breakdown
	Totals    Totals
}

// Aggregate rolls components, extras and custom costs into a Summary.
//
// The order is fixed: MA applies to the subtotal, profit to the MA-inclusive
// subtotal and GST to the margin-inclusive subtotal.
func (r Rules) Aggregate(components []Component, extras Extras, custom []CustomCost) Summary {
	lines := lo.Map(components, func(c Component, _ int) Line { return r.Line(c) })

	componentTotal := lo.SumBy(lines, func(l Line) float64 { return l.Cost })
	iron := extras.IronWeight * extras.IronRate
	customTotal := lo.SumBy(custom, func(c CustomCost) float64 { return c.Amount })
	extrasTotal := extras.Labour + extras.Polish + extras.Hardware + extras.CNC + extras.Foam + iron + customTotal

	subtotal := componentTotal + extrasTotal
	ma := subtotal * (extras.MAPercentage / 100.0)
	subtotalWithMA := subtotal + ma
	profit := subtotalWithMA * (extras.ProfitPercentage / 100.0)
	subtotalWithMargins := subtotalWithMA + profit
	gst := subtotalWithMargins * (extras.GSTPercentage / 100.0)

	return Summary{
		Lines: lines,
		Breakdown: Breakdown{
			ComponentTotal:      componentTotal,
			Labour:              extras.Labour,
			Polish:              extras.Polish,
			Hardware:            extras.Hardware,
			CNC:                 extras.CNC,
			Foam:                extras.Foam,
			Iron:                iron,
			CustomTotal:         customTotal,
			ExtrasTotal:         extrasTotal,
			Subtotal:            subtotal,
			MA:                  ma,
			SubtotalWithMA:      subtotalWithMA,
			Profit:              profit,
			SubtotalWithMargins: subtotalWithMargins,
			GST:                 gst,
		},
		Totals: Totals{GrandTotal: subtotalWithMargins + gst},
	}
}

// TotalCFT sums the priced volume of every line.
func (s Summary) TotalCFT() float64 {
	return lo.SumBy(s.Lines, func(l Line) float64 { return l.CFT })
}

// RoundVolume rounds a cubic-feet value for display.
func RoundVolume(v float64) float64 {
	return roundTo(v, 4)
}

// RoundMoney rounds a monetary value for display.
func RoundMoney(v float64) float64 {
	return roundTo(v, 2)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
