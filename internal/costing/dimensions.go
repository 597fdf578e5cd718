package costing

import "math"

const (
	inchesPerFoot = 12.0
	// stockStep is the half-foot increment timber is sold in, in inches.
	stockStep = 6.0
	// minUsableOffcut is the largest gap, in inches, treated as unusable.
	minUsableOffcut = 2.0
)

// StockSize is the result of rounding a length to a stock increment.
type StockSize struct {
	Size    float64
	Skipped bool
}

// RoundToStockIncrement rounds inches up to the next half-foot. When the gap
// to that size is at most 2" (including an exact boundary) the next increment
// is used instead and Skipped is set.
func RoundToStockIncrement(inches float64) StockSize {
	feet := inches / inchesPerFoot
	next := math.Ceil(feet*2) / 2 * inchesPerFoot

	diff := next - inches
	if diff >= 0 && diff <= minUsableOffcut {
		return StockSize{Size: next + stockStep, Skipped: true}
	}
	return StockSize{Size: next}
}

// ApplyWastage converts a nominal width to a purchase width under the
// policy in r.
func (r Rules) ApplyWastage(inches float64) float64 {
	if r.Wastage == WastageStock {
		stock := RoundToStockIncrement(inches)
		if stock.Skipped {
			return stock.Size
		}
		return stock.Size * wastageFactor
	}
	return inches * wastageFactor
}

// Normalize converts nominal dimensions into actual purchase dimensions.
// Any missing nominal dimension yields all zeros. Height is never rounded.
func (r Rules) Normalize(nominal, overrides Dimensions) Actual {
	length, width, height := value(nominal.Length), value(nominal.Width), value(nominal.Height)
	if length == 0 || width == 0 || height == 0 {
		return Actual{}
	}

	return Actual{
		Length: pick(overrides.Length, RoundToStockIncrement(length).Size),
		Width:  pick(overrides.Width, r.ApplyWastage(width)),
		Height: pick(overrides.Height, height),
	}
}

// Actual returns the resolved purchase dimensions of c.
func (r Rules) Actual(c Component) Actual {
	return r.Normalize(c.Nominal, c.ActualOverride)
}
