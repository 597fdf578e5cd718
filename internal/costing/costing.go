// Package costing turns timber component dimensions, a material rate table and
// overhead percentages into a furniture cost breakdown.
//
// Everything in this package is a pure function of its arguments. Callers pass
// materials, tiers and extras explicitly on every call; nothing is cached.
package costing

import (
	"fmt"
	"strings"
)

// WastagePolicy selects how nominal width is inflated to a purchase width.
type WastagePolicy int

const (
	// WastageFlat adds 20% to the nominal width with no stock rounding.
	WastageFlat WastagePolicy = iota
	// WastageStock rounds width to a stock increment and adds 20% only when
	// the rounding did not already skip an increment.
	WastageStock
)

// wastageFactor is the multiplier applied to width for cutting loss.
const wastageFactor = 1.2

func (p WastagePolicy) String() string {
	switch p {
	case WastageStock:
		return "stock"
	default:
		return "flat"
	}
}

// ParseWastagePolicy parses the configuration value for a wastage policy.
// An empty value selects WastageFlat.
func ParseWastagePolicy(raw string) (WastagePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "flat":
		return WastageFlat, nil
	case "stock":
		return WastageStock, nil
	default:
		return WastageFlat, fmt.Errorf("unknown wastage policy %q (want flat or stock)", raw)
	}
}

// Rules carries the process-wide costing choices. It is an immutable value;
// the zero value uses the flat wastage policy.
type Rules struct {
	Wastage WastagePolicy
}

// DefaultRules are the canonical costing rules.
var DefaultRules = Rules{Wastage: WastageFlat}

// Dimensions are lengths in inches. A nil or zero value means "not entered".
type Dimensions struct {
	Length *float64
	Width  *float64
	Height *float64
}

// Actual holds purchase dimensions in inches after stock rounding and wastage.
type Actual struct {
	Length float64
	Width  float64
	Height float64
}

// Component is one line item of a product's cut list.
type Component struct {
	ID          string
	Description string
	Nominal     Dimensions
	Pieces      int
	// CFTOverride, when set, is used for pricing instead of the dimension math.
	CFTOverride *float64
	// ActualOverride replaces individual computed actual dimensions.
	ActualOverride Dimensions
	MaterialID     string
	Rate           float64
}

// Material is a timber type with an optional default rate per cubic foot.
type Material struct {
	ID         string
	Name       string
	RatePerCFT float64
	Active     bool
}

// PriceTier overrides a material's default rate for a size bracket (feet)
// and thickness (inches).
type PriceTier struct {
	ID         string
	MaterialID string
	MinSize    float64
	MaxSize    float64
	Thickness  float64
	RatePerCFT float64
}

// Catalog is the material rate table the resolver reads.
type Catalog struct {
	Materials []Material
	Tiers     []PriceTier
}

// Extras are the flat and percentage inputs of the roll-up.
type Extras struct {
	Labour           float64
	Polish           float64
	Hardware         float64
	CNC              float64
	Foam             float64
	IronWeight       float64
	IronRate         float64
	MAPercentage     float64
	ProfitPercentage float64
	GSTPercentage    float64
}

// CustomCost is a labelled flat cost added to the extras total.
type CustomCost struct {
	ID     string
	Label  string
	Amount float64
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func pick(override *float64, computed float64) float64 {
	if override != nil {
		return *override
	}
	return computed
}
