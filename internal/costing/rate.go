package costing

import (
	"math"

	"github.com/samber/lo"
)

// ThicknessTolerance is the allowed distance, in inches, between a
// component's thickness and a tier's thickness.
const ThicknessTolerance = 0.5

// Matches reports whether the tier covers a face size (feet) and thickness (inches).
// Both bracket ends are inclusive.
func (t PriceTier) Matches(faceFeet, thickness float64) bool {
	return faceFeet >= t.MinSize && faceFeet <= t.MaxSize &&
		math.Abs(thickness-t.Thickness) < ThicknessTolerance
}

// Overlaps reports whether some face size and thickness would match both
// tiers. Tiers of different materials never overlap.
func (t PriceTier) Overlaps(o PriceTier) bool {
	if t.MaterialID != o.MaterialID {
		return false
	}
	return t.MinSize <= o.MaxSize && o.MinSize <= t.MaxSize &&
		math.Abs(t.Thickness-o.Thickness) < 2*ThicknessTolerance
}

// Material looks up a material by id.
func (c Catalog) Material(id string) (Material, bool) {
	return lo.Find(c.Materials, func(m Material) bool { return m.ID == id })
}

// TiersFor returns the tiers that belong to a material, in catalog order.
func (c Catalog) TiersFor(materialID string) []PriceTier {
	return lo.Filter(c.Tiers, func(t PriceTier, _ int) bool { return t.MaterialID == materialID })
}

// ResolveRate returns the rate per cubic foot for a material at the given
// actual dimensions. An unknown material resolves to 0; missing dimensions
// or no matching tier resolve to the material's default rate.
func ResolveRate(catalog Catalog, materialID string, actual Actual) float64 {
	material, ok := catalog.Material(materialID)
	if !ok {
		return 0
	}
	if actual.Length == 0 || actual.Width == 0 || actual.Height == 0 {
		return material.RatePerCFT
	}

	faceFeet := math.Max(actual.Length, actual.Width) / inchesPerFoot
	tier, ok := lo.Find(catalog.TiersFor(materialID), func(t PriceTier) bool {
		return t.Matches(faceFeet, actual.Height)
	})
	if !ok {
		return material.RatePerCFT
	}
	return tier.RatePerCFT
}

// ResolveComponentRate resolves the rate for c from its own material and
// actual dimensions under r.
func (r Rules) ResolveComponentRate(catalog Catalog, c Component) float64 {
	return ResolveRate(catalog, c.MaterialID, r.Actual(c))
}
