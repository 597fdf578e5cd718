package costing

const squareInchesPerSquareFoot = 144.0

// Feet returns the face area of c in square feet times its piece count.
// It is reported alongside CFT and never priced.
func (r Rules) Feet(c Component) float64 {
	a := r.Actual(c)
	return a.Length * a.Width / squareInchesPerSquareFoot * float64(c.Pieces)
}

// CFT returns the priced volume of c in cubic feet. A manual override wins
// over the dimension math.
func (r Rules) CFT(c Component) float64 {
	if c.CFTOverride != nil {
		return *c.CFTOverride
	}
	a := r.Actual(c)
	squareFeet := a.Length * a.Width / squareInchesPerSquareFoot
	return squareFeet * a.Height / inchesPerFoot * float64(c.Pieces)
}

// Cost returns CFT(c) priced at the component's rate.
func (r Rules) Cost(c Component) float64 {
	return r.CFT(c) * c.Rate
}

// Line is the derived, unrounded view of one component.
type Line struct {
	ComponentID string
	Description string
	Actual      Actual
	Pieces      int
	Feet        float64
	CFT         float64
	Rate        float64
	Cost        float64
	// Manual is set when CFT came from the override.
	Manual bool
}

// Line computes every derived value of c in one pass.
func (r Rules) Line(c Component) Line {
	return Line{
		ComponentID: c.ID,
		Description: c.Description,
		Actual:      r.Actual(c),
		Pieces:      c.Pieces,
		Feet:        r.Feet(c),
		CFT:         r.CFT(c),
		Rate:        c.Rate,
		Cost:        r.Cost(c),
		Manual:      c.CFTOverride != nil,
	}
}
