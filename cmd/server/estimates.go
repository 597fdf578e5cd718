package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/furnicost/internal/costing"
	"github.com/Simplici0/furnicost/internal/estimate"
	"github.com/Simplici0/furnicost/internal/store"
)

type lineView struct {
	ComponentID  string  `json:"component_id,omitempty"`
	Description  string  `json:"description"`
	MaterialID   string  `json:"material_id,omitempty"`
	MaterialName string  `json:"material_name,omitempty"`
	ActualLength float64 `json:"actual_length"`
	ActualWidth  float64 `json:"actual_width"`
	ActualHeight float64 `json:"actual_height"`
	Pieces       int     `json:"pieces"`
	Feet         float64 `json:"feet"`
	CFT          float64 `json:"cft"`
	Rate         float64 `json:"rate"`
	Cost         float64 `json:"cost"`
	ManualCFT    bool    `json:"manual_cft"`
}

type breakdownView struct {
	ComponentTotal      float64 `json:"component_total"`
	Labour              float64 `json:"labour"`
	Polish              float64 `json:"polish"`
	Hardware            float64 `json:"hardware"`
	CNC                 float64 `json:"cnc"`
	Foam                float64 `json:"foam"`
	Iron                float64 `json:"iron"`
	CustomTotal         float64 `json:"custom_total"`
	ExtrasTotal         float64 `json:"extras_total"`
	Subtotal            float64 `json:"subtotal"`
	MA                  float64 `json:"ma"`
	SubtotalWithMA      float64 `json:"subtotal_with_ma"`
	Profit              float64 `json:"profit"`
	SubtotalWithMargins float64 `json:"subtotal_with_margins"`
	GST                 float64 `json:"gst"`
}

type estimateView struct {
	Product       *store.Product     `json:"product,omitempty"`
	WastagePolicy string             `json:"wastage_policy"`
	Lines         []lineView         `json:"lines"`
	CustomCosts   []store.CustomCost `json:"custom_costs"`
	Extras        store.Extras       `json:"extras"`
	TotalCFT      float64            `json:"total_cft"`
	Breakdown     breakdownView      `json:"breakdown"`
	GrandTotal    float64            `json:"grand_total"`
}

// newEstimateView rounds an estimate for display. Rounding happens only
// here, after every total has been computed at full precision.
func newEstimateView(est estimate.Estimate, rules costing.Rules) estimateView {
	lines := make([]lineView, len(est.Summary.Lines))
	for i, l := range est.Summary.Lines {
		v := lineView{
			ComponentID:  l.ComponentID,
			Description:  l.Description,
			ActualLength: costing.RoundVolume(l.Actual.Length),
			ActualWidth:  costing.RoundVolume(l.Actual.Width),
			ActualHeight: costing.RoundVolume(l.Actual.Height),
			Pieces:       l.Pieces,
			Feet:         costing.RoundVolume(l.Feet),
			CFT:          costing.RoundVolume(l.CFT),
			Rate:         costing.RoundMoney(l.Rate),
			Cost:         costing.RoundMoney(l.Cost),
			ManualCFT:    l.Manual,
		}
		if i < len(est.Components) {
			v.MaterialID = est.Components[i].MaterialID
			v.MaterialName = est.MaterialNames[v.MaterialID]
		}
		lines[i] = v
	}

	b := est.Summary.Breakdown
	return estimateView{
		Product:       est.Product,
		WastagePolicy: rules.Wastage.String(),
		Lines:         lines,
		CustomCosts:   est.CustomCosts,
		Extras:        est.Extras,
		TotalCFT:      costing.RoundVolume(est.Summary.TotalCFT()),
		Breakdown: breakdownView{
			ComponentTotal:      costing.RoundMoney(b.ComponentTotal),
			Labour:              costing.RoundMoney(b.Labour),
			Polish:              costing.RoundMoney(b.Polish),
			Hardware:            costing.RoundMoney(b.Hardware),
			CNC:                 costing.RoundMoney(b.CNC),
			Foam:                costing.RoundMoney(b.Foam),
			Iron:                costing.RoundMoney(b.Iron),
			CustomTotal:         costing.RoundMoney(b.CustomTotal),
			ExtrasTotal:         costing.RoundMoney(b.ExtrasTotal),
			Subtotal:            costing.RoundMoney(b.Subtotal),
			MA:                  costing.RoundMoney(b.MA),
			SubtotalWithMA:      costing.RoundMoney(b.SubtotalWithMA),
			Profit:              costing.RoundMoney(b.Profit),
			SubtotalWithMargins: costing.RoundMoney(b.SubtotalWithMargins),
			GST:                 costing.RoundMoney(b.GST),
		},
		GrandTotal: costing.RoundMoney(est.Summary.Totals.GrandTotal),
	}
}

func (s *server) handleSummary(w http.ResponseWriter, r *http.Request) {
	est, err := s.estimates.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEstimateView(est, s.estimates.Rules()))
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var in estimate.PreviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	est, err := s.estimates.Preview(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newEstimateView(est, s.estimates.Rules()))
}
