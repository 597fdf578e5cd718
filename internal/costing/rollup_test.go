package costing

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
)

func TestCFT_FlatPolicy(t *testing.T) {
	c := Component{Nominal: dims(24, 18, 1), Pieces: 1}

	nearlyEqual(t, "feet", DefaultRules.Feet(c), 4.5)
	nearlyEqual(t, "cft", DefaultRules.CFT(c), 0.375)
}

func TestCFT_StockPolicy(t *testing.T) {
	c := Component{Nominal: dims(24, 18, 1), Pieces: 1}
	rules := Rules{Wastage: WastageStock}

	// 30" x 24" (width skipped from 18" to 24", no extra wastage) = 5 sq ft.
	nearlyEqual(t, "feet", rules.Feet(c), 5)
	nearlyEqual(t, "cft", rules.CFT(c), 5.0/12.0)
}

func TestCFT_PiecesMultiply(t *testing.T) {
	c := Component{Nominal: dims(24, 18, 1), Pieces: 4}

	nearlyEqual(t, "feet", DefaultRules.Feet(c), 18)
	nearlyEqual(t, "cft", DefaultRules.CFT(c), 1.5)
}

func TestCFT_MissingDimensionIsZero(t *testing.T) {
	c := Component{Description: "leg", Nominal: Dimensions{Length: ptr(30)}, Pieces: 4, Rate: 900}

	nearlyEqual(t, "feet", DefaultRules.Feet(c), 0)
	nearlyEqual(t, "cft", DefaultRules.CFT(c), 0)
	nearlyEqual(t, "cost", DefaultRules.Cost(c), 0)
}

func TestCost_ManualCFTOverride(t *testing.T) {
	c := Component{Nominal: dims(24, 18, 1), Pieces: 2, CFTOverride: ptr(2.5), Rate: 1000}

	nearlyEqual(t, "cft", DefaultRules.CFT(c), 2.5)
	nearlyEqual(t, "cost", DefaultRules.Cost(c), 2500)

	c.Nominal = dims(96, 36, 2)
	nearlyEqual(t, "cft after dimension edit", DefaultRules.CFT(c), 2.5)

	c.CFTOverride = nil
	nearlyEqual(t, "cft after clearing override", DefaultRules.CFT(c), 102.0*43.2/144.0*2.0/12.0*2.0)
}

func TestAggregate_CompoundingOrder(t *testing.T) {
	components := []Component{{CFTOverride: ptr(1), Rate: 1000}}
	extras := Extras{MAPercentage: 20, ProfitPercentage: 20, GSTPercentage: 18}

	s := DefaultRules.Aggregate(components, extras, nil)

	nearlyEqual(t, "componentTotal", s.Breakdown.ComponentTotal, 1000)
	nearlyEqual(t, "extrasTotal", s.Breakdown.ExtrasTotal, 0)
	nearlyEqual(t, "ma", s.Breakdown.MA, 200)
	nearlyEqual(t, "subtotalWithMA", s.Breakdown.SubtotalWithMA, 1200)
	nearlyEqual(t, "profit", s.Breakdown.Profit, 240)
	nearlyEqual(t, "subtotalWithMargins", s.Breakdown.SubtotalWithMargins, 1440)
	nearlyEqual(t, "gst", s.Breakdown.GST, 259.2)
	nearlyEqual(t, "grandTotal", s.Totals.GrandTotal, 1699.2)
}

func TestAggregate_ExtrasAndCustomCosts(t *testing.T) {
	extras := Extras{Labour: 100, Polish: 50, Hardware: 25, CNC: 10, Foam: 15, IronWeight: 2, IronRate: 60}
	custom := []CustomCost{{Label: "Packing", Amount: 30}, {Label: "Transport", Amount: 20}}

	s := DefaultRules.Aggregate(nil, extras, custom)

	nearlyEqual(t, "iron", s.Breakdown.Iron, 120)
	nearlyEqual(t, "customTotal", s.Breakdown.CustomTotal, 50)
	nearlyEqual(t, "extrasTotal", s.Breakdown.ExtrasTotal, 370)
	nearlyEqual(t, "subtotal", s.Breakdown.Subtotal, 370)
	nearlyEqual(t, "grandTotal", s.Totals.GrandTotal, 370)
}

func TestAggregate_ZeroInputsIgnorePercentages(t *testing.T) {
	s := DefaultRules.Aggregate(nil, Extras{MAPercentage: 25, ProfitPercentage: 30, GSTPercentage: 18}, nil)

	nearlyEqual(t, "grandTotal", s.Totals.GrandTotal, 0)
	if len(s.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(s.Lines))
	}
}

func TestAggregate_LinesKeepUnroundedValues(t *testing.T) {
	components := []Component{
		{ID: "a", Description: "Top", Nominal: dims(24, 18, 1), Pieces: 1, Rate: 1000},
		{ID: "b", Description: "Leg", Nominal: dims(15, 2, 2), Pieces: 4, Rate: 1000},
	}

	s := DefaultRules.Aggregate(components, Extras{}, nil)

	require.Len(t, s.Lines, 2)
	require.Equal(t, "Top", s.Lines[0].Description)
	nearlyEqual(t, "line a cost", s.Lines[0].Cost, 375)
	// Leg: 18" x 2.4" x 2" x 4 pieces.
	nearlyEqual(t, "line b cft", s.Lines[1].CFT, 18*2.4/144*2/12*4)
	nearlyEqual(t, "total cft", s.TotalCFT(), 0.375+18*2.4/144*2/12*4)
	nearlyEqual(t, "componentTotal", s.Breakdown.ComponentTotal, (0.375+18*2.4/144*2/12*4)*1000)
}

func TestAggregate_IsIdempotent(t *testing.T) {
	faker := gofakeit.New(42)

	for i := 0; i < 50; i++ {
		components := make([]Component, faker.IntRange(0, 8))
		for j := range components {
			components[j] = Component{
				ID:          faker.UUID(),
				Description: faker.Word(),
				Nominal:     dims(faker.Float64Range(1, 96), faker.Float64Range(1, 48), faker.Float64Range(0.5, 3)),
				Pieces:      faker.IntRange(1, 6),
				Rate:        faker.Float64Range(0, 4000),
			}
			if faker.Bool() {
				components[j].CFTOverride = ptr(faker.Float64Range(0, 5))
			}
		}
		extras := Extras{
			Labour:           faker.Float64Range(0, 5000),
			Polish:           faker.Float64Range(0, 2000),
			IronWeight:       faker.Float64Range(0, 10),
			IronRate:         faker.Float64Range(0, 120),
			MAPercentage:     faker.Float64Range(0, 40),
			ProfitPercentage: faker.Float64Range(0, 40),
			GSTPercentage:    faker.Float64Range(0, 28),
		}
		custom := []CustomCost{{Label: faker.Word(), Amount: faker.Float64Range(0, 500)}}

		first := DefaultRules.Aggregate(components, extras, custom)
		second := DefaultRules.Aggregate(components, extras, custom)
		require.Equal(t, first, second, "iteration %d", i)
	}
}

func TestRoundForDisplay(t *testing.T) {
	nearlyEqual(t, "volume", RoundVolume(0.123456), 0.1235)
	nearlyEqual(t, "money", RoundMoney(1699.199999), 1699.2)
}
