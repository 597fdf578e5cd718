// Package estimate ties the record store to the costing engine: it resolves
// component rates when cut lists are saved and builds cost summaries for
// saved products and unsaved previews.
package estimate

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/furnicost/internal/costing"
	"github.com/Simplici0/furnicost/internal/logger"
	"github.com/Simplici0/furnicost/internal/store"
)

// Estimate kinds reported to the Recorder.
const (
	KindSummary = "summary"
	KindPreview = "preview"
)

// Repository is the subset of the record store the service reads and writes.
type Repository interface {
	GetProduct(ctx context.Context, id string) (store.Product, error)
	ListComponents(ctx context.Context, productID string) ([]store.Component, error)
	ReplaceComponents(ctx context.Context, productID string, components []store.Component) ([]store.Component, error)
	GetExtras(ctx context.Context, productID string) (store.Extras, error)
	ListCustomCosts(ctx context.Context, productID string) ([]store.CustomCost, error)
	Catalog(ctx context.Context) (costing.Catalog, error)
}

// Recorder receives one observation per computed estimate.
type Recorder interface {
	ObserveEstimate(kind string, grandTotal float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEstimate(string, float64) {}

// Service computes estimates under one set of costing rules.
type Service struct {
	repo    Repository
	rules   costing.Rules
	log     *zap.Logger
	metrics Recorder
}

// NewService builds a Service. A nil logger or recorder disables that output.
func NewService(repo Repository, rules costing.Rules, log *zap.Logger, metrics Recorder) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Service{repo: repo, rules: rules, log: log, metrics: metrics}
}

// Rules returns the costing rules the service applies.
func (s *Service) Rules() costing.Rules {
	return s.rules
}

// ComponentInput is a component as submitted by a client. A nil Rate asks
// the service to resolve one from the material's rate table.
type ComponentInput struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Length       *float64 `json:"length"`
	Width        *float64 `json:"width"`
	Height       *float64 `json:"height"`
	Pieces       int      `json:"pieces"`
	CFT          *float64 `json:"cft"`
	Rate         *float64 `json:"rate"`
	MaterialID   string   `json:"material_id"`
	ActualLength *float64 `json:"actual_length"`
	ActualWidth  *float64 `json:"actual_width"`
	ActualHeight *float64 `json:"actual_height"`

	// Read-only fields, accepted so a listed cut list can be sent back as is.
	ProductID string `json:"product_id,omitempty"`
	SortOrder int    `json:"sort_order,omitempty"`
}

func (in ComponentInput) component() store.Component {
	c := store.Component{
		ID:           in.ID,
		Description:  in.Description,
		Length:       in.Length,
		Width:        in.Width,
		Height:       in.Height,
		Pieces:       in.Pieces,
		CFT:          in.CFT,
		MaterialID:   in.MaterialID,
		ActualLength: in.ActualLength,
		ActualWidth:  in.ActualWidth,
		ActualHeight: in.ActualHeight,
	}
	if c.Pieces == 0 {
		c.Pieces = 1
	}
	return c
}

// SaveComponents replaces a product's cut list. A rate supplied for a new
// component, or one that differs from the stored rate, is kept as a manual
// rate. Otherwise a component whose material and dimensions match its
// stored row keeps the stored rate, and a new or changed one gets a freshly
// resolved rate. Sending a listed cut list back with edited dimensions
// therefore re-prices the edited rows.
func (s *Service) SaveComponents(ctx context.Context, productID string, inputs []ComponentInput) ([]store.Component, error) {
	var (
		existing []store.Component
		catalog  costing.Catalog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, err = s.repo.ListComponents(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.repo.Catalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load components for %s: %w", productID, err)
	}

	stored := lo.KeyBy(existing, func(c store.Component) string { return c.ID })
	components := make([]store.Component, len(inputs))
	resolved := 0
	for i, in := range inputs {
		c := in.component()
		prev, found := stored[in.ID]
		changed := !found || rateInputsChanged(prev, c)
		switch {
		case in.Rate != nil && (!found || *in.Rate != prev.Rate):
			c.Rate = *in.Rate
		case !changed:
			c.Rate = prev.Rate
		default:
			c.Rate = s.rules.ResolveComponentRate(catalog, c.Costing())
			resolved++
		}
		components[i] = c
	}

	saved, err := s.repo.ReplaceComponents(ctx, productID, components)
	if err != nil {
		return nil, err
	}

	s.log.Debug("components saved",
		logger.String("product_id", productID),
		logger.Int("components", len(saved)),
		logger.Int("rates_resolved", resolved),
	)
	return saved, nil
}

func rateInputsChanged(prev, next store.Component) bool {
	return prev.MaterialID != next.MaterialID ||
		!sameValue(prev.Length, next.Length) ||
		!sameValue(prev.Width, next.Width) ||
		!sameValue(prev.Height, next.Height) ||
		!sameValue(prev.ActualLength, next.ActualLength) ||
		!sameValue(prev.ActualWidth, next.ActualWidth) ||
		!sameValue(prev.ActualHeight, next.ActualHeight)
}

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Estimate is a computed cost summary with the records it was built from.
// Product is nil for previews.
type Estimate struct {
	Product     *store.Product
	Components  []store.Component
	Extras      store.Extras
	CustomCosts []store.CustomCost
	// MaterialNames maps material id to name for display.
	MaterialNames map[string]string
	Summary       costing.Summary
}

// Summary loads a product with its cost inputs and computes its estimate.
func (s *Service) Summary(ctx context.Context, productID string) (Estimate, error) {
	var (
		product    store.Product
		components []store.Component
		extras     store.Extras
		custom     []store.CustomCost
		catalog    costing.Catalog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		product, err = s.repo.GetProduct(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		components, err = s.repo.ListComponents(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		extras, err = s.repo.GetExtras(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		custom, err = s.repo.ListCustomCosts(gctx, productID)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.repo.Catalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Estimate{}, fmt.Errorf("load estimate inputs for %s: %w", productID, err)
	}

	summary := s.rules.Aggregate(
		lo.Map(components, func(c store.Component, _ int) costing.Component { return c.Costing() }),
		extras.Costing(),
		lo.Map(custom, func(c store.CustomCost, _ int) costing.CustomCost { return c.Costing() }),
	)
	s.metrics.ObserveEstimate(KindSummary, summary.Totals.GrandTotal)
	s.log.Debug("estimate computed",
		logger.String("product_id", productID),
		logger.Int("components", len(components)),
		logger.Float64("grand_total", summary.Totals.GrandTotal),
	)

	return Estimate{
		Product:       &product,
		Components:    components,
		Extras:        extras,
		CustomCosts:   custom,
		MaterialNames: materialNames(catalog),
		Summary:       summary,
	}, nil
}

// PreviewInput is an unsaved product's cost inputs. Nil Extras means the
// default margins with no add-on costs.
type PreviewInput struct {
	Components  []ComponentInput        `json:"components"`
	Extras      *store.Extras           `json:"extras"`
	CustomCosts []store.CustomCostInput `json:"custom_costs"`
}

// Preview computes an estimate without touching stored products. Components
// without a rate get one resolved from the current rate table.
func (s *Service) Preview(ctx context.Context, in PreviewInput) (Estimate, error) {
	extras := store.DefaultExtras("")
	if in.Extras != nil {
		extras = *in.Extras
		extras.ProductID = ""
	}
	if err := store.Validate(extras); err != nil {
		return Estimate{}, fmt.Errorf("extras: %w", err)
	}

	custom := make([]store.CustomCost, len(in.CustomCosts))
	for i, cc := range in.CustomCosts {
		if err := store.Validate(cc); err != nil {
			return Estimate{}, fmt.Errorf("custom cost %d: %w", i+1, err)
		}
		custom[i] = store.CustomCost{Label: cc.Label, Amount: cc.Amount, SortOrder: i}
	}

	catalog, err := s.repo.Catalog(ctx)
	if err != nil {
		return Estimate{}, fmt.Errorf("load catalog: %w", err)
	}

	components := make([]store.Component, len(in.Components))
	for i, input := range in.Components {
		c := input.component()
		c.SortOrder = i
		if input.Rate != nil {
			c.Rate = *input.Rate
		} else {
			c.Rate = s.rules.ResolveComponentRate(catalog, c.Costing())
		}
		if err := store.Validate(c); err != nil {
			return Estimate{}, fmt.Errorf("component %d: %w", i+1, err)
		}
		components[i] = c
	}

	summary := s.rules.Aggregate(
		lo.Map(components, func(c store.Component, _ int) costing.Component { return c.Costing() }),
		extras.Costing(),
		lo.Map(custom, func(c store.CustomCost, _ int) costing.CustomCost { return c.Costing() }),
	)
	s.metrics.ObserveEstimate(KindPreview, summary.Totals.GrandTotal)

	return Estimate{
		Components:    components,
		Extras:        extras,
		CustomCosts:   custom,
		MaterialNames: materialNames(catalog),
		Summary:       summary,
	}, nil
}

func materialNames(catalog costing.Catalog) map[string]string {
	return lo.SliceToMap(catalog.Materials, func(m costing.Material) (string, string) { return m.ID, m.Name })
}
