package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Simplici0/furnicost/internal/costing"
)

// PriceTier is a stored size/thickness rate override for a material.
type PriceTier struct {
	ID         string  `json:"id"`
	MaterialID string  `json:"material_id"`
	MinSize    float64 `json:"min_size"`
	MaxSize    float64 `json:"max_size"`
	Thickness  float64 `json:"thickness"`
	RatePerCFT float64 `json:"rate_per_cft"`
	CreatedAt  string  `json:"created_at"`
}

// TierInput holds writable tier fields. Sizes are feet, thickness is inches.
type TierInput struct {
	MinSize    float64 `json:"min_size" validate:"gt=0"`
	MaxSize    float64 `json:"max_size" validate:"gtefield=MinSize"`
	Thickness  float64 `json:"thickness" validate:"gt=0"`
	RatePerCFT float64 `json:"rate_per_cft" validate:"gt=0"`
}

// Costing converts t to the engine's tier type.
func (t PriceTier) Costing() costing.PriceTier {
	return costing.PriceTier{
		ID:         t.ID,
		MaterialID: t.MaterialID,
		MinSize:    t.MinSize,
		MaxSize:    t.MaxSize,
		Thickness:  t.Thickness,
		RatePerCFT: t.RatePerCFT,
	}
}

func (in TierInput) costing(materialID string) costing.PriceTier {
	return costing.PriceTier{
		MaterialID: materialID,
		MinSize:    in.MinSize,
		MaxSize:    in.MaxSize,
		Thickness:  in.Thickness,
		RatePerCFT: in.RatePerCFT,
	}
}

var tierColumns = []string{"id", "material_id", "min_size", "max_size", "thickness", "rate_per_cft", "created_at"}

// CreateTier adds a tier to a material after checking it does not overlap
// any existing tier of that material.
func (s *Store) CreateTier(ctx context.Context, materialID string, in TierInput) (PriceTier, error) {
	created, err := s.insertTiers(ctx, materialID, []TierInput{in})
	if err != nil {
		return PriceTier{}, err
	}
	return created[0], nil
}

func (s *Store) insertTiers(ctx context.Context, materialID string, inputs []TierInput) ([]PriceTier, error) {
	for i, in := range inputs {
		if err := s.check(in); err != nil {
			return nil, fmt.Errorf("tier %d: %w", i+1, err)
		}
	}

	created := make([]PriceTier, 0, len(inputs))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.getMaterial(ctx, tx, materialID); err != nil {
			return err
		}

		existing, err := s.listTiers(ctx, tx, sq.Eq{"material_id": materialID})
		if err != nil {
			return err
		}
		taken := lo.Map(existing, func(t PriceTier, _ int) costing.PriceTier { return t.Costing() })

		for i, in := range inputs {
			candidate := in.costing(materialID)
			if clash, found := lo.Find(taken, candidate.Overlaps); found {
				return fmt.Errorf("%w: tier %d (%g-%g ft, %g in) overlaps %g-%g ft, %g in",
					ErrTierOverlap, i+1, in.MinSize, in.MaxSize, in.Thickness, clash.MinSize, clash.MaxSize, clash.Thickness)
			}

			tier := PriceTier{
				ID:         uuid.NewString(),
				MaterialID: materialID,
				MinSize:    in.MinSize,
				MaxSize:    in.MaxSize,
				Thickness:  in.Thickness,
				RatePerCFT: in.RatePerCFT,
			}
			_, err := s.exec(ctx, tx, s.sb.
				Insert("material_price_tiers").
				Columns("id", "material_id", "min_size", "max_size", "thickness", "rate_per_cft").
				Values(tier.ID, tier.MaterialID, tier.MinSize, tier.MaxSize, tier.Thickness, tier.RatePerCFT))
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: tier %d already exists", ErrDuplicate, i+1)
				}
				return fmt.Errorf("insert price tier: %w", err)
			}

			candidate.ID = tier.ID
			taken = append(taken, candidate)
			created = append(created, tier)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ListTiers returns a material's tiers ordered by bracket.
func (s *Store) ListTiers(ctx context.Context, materialID string) ([]PriceTier, error) {
	return s.listTiers(ctx, s.db, sq.Eq{"material_id": materialID})
}

// ListAllTiers returns every tier of every material.
func (s *Store) ListAllTiers(ctx context.Context) ([]PriceTier, error) {
	return s.listTiers(ctx, s.db, nil)
}

func (s *Store) listTiers(ctx context.Context, q querier, where sq.Sqlizer) ([]PriceTier, error) {
	b := s.sb.Select(tierColumns...).From("material_price_tiers").OrderBy("material_id", "min_size", "thickness")
	if where != nil {
		b = b.Where(where)
	}

	rows, err := s.query(ctx, q, b)
	if err != nil {
		return nil, fmt.Errorf("query price tiers: %w", err)
	}
	defer rows.Close()

	tiers := make([]PriceTier, 0)
	for rows.Next() {
		var t PriceTier
		if err := rows.Scan(&t.ID, &t.MaterialID, &t.MinSize, &t.MaxSize, &t.Thickness, &t.RatePerCFT, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan price tier: %w", err)
		}
		tiers = append(tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price tiers: %w", err)
	}

	return tiers, nil
}

// DeleteTier removes one tier.
func (s *Store) DeleteTier(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, s.sb.Delete("material_price_tiers").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete price tier: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("delete price tier %s: %w", id, err)
	}
	return nil
}

// Catalog returns every material and tier as the engine's rate table.
// Inactive materials are included so existing components still resolve.
func (s *Store) Catalog(ctx context.Context) (costing.Catalog, error) {
	materials, err := s.ListMaterials(ctx, false)
	if err != nil {
		return costing.Catalog{}, err
	}
	tiers, err := s.ListAllTiers(ctx)
	if err != nil {
		return costing.Catalog{}, err
	}

	return costing.Catalog{
		Materials: lo.Map(materials, func(m Material, _ int) costing.Material { return m.Costing() }),
		Tiers:     lo.Map(tiers, func(t PriceTier, _ int) costing.PriceTier { return t.Costing() }),
	}, nil
}
