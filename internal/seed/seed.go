package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Simplici0/furnicost/internal/costing"
)

type tier struct {
	minSize, maxSize, thickness, rate float64
}

type material struct {
	name        string
	rate        float64
	description string
	tiers       []tier
}

var defaultMaterials = []material{
	{
		name:        "Sheesham",
		rate:        1800,
		description: "Indian rosewood, kiln dried",
		tiers: []tier{
			{minSize: 2, maxSize: 4, thickness: 1, rate: 2000},
			{minSize: 4.5, maxSize: 8, thickness: 2, rate: 2400},
		},
	},
	{
		name:        "Teak",
		rate:        3200,
		description: "Burma teak",
		tiers: []tier{
			{minSize: 2, maxSize: 6, thickness: 1.5, rate: 3600},
		},
	},
	{
		name:        "Plywood",
		rate:        1400,
		description: "BWR grade, priced per CFT",
	},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts the sample materials and their price tiers. Records that
// already exist are left untouched, so running it repeatedly is safe.
func Run(ctx context.Context, db *sql.DB) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, m := range defaultMaterials {
		id, err := ensureMaterial(ctx, tx, m, &stats)
		if err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
		for _, t := range m.tiers {
			if err := ensureTier(ctx, tx, id, t, &stats); err != nil {
				_ = tx.Rollback()
				return Stats{}, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureMaterial(ctx context.Context, tx *sql.Tx, m material, stats *Stats) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM materials WHERE name = ?`, m.name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("check material %s existence: %w", m.name, err)
	}

	id = uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO materials (id, name, rate_per_cft, description, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, id, m.name, m.rate, m.description, true); err != nil {
		return "", fmt.Errorf("insert material %s: %w", m.name, err)
	}
	stats.Inserts++
	return id, nil
}

// ensureTier inserts t unless the material already has a tier that
// overlaps it, so a tier edited by a user is never shadowed by the sample.
func ensureTier(ctx context.Context, tx *sql.Tx, materialID string, t tier, stats *Stats) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT min_size, max_size, thickness
		FROM material_price_tiers
		WHERE material_id = ?
	`, materialID)
	if err != nil {
		return fmt.Errorf("load price tiers: %w", err)
	}
	defer rows.Close()

	candidate := costing.PriceTier{MaterialID: materialID, MinSize: t.minSize, MaxSize: t.maxSize, Thickness: t.thickness}
	for rows.Next() {
		existing := costing.PriceTier{MaterialID: materialID}
		if err := rows.Scan(&existing.MinSize, &existing.MaxSize, &existing.Thickness); err != nil {
			return fmt.Errorf("scan price tier: %w", err)
		}
		if candidate.Overlaps(existing) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate price tiers: %w", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO material_price_tiers (id, material_id, min_size, max_size, thickness, rate_per_cft)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), materialID, t.minSize, t.maxSize, t.thickness, t.rate); err != nil {
		return fmt.Errorf("insert price tier: %w", err)
	}
	stats.Inserts++
	return nil
}
