package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Simplici0/furnicost/internal/costing"
)

// Material is a stored timber type.
type Material struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	RatePerCFT  float64 `json:"rate_per_cft"`
	Description string  `json:"description"`
	Active      bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// MaterialInput holds writable material fields. A zero rate means the
// material is priced through its tiers only.
type MaterialInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	RatePerCFT  float64 `json:"rate_per_cft" validate:"gte=0"`
	Description string  `json:"description" validate:"max=500"`
	Active      bool    `json:"is_active"`
}

// Costing converts m to the engine's material type.
func (m Material) Costing() costing.Material {
	return costing.Material{ID: m.ID, Name: m.Name, RatePerCFT: m.RatePerCFT, Active: m.Active}
}

var materialColumns = []string{"id", "name", "rate_per_cft", "COALESCE(description, '')", "is_active", "created_at", "updated_at"}

func scanMaterial(row interface{ Scan(...any) error }) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Name, &m.RatePerCFT, &m.Description, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func normalizeMaterial(in MaterialInput) MaterialInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in
}

// CreateMaterial inserts a new material.
func (s *Store) CreateMaterial(ctx context.Context, in MaterialInput) (Material, error) {
	in = normalizeMaterial(in)
	if err := s.check(in); err != nil {
		return Material{}, err
	}

	id := uuid.NewString()
	_, err := s.exec(ctx, s.db, s.sb.
		Insert("materials").
		Columns("id", "name", "rate_per_cft", "description", "is_active").
		Values(id, in.Name, in.RatePerCFT, nullString(in.Description), in.Active))
	if err != nil {
		if isUniqueViolation(err) {
			return Material{}, fmt.Errorf("%w: material %q already exists", ErrDuplicate, in.Name)
		}
		return Material{}, fmt.Errorf("insert material: %w", err)
	}

	return s.GetMaterial(ctx, id)
}

// UpdateMaterial replaces the writable fields of a material.
func (s *Store) UpdateMaterial(ctx context.Context, id string, in MaterialInput) (Material, error) {
	in = normalizeMaterial(in)
	if err := s.check(in); err != nil {
		return Material{}, err
	}

	res, err := s.exec(ctx, s.db, s.sb.
		Update("materials").
		Set("name", in.Name).
		Set("rate_per_cft", in.RatePerCFT).
		Set("description", nullString(in.Description)).
		Set("is_active", in.Active).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		if isUniqueViolation(err) {
			return Material{}, fmt.Errorf("%w: material %q already exists", ErrDuplicate, in.Name)
		}
		return Material{}, fmt.Errorf("update material: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return Material{}, fmt.Errorf("update material %s: %w", id, err)
	}

	return s.GetMaterial(ctx, id)
}

// GetMaterial loads one material by id.
func (s *Store) GetMaterial(ctx context.Context, id string) (Material, error) {
	return s.getMaterial(ctx, s.db, id)
}

func (s *Store) getMaterial(ctx context.Context, q querier, id string) (Material, error) {
	row, err := s.queryRow(ctx, q, s.sb.Select(materialColumns...).From("materials").Where(sq.Eq{"id": id}))
	if err != nil {
		return Material{}, err
	}

	m, err := scanMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Material{}, fmt.Errorf("material %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Material{}, fmt.Errorf("query material: %w", err)
	}
	return m, nil
}

// ListMaterials returns materials ordered by name.
func (s *Store) ListMaterials(ctx context.Context, activeOnly bool) ([]Material, error) {
	q := s.sb.Select(materialColumns...).From("materials").OrderBy("name ASC")
	if activeOnly {
		q = q.Where(sq.Eq{"is_active": true})
	}

	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}

	return materials, nil
}

// DeleteMaterial removes a material and its tiers. Components that used it
// keep their stored rate and lose the material reference.
func (s *Store) DeleteMaterial(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, s.sb.Delete("materials").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("delete material %s: %w", id, err)
	}
	return nil
}
