package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Simplici0/furnicost/internal/costing"
)

// CustomCost is a free-form labelled amount added to a product.
type CustomCost struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	SortOrder int     `json:"sort_order"`
}

// CustomCostInput holds writable custom cost fields.
type CustomCostInput struct {
	Label  string  `json:"label" validate:"required,max=120"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// Costing converts c to the engine's custom cost type.
func (c CustomCost) Costing() costing.CustomCost {
	return costing.CustomCost{ID: c.ID, Label: c.Label, Amount: c.Amount}
}

// ListCustomCosts returns a product's custom costs in display order.
func (s *Store) ListCustomCosts(ctx context.Context, productID string) ([]CustomCost, error) {
	rows, err := s.query(ctx, s.db, s.sb.
		Select("id", "product_id", "label", "amount", "sort_order").
		From("product_custom_costs").
		Where(sq.Eq{"product_id": productID}).
		OrderBy("sort_order", "created_at"))
	if err != nil {
		return nil, fmt.Errorf("query custom costs: %w", err)
	}
	defer rows.Close()

	costs := make([]CustomCost, 0)
	for rows.Next() {
		var c CustomCost
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Label, &c.Amount, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan custom cost: %w", err)
		}
		costs = append(costs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom costs: %w", err)
	}

	return costs, nil
}

// AddCustomCost appends a custom cost to the end of a product's list.
func (s *Store) AddCustomCost(ctx context.Context, productID string, in CustomCostInput) (CustomCost, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := s.check(in); err != nil {
		return CustomCost{}, err
	}

	c := CustomCost{ID: uuid.NewString(), ProductID: productID, Label: in.Label, Amount: in.Amount}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.touchProduct(ctx, tx, productID); err != nil {
			return err
		}

		row, err := s.queryRow(ctx, tx, s.sb.
			Select("COUNT(*)").
			From("product_custom_costs").
			Where(sq.Eq{"product_id": productID}))
		if err != nil {
			return err
		}
		if err := row.Scan(&c.SortOrder); err != nil {
			return fmt.Errorf("count custom costs: %w", err)
		}

		_, err = s.exec(ctx, tx, s.sb.
			Insert("product_custom_costs").
			Columns("id", "product_id", "label", "amount", "sort_order").
			Values(c.ID, c.ProductID, c.Label, c.Amount, c.SortOrder))
		if err != nil {
			return fmt.Errorf("insert custom cost: %w", err)
		}
		return nil
	})
	if err != nil {
		return CustomCost{}, err
	}

	return c, nil
}

// UpdateCustomCost changes the label and amount of a custom cost.
func (s *Store) UpdateCustomCost(ctx context.Context, id string, in CustomCostInput) (CustomCost, error) {
	in.Label = strings.TrimSpace(in.Label)
	if err := s.check(in); err != nil {
		return CustomCost{}, err
	}

	res, err := s.exec(ctx, s.db, s.sb.
		Update("product_custom_costs").
		Set("label", in.Label).
		Set("amount", in.Amount).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return CustomCost{}, fmt.Errorf("update custom cost: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return CustomCost{}, fmt.Errorf("update custom cost %s: %w", id, err)
	}

	row, err := s.queryRow(ctx, s.db, s.sb.
		Select("id", "product_id", "label", "amount", "sort_order").
		From("product_custom_costs").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return CustomCost{}, err
	}
	var c CustomCost
	if err := row.Scan(&c.ID, &c.ProductID, &c.Label, &c.Amount, &c.SortOrder); err != nil {
		return CustomCost{}, fmt.Errorf("query custom cost: %w", err)
	}
	return c, nil
}

// DeleteCustomCost removes one custom cost.
func (s *Store) DeleteCustomCost(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, s.sb.Delete("product_custom_costs").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete custom cost: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("delete custom cost %s: %w", id, err)
	}
	return nil
}
