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

// Component is a stored line item of a product's cut list.
type Component struct {
	ID           string   `json:"id"`
	ProductID    string   `json:"product_id"`
	Description  string   `json:"description" validate:"max=200"`
	Length       *float64 `json:"length" validate:"omitnil,gte=0"`
	Width        *float64 `json:"width" validate:"omitnil,gte=0"`
	Height       *float64 `json:"height" validate:"omitnil,gte=0"`
	Pieces       int      `json:"pieces" validate:"min=1"`
	CFT          *float64 `json:"cft" validate:"omitnil,gte=0"`
	Rate         float64  `json:"rate" validate:"gte=0"`
	MaterialID   string   `json:"material_id"`
	ActualLength *float64 `json:"actual_length" validate:"omitnil,gte=0"`
	ActualWidth  *float64 `json:"actual_width" validate:"omitnil,gte=0"`
	ActualHeight *float64 `json:"actual_height" validate:"omitnil,gte=0"`
	SortOrder    int      `json:"sort_order"`
}

// Costing converts c to the engine's component type.
func (c Component) Costing() costing.Component {
	return costing.Component{
		ID:          c.ID,
		Description: c.Description,
		Nominal:     costing.Dimensions{Length: c.Length, Width: c.Width, Height: c.Height},
		Pieces:      c.Pieces,
		CFTOverride: c.CFT,
		ActualOverride: costing.Dimensions{
			Length: c.ActualLength,
			Width:  c.ActualWidth,
			Height: c.ActualHeight,
		},
		MaterialID: c.MaterialID,
		Rate:       c.Rate,
	}
}

var componentColumns = []string{
	"id", "product_id", "description", "length", "width", "height", "pieces", "cft", "rate",
	"COALESCE(material_id, '')", "actual_length", "actual_width", "actual_height", "sort_order",
}

// ListComponents returns a product's components in display order.
func (s *Store) ListComponents(ctx context.Context, productID string) ([]Component, error) {
	return s.listComponents(ctx, s.db, productID)
}

func (s *Store) listComponents(ctx context.Context, q querier, productID string) ([]Component, error) {
	rows, err := s.query(ctx, q, s.sb.
		Select(componentColumns...).
		From("components").
		Where(sq.Eq{"product_id": productID}).
		OrderBy("sort_order", "created_at"))
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer rows.Close()

	components := make([]Component, 0)
	for rows.Next() {
		var (
			c                                  Component
			length, width, height, cft         sql.NullFloat64
			actualLen, actualWidth, actualHigh sql.NullFloat64
		)
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Description, &length, &width, &height, &c.Pieces,
			&cft, &c.Rate, &c.MaterialID, &actualLen, &actualWidth, &actualHigh, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		c.Length, c.Width, c.Height, c.CFT = floatPtr(length), floatPtr(width), floatPtr(height), floatPtr(cft)
		c.ActualLength, c.ActualWidth, c.ActualHeight = floatPtr(actualLen), floatPtr(actualWidth), floatPtr(actualHigh)
		components = append(components, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate components: %w", err)
	}

	return components, nil
}

// ReplaceComponents swaps a product's whole cut list for components in one
// transaction. Order in the slice becomes the sort order, missing ids are
// generated and a zero piece count defaults to one.
func (s *Store) ReplaceComponents(ctx context.Context, productID string, components []Component) ([]Component, error) {
	saved := make([]Component, len(components))
	for i, c := range components {
		c.ProductID = productID
		c.SortOrder = i
		c.Description = strings.TrimSpace(c.Description)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.Pieces == 0 {
			c.Pieces = 1
		}
		if err := s.check(c); err != nil {
			return nil, fmt.Errorf("component %d: %w", i+1, err)
		}
		saved[i] = c
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.touchProduct(ctx, tx, productID); err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, s.sb.Delete("components").Where(sq.Eq{"product_id": productID})); err != nil {
			return fmt.Errorf("delete components: %w", err)
		}
		if len(saved) == 0 {
			return nil
		}

		insert := s.sb.Insert("components").Columns(
			"id", "product_id", "description", "length", "width", "height", "pieces", "cft", "rate",
			"material_id", "actual_length", "actual_width", "actual_height", "sort_order")
		for _, c := range saved {
			insert = insert.Values(c.ID, c.ProductID, c.Description,
				nullFloat(c.Length), nullFloat(c.Width), nullFloat(c.Height), c.Pieces, nullFloat(c.CFT), c.Rate,
				nullString(c.MaterialID), nullFloat(c.ActualLength), nullFloat(c.ActualWidth), nullFloat(c.ActualHeight),
				c.SortOrder)
		}
		if _, err := s.exec(ctx, tx, insert); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: component references an unknown material", ErrValidation)
			}
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: component id belongs to another product", ErrDuplicate)
			}
			return fmt.Errorf("insert components: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}
