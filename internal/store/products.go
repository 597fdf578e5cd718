package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Product is a furniture item whose cost is estimated.
type Product struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ProductType     string   `json:"product_type"`
	OverallLength   *float64 `json:"overall_length"`
	OverallWidth    *float64 `json:"overall_width"`
	OverallHeight   *float64 `json:"overall_height"`
	DesignerName    string   `json:"designer_name"`
	ReferenceNumber string   `json:"reference_number"`
	ImageURL        string   `json:"image_url"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// ProductInput holds writable product fields.
type ProductInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	ProductType     string   `json:"product_type" validate:"required,max=80"`
	OverallLength   *float64 `json:"overall_length" validate:"omitnil,gte=0"`
	OverallWidth    *float64 `json:"overall_width" validate:"omitnil,gte=0"`
	OverallHeight   *float64 `json:"overall_height" validate:"omitnil,gte=0"`
	DesignerName    string   `json:"designer_name" validate:"max=120"`
	ReferenceNumber string   `json:"reference_number" validate:"max=80"`
	ImageURL        string   `json:"image_url" validate:"omitempty,url"`
}

var productColumns = []string{
	"id", "name", "product_type", "overall_length", "overall_width", "overall_height",
	"COALESCE(designer_name, '')", "COALESCE(reference_number, '')", "COALESCE(image_url, '')",
	"created_at", "updated_at",
}

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var (
		p             Product
		length, width sql.NullFloat64
		height        sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.Name, &p.ProductType, &length, &width, &height,
		&p.DesignerName, &p.ReferenceNumber, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	p.OverallLength, p.OverallWidth, p.OverallHeight = floatPtr(length), floatPtr(width), floatPtr(height)
	return p, nil
}

func normalizeProduct(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.ProductType = strings.TrimSpace(in.ProductType)
	in.DesignerName = strings.TrimSpace(in.DesignerName)
	in.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	return in
}

// CreateProduct inserts a new product.
func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	in = normalizeProduct(in)
	if err := s.check(in); err != nil {
		return Product{}, err
	}

	id := uuid.NewString()
	_, err := s.exec(ctx, s.db, s.sb.
		Insert("products").
		Columns("id", "name", "product_type", "overall_length", "overall_width", "overall_height",
			"designer_name", "reference_number", "image_url").
		Values(id, in.Name, in.ProductType,
			nullFloat(in.OverallLength), nullFloat(in.OverallWidth), nullFloat(in.OverallHeight),
			nullString(in.DesignerName), nullString(in.ReferenceNumber), nullString(in.ImageURL)))
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	return s.GetProduct(ctx, id)
}

// UpdateProduct replaces the writable fields of a product.
func (s *Store) UpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error) {
	in = normalizeProduct(in)
	if err := s.check(in); err != nil {
		return Product{}, err
	}

	res, err := s.exec(ctx, s.db, s.sb.
		Update("products").
		SetMap(map[string]any{
			"name":             in.Name,
			"product_type":     in.ProductType,
			"overall_length":   nullFloat(in.OverallLength),
			"overall_width":    nullFloat(in.OverallWidth),
			"overall_height":   nullFloat(in.OverallHeight),
			"designer_name":    nullString(in.DesignerName),
			"reference_number": nullString(in.ReferenceNumber),
			"image_url":        nullString(in.ImageURL),
			"updated_at":       sq.Expr("CURRENT_TIMESTAMP"),
		}).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return Product{}, fmt.Errorf("update product %s: %w", id, err)
	}

	return s.GetProduct(ctx, id)
}

// GetProduct loads one product by id.
func (s *Store) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.getProduct(ctx, s.db, id)
}

func (s *Store) getProduct(ctx context.Context, q querier, id string) (Product, error) {
	row, err := s.queryRow(ctx, q, s.sb.Select(productColumns...).From("products").Where(sq.Eq{"id": id}))
	if err != nil {
		return Product{}, err
	}

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

// ListProducts returns products, most recently updated first. A non-empty
// query filters by name, type or reference number.
func (s *Store) ListProducts(ctx context.Context, query string) ([]Product, error) {
	b := s.sb.Select(productColumns...).From("products").OrderBy("datetime(updated_at) DESC", "name ASC")
	if query = strings.TrimSpace(query); query != "" {
		like := "%" + query + "%"
		b = b.Where(sq.Or{
			sq.Like{"name": like},
			sq.Like{"product_type": like},
			sq.Like{"COALESCE(reference_number, '')": like},
		})
	}

	rows, err := s.query(ctx, s.db, b)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

// DeleteProduct removes a product with its components, extras and custom costs.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, s.sb.Delete("products").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

func (s *Store) touchProduct(ctx context.Context, q querier, id string) error {
	res, err := s.exec(ctx, q, s.sb.
		Update("products").
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("touch product: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return fmt.Errorf("product %s: %w", id, err)
	}
	return nil
}
