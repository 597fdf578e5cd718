package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Simplici0/furnicost/internal/costing"
)

// Default margin percentages for a product with no saved extras.
const (
	DefaultMAPercentage     = 20
	DefaultProfitPercentage = 20
	DefaultGSTPercentage    = 18
)

// Extras are a product's fixed add-on costs and margin percentages.
type Extras struct {
	ProductID        string  `json:"product_id"`
	Labour           float64 `json:"labour" validate:"gte=0"`
	Polish           float64 `json:"polish" validate:"gte=0"`
	Hardware         float64 `json:"hardware" validate:"gte=0"`
	CNC              float64 `json:"cnc" validate:"gte=0"`
	Foam             float64 `json:"foam" validate:"gte=0"`
	IronWeight       float64 `json:"iron_weight" validate:"gte=0"`
	IronRate         float64 `json:"iron_rate" validate:"gte=0"`
	MAPercentage     float64 `json:"ma_percentage" validate:"gte=0,lte=100"`
	ProfitPercentage float64 `json:"profit_percentage" validate:"gte=0,lte=100"`
	GSTPercentage    float64 `json:"gst_percentage" validate:"gte=0,lte=100"`
}

// DefaultExtras returns zero add-on costs with the default margins.
func DefaultExtras(productID string) Extras {
	return Extras{
		ProductID:        productID,
		MAPercentage:     DefaultMAPercentage,
		ProfitPercentage: DefaultProfitPercentage,
		GSTPercentage:    DefaultGSTPercentage,
	}
}

// Costing converts e to the engine's extras type.
func (e Extras) Costing() costing.Extras {
	return costing.Extras{
		Labour:           e.Labour,
		Polish:           e.Polish,
		Hardware:         e.Hardware,
		CNC:              e.CNC,
		Foam:             e.Foam,
		IronWeight:       e.IronWeight,
		IronRate:         e.IronRate,
		MAPercentage:     e.MAPercentage,
		ProfitPercentage: e.ProfitPercentage,
		GSTPercentage:    e.GSTPercentage,
	}
}

// GetExtras loads a product's extras, falling back to DefaultExtras when
// none were saved.
func (s *Store) GetExtras(ctx context.Context, productID string) (Extras, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.
		Select("product_id", "labour", "polish", "hardware", "cnc", "foam", "iron_weight", "iron_rate",
			"ma_percentage", "profit_percentage", "gst_percentage").
		From("product_extras").
		Where(sq.Eq{"product_id": productID}))
	if err != nil {
		return Extras{}, err
	}

	var e Extras
	err = row.Scan(&e.ProductID, &e.Labour, &e.Polish, &e.Hardware, &e.CNC, &e.Foam, &e.IronWeight, &e.IronRate,
		&e.MAPercentage, &e.ProfitPercentage, &e.GSTPercentage)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultExtras(productID), nil
	}
	if err != nil {
		return Extras{}, fmt.Errorf("query extras: %w", err)
	}
	return e, nil
}

// UpsertExtras saves a product's extras, replacing any previous values.
func (s *Store) UpsertExtras(ctx context.Context, productID string, e Extras) (Extras, error) {
	e.ProductID = productID
	if err := s.check(e); err != nil {
		return Extras{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.touchProduct(ctx, tx, productID); err != nil {
			return err
		}
		_, err := s.exec(ctx, tx, s.sb.
			Insert("product_extras").
			Columns("product_id", "labour", "polish", "hardware", "cnc", "foam", "iron_weight", "iron_rate",
				"ma_percentage", "profit_percentage", "gst_percentage").
			Values(e.ProductID, e.Labour, e.Polish, e.Hardware, e.CNC, e.Foam, e.IronWeight, e.IronRate,
				e.MAPercentage, e.ProfitPercentage, e.GSTPercentage).
			Suffix(`ON CONFLICT(product_id) DO UPDATE SET
				labour = excluded.labour,
				polish = excluded.polish,
				hardware = excluded.hardware,
				cnc = excluded.cnc,
				foam = excluded.foam,
				iron_weight = excluded.iron_weight,
				iron_rate = excluded.iron_rate,
				ma_percentage = excluded.ma_percentage,
				profit_percentage = excluded.profit_percentage,
				gst_percentage = excluded.gst_percentage,
				updated_at = CURRENT_TIMESTAMP`))
		if err != nil {
			return fmt.Errorf("upsert extras: %w", err)
		}
		return nil
	})
	if err != nil {
		return Extras{}, err
	}

	return e, nil
}
