package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTierCSV reads "min_size,max_size,thickness,rate" rows. Rows with a
// missing, non-numeric or zero field are skipped, as are header rows.
func ParseTierCSV(r io.Reader) ([]TierInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	inputs := make([]TierInput, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read tier csv: %v", ErrValidation, err)
		}
		if len(record) < 4 {
			continue
		}

		values := make([]float64, 4)
		ok := true
		for i := range values {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil || v == 0 {
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			continue
		}

		inputs = append(inputs, TierInput{
			MinSize:    values[0],
			MaxSize:    values[1],
			Thickness:  values[2],
			RatePerCFT: values[3],
		})
	}

	return inputs, nil
}

// ImportTiers parses CSV rows and inserts them for a material in one
// transaction. Nothing is written if any row is invalid or overlaps.
func (s *Store) ImportTiers(ctx context.Context, materialID string, r io.Reader) ([]PriceTier, error) {
	inputs, err := ParseTierCSV(r)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no valid tier rows to import", ErrValidation)
	}

	return s.insertTiers(ctx, materialID, inputs)
}
