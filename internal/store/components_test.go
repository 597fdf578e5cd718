package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplaceComponents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	sheesham := mustMaterial(t, s, "Sheesham", 500)
	p := mustProduct(t, s, "Dining Table")

	saved, err := s.ReplaceComponents(ctx, p.ID, []Component{
		{Description: " Top ", Length: ptr(72), Width: ptr(36), Height: ptr(1), Pieces: 1, Rate: 500, MaterialID: sheesham.ID},
		{Description: "Leg", Length: ptr(30), Width: ptr(3), Height: ptr(3), Pieces: 4, Rate: 500, MaterialID: sheesham.ID, ActualLength: ptr(29)},
		{Description: "Cleat", CFT: ptr(0.25), Rate: 400},
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)
	require.Equal(t, "Top", saved[0].Description)
	require.Equal(t, 1, saved[2].Pieces)
	for i, c := range saved {
		require.NotEmpty(t, c.ID)
		require.Equal(t, i, c.SortOrder)
		require.Equal(t, p.ID, c.ProductID)
	}

	listed, err := s.ListComponents(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, saved, listed)
	require.Nil(t, listed[2].Length)
	require.NotNil(t, listed[1].ActualLength)
	require.InDelta(t, 29, *listed[1].ActualLength, 1e-9)
	require.Empty(t, listed[2].MaterialID)

	kept := listed[1]
	kept.Pieces = 2
	saved, err = s.ReplaceComponents(ctx, p.ID, []Component{kept})
	require.NoError(t, err)
	require.Equal(t, kept.ID, saved[0].ID)
	require.Zero(t, saved[0].SortOrder)

	listed, err = s.ListComponents(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, 2, listed[0].Pieces)

	_, err = s.ReplaceComponents(ctx, p.ID, nil)
	require.NoError(t, err)
	listed, err = s.ListComponents(ctx, p.ID)
	require.NoError(t, err)
	require.Empty(t, listed)
}

func TestReplaceComponentsErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	p := mustProduct(t, s, "Stool")

	_, err := s.ReplaceComponents(ctx, "missing", []Component{{Description: "Seat", Pieces: 1}})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReplaceComponents(ctx, p.ID, []Component{{Description: "Seat", Pieces: -2}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.ReplaceComponents(ctx, p.ID, []Component{{Description: "Seat", Length: ptr(-12), Pieces: 1}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = s.ReplaceComponents(ctx, p.ID, []Component{{Description: "Seat", Pieces: 1, MaterialID: "no-such-material"}})
	require.ErrorIs(t, err, ErrValidation)

	other := mustProduct(t, s, "Bench")
	taken, err := s.ReplaceComponents(ctx, other.ID, []Component{{Description: "Plank", Pieces: 1}})
	require.NoError(t, err)
	_, err = s.ReplaceComponents(ctx, p.ID, []Component{{ID: taken[0].ID, Description: "Seat", Pieces: 1}})
	require.ErrorIs(t, err, ErrDuplicate)

	listed, err := s.ListComponents(ctx, other.ID)
	require.NoError(t, err)
	require.Equal(t, taken, listed)
}

func TestDeleteMaterialDetachesComponents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	teak := mustMaterial(t, s, "Teak", 3200)
	p := mustProduct(t, s, "Console")

	_, err := s.ReplaceComponents(ctx, p.ID, []Component{{Description: "Top", Length: ptr(48), Width: ptr(16), Height: ptr(1), Pieces: 1, Rate: 3200, MaterialID: teak.ID}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteMaterial(ctx, teak.ID))

	listed, err := s.ListComponents(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Empty(t, listed[0].MaterialID)
	require.InDelta(t, 3200, listed[0].Rate, 1e-9)
}
