package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Simplici0/furnicost/internal/config"
	"github.com/Simplici0/furnicost/internal/costing"
	"github.com/Simplici0/furnicost/internal/db"
	"github.com/Simplici0/furnicost/internal/estimate"
	"github.com/Simplici0/furnicost/internal/logger"
	"github.com/Simplici0/furnicost/internal/migrations"
	"github.com/Simplici0/furnicost/internal/observability"
	"github.com/Simplici0/furnicost/internal/store"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = migrations.Up(ctx, database)
	require.NoError(t, err)

	cfg := config.Config{AppEnv: "development", RateLimitPerMin: 1000, WastagePolicy: "flat"}
	metrics := observability.NewMetrics()
	records := store.New(database)
	srv := newServer(cfg, logger.Nop(), records, estimate.NewService(records, cfg.Rules(), logger.Nop(), metrics), metrics)
	return srv.routes()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doForm(t *testing.T, h http.Handler, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestMaterialAndTierEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/materials", map[string]any{"name": "Sheesham", "rate_per_cft": 500})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sheesham := decode[store.Material](t, rec)
	require.True(t, sheesham.Active)

	rec = doJSON(t, h, http.MethodPost, "/materials", map[string]any{"name": "Sheesham", "rate_per_cft": 600})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	tiersPath := "/materials/" + sheesham.ID + "/tiers"
	rec = doJSON(t, h, http.MethodPost, tiersPath, map[string]any{"min_size": 2, "max_size": 4, "thickness": 1, "rate_per_cft": 800})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodPost, tiersPath, map[string]any{"min_size": 3, "max_size": 6, "thickness": 1, "rate_per_cft": 850})
	require.Equal(t, http.StatusConflict, rec.Code)
	p := decode[problem](t, rec)
	require.Contains(t, p.Detail, "overlaps")

	rec = doForm(t, h, http.MethodPost, tiersPath, url.Values{
		"min_size": {"4.5"}, "max_size": {"8"}, "thickness": {"2"}, "rate_per_cft": {"950"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	formTier := decode[store.PriceTier](t, rec)

	req := httptest.NewRequest(http.MethodPost, tiersPath+"/import", strings.NewReader("min,max,thickness,rate\n9,12,1,1100\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, decode[[]store.PriceTier](t, rec), 1)

	rec = doJSON(t, h, http.MethodGet, tiersPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]store.PriceTier](t, rec), 3)

	rec = doJSON(t, h, http.MethodDelete, "/tiers/"+formTier.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/materials/missing/tiers", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doForm(t, h, http.MethodPut, "/materials/"+sheesham.ID, url.Values{"name": {"Sheesham"}, "rate_per_cft": {"550"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[store.Material](t, rec)
	require.False(t, updated.Active)
	require.InDelta(t, 550, updated.RatePerCFT, 1e-9)

	rec = doJSON(t, h, http.MethodGet, "/materials?active=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[[]store.Material](t, rec))

	rec = doJSON(t, h, http.MethodGet, "/materials/"+sheesham.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Sheesham", decode[store.Material](t, rec).Name)

	rec = doJSON(t, h, http.MethodDelete, "/materials/"+sheesham.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/materials/"+sheesham.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMaterialFormRejectsBadNumbers(t *testing.T) {
	h := newTestHandler(t)

	rec := doForm(t, h, http.MethodPost, "/materials", url.Values{"name": {"Teak"}, "rate_per_cft": {"abc"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[problem](t, rec).Detail, "rate_per_cft must be numeric")

	rec = doForm(t, h, http.MethodPost, "/materials", url.Values{"rate_per_cft": {"100"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductSummaryFlow(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/materials", map[string]any{"name": "Sheesham", "rate_per_cft": 500})
	require.Equal(t, http.StatusCreated, rec.Code)
	sheesham := decode[store.Material](t, rec)
	rec = doJSON(t, h, http.MethodPost, "/materials/"+sheesham.ID+"/tiers", map[string]any{"min_size": 2, "max_size": 4, "thickness": 1, "rate_per_cft": 800})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doForm(t, h, http.MethodPost, "/products", url.Values{"name": {"Side Table"}, "product_type": {"Table"}, "overall_length": {"24"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[store.Product](t, rec)
	base := "/products/" + product.ID

	rec = doJSON(t, h, http.MethodPut, base+"/components", []map[string]any{
		{"description": "Top", "length": 24, "width": 18, "height": 1, "material_id": sheesham.ID},
		{"description": "Drawer front", "cft": 0.5, "rate": 1200},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	components := decode[[]store.Component](t, rec)
	require.InDelta(t, 800, components[0].Rate, 1e-9)

	rec = doForm(t, h, http.MethodPut, base+"/extras", url.Values{"labour": {"60"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	extras := decode[store.Extras](t, rec)
	require.InDelta(t, store.DefaultMAPercentage, extras.MAPercentage, 1e-9)

	rec = doJSON(t, h, http.MethodPost, base+"/custom-costs", map[string]any{"label": "Packing", "amount": 40})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, base+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[estimateView](t, rec)
	require.NotNil(t, view.Product)
	require.Equal(t, "flat", view.WastagePolicy)
	require.Len(t, view.Lines, 2)
	require.Equal(t, "Sheesham", view.Lines[0].MaterialName)
	require.InDelta(t, 0.375, view.Lines[0].CFT, 1e-9)
	require.InDelta(t, 4.5, view.Lines[0].Feet, 1e-9)
	require.True(t, view.Lines[1].ManualCFT)
	require.InDelta(t, 0.875, view.TotalCFT, 1e-9)
	require.InDelta(t, 1000, view.Breakdown.Subtotal, 1e-9)
	require.InDelta(t, 1699.2, view.GrandTotal, 1e-9)

	rec = doJSON(t, h, http.MethodGet, base+"/components", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]store.Component](t, rec), 2)

	rec = doJSON(t, h, http.MethodGet, "/products?q=side", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]store.Product](t, rec), 1)

	rec = doJSON(t, h, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, h, http.MethodGet, base+"/summary", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreviewEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/estimate/preview", map[string]any{
		"components": []map[string]any{{"description": "Panel", "cft": 1, "rate": 1000}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[estimateView](t, rec)
	require.Nil(t, view.Product)
	require.InDelta(t, 1699.2, view.GrandTotal, 1e-9)

	rec = doJSON(t, h, http.MethodPost, "/estimate/preview", map[string]any{
		"components": []map[string]any{{"description": "Panel", "pieces": -1}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/estimate/preview", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/products", map[string]any{"name": "Chair", "product_type": "Seating", "colour": "red"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/products/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	p := decode[problem](t, rec)
	require.Equal(t, "Not Found", p.Title)
	require.Equal(t, http.StatusNotFound, p.Status)
}

func TestHealthMetricsAndHeaders(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "furnicost_http_requests_total")
	require.Contains(t, string(body), `route="/healthz"`)
}

func TestNewEstimateViewRoundsForDisplay(t *testing.T) {
	third := 1.0 / 3.0
	summary := costing.DefaultRules.Aggregate(
		[]costing.Component{{CFTOverride: &third, Rate: 1000, Pieces: 1}},
		costing.Extras{},
		nil,
	)
	est := estimate.Estimate{
		Components:    []store.Component{{MaterialID: "teak"}},
		MaterialNames: map[string]string{"teak": "Teak"},
		Summary:       summary,
	}

	view := newEstimateView(est, costing.Rules{Wastage: costing.WastageStock})
	require.Equal(t, "stock", view.WastagePolicy)
	require.Equal(t, "Teak", view.Lines[0].MaterialName)
	require.InDelta(t, 0.3333, view.Lines[0].CFT, 1e-12)
	require.InDelta(t, 333.33, view.Lines[0].Cost, 1e-12)
	require.InDelta(t, 333.33, view.GrandTotal, 1e-12)
}
