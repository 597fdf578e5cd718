package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/furnicost/internal/estimate"
	"github.com/Simplici0/furnicost/internal/store"
)

func (s *server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.ListProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *server) handleProductsCreate(w http.ResponseWriter, r *http.Request) {
	in, err := parseProductInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.CreateProduct(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *server) handleProductsGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductsUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := parseProductInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleProductsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseProductInput(w http.ResponseWriter, r *http.Request) (store.ProductInput, error) {
	var in store.ProductInput
	if isJSONRequest(r) {
		err := decodeJSON(w, r, &in)
		return in, err
	}

	if err := parseForm(w, r); err != nil {
		return in, err
	}
	in = store.ProductInput{
		Name:            strings.TrimSpace(r.FormValue("name")),
		ProductType:     strings.TrimSpace(r.FormValue("product_type")),
		DesignerName:    strings.TrimSpace(r.FormValue("designer_name")),
		ReferenceNumber: strings.TrimSpace(r.FormValue("reference_number")),
		ImageURL:        strings.TrimSpace(r.FormValue("image_url")),
	}

	var err error
	if in.OverallLength, err = formOptionalFloat(r, "overall_length"); err != nil {
		return in, err
	}
	if in.OverallWidth, err = formOptionalFloat(r, "overall_width"); err != nil {
		return in, err
	}
	if in.OverallHeight, err = formOptionalFloat(r, "overall_height"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *server) handleComponentsList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetProduct(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	components, err := s.store.ListComponents(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, components)
}

// handleComponentsReplace takes the product's whole cut list as a JSON array.
func (s *server) handleComponentsReplace(w http.ResponseWriter, r *http.Request) {
	var inputs []estimate.ComponentInput
	if err := decodeJSON(w, r, &inputs); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.estimates.SaveComponents(r.Context(), chi.URLParam(r, "id"), inputs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *server) handleExtrasGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetProduct(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	extras, err := s.store.GetExtras(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extras)
}

func (s *server) handleExtrasUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := parseExtrasInput(w, r, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	extras, err := s.store.UpsertExtras(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extras)
}

// parseExtrasInput reads a JSON or form body. Omitted percentages take the
// default margins and omitted amounts are zero.
func parseExtrasInput(w http.ResponseWriter, r *http.Request, productID string) (store.Extras, error) {
	in := store.DefaultExtras(productID)
	if isJSONRequest(r) {
		err := decodeJSON(w, r, &in)
		return in, err
	}

	if err := parseForm(w, r); err != nil {
		return in, err
	}
	amounts := []struct {
		field string
		dst   *float64
	}{
		{"labour", &in.Labour},
		{"polish", &in.Polish},
		{"hardware", &in.Hardware},
		{"cnc", &in.CNC},
		{"foam", &in.Foam},
		{"iron_weight", &in.IronWeight},
		{"iron_rate", &in.IronRate},
	}
	for _, a := range amounts {
		value, err := formFloat(r, a.field, 0, parseNonNegativeFloat)
		if err != nil {
			return in, err
		}
		*a.dst = value
	}

	percentages := []struct {
		field string
		dst   *float64
	}{
		{"ma_percentage", &in.MAPercentage},
		{"profit_percentage", &in.ProfitPercentage},
		{"gst_percentage", &in.GSTPercentage},
	}
	for _, p := range percentages {
		value, err := formFloat(r, p.field, *p.dst, parsePercent)
		if err != nil {
			return in, err
		}
		*p.dst = value
	}
	return in, nil
}

func (s *server) handleCustomCostsList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetProduct(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	costs, err := s.store.ListCustomCosts(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

func (s *server) handleCustomCostsCreate(w http.ResponseWriter, r *http.Request) {
	in, err := parseCustomCostInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.store.AddCustomCost(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleCustomCostsUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := parseCustomCostInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.store.UpdateCustomCost(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleCustomCostsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCustomCost(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseCustomCostInput(w http.ResponseWriter, r *http.Request) (store.CustomCostInput, error) {
	var in store.CustomCostInput
	if isJSONRequest(r) {
		err := decodeJSON(w, r, &in)
		return in, err
	}

	if err := parseForm(w, r); err != nil {
		return in, err
	}
	in.Label = strings.TrimSpace(r.FormValue("label"))
	var err error
	in.Amount, err = parseNonNegativeFloat(strings.TrimSpace(r.FormValue("amount")), "amount")
	return in, err
}
