package main

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/furnicost/internal/store"
)

func (s *server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	materials, err := s.store.ListMaterials(r.Context(), formBool(r, "active"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, materials)
}

func (s *server) handleMaterialsCreate(w http.ResponseWriter, r *http.Request) {
	in, err := parseMaterialInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.store.CreateMaterial(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *server) handleMaterialsGet(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMaterial(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) handleMaterialsUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := parseMaterialInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	m, err := s.store.UpdateMaterial(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *server) handleMaterialsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMaterial(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseMaterialInput reads a JSON or form body. JSON bodies that omit
// is_active create an active material.
func parseMaterialInput(w http.ResponseWriter, r *http.Request) (store.MaterialInput, error) {
	if isJSONRequest(r) {
		in := store.MaterialInput{Active: true}
		err := decodeJSON(w, r, &in)
		return in, err
	}

	if err := parseForm(w, r); err != nil {
		return store.MaterialInput{}, err
	}
	in := store.MaterialInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Active:      formBool(r, "is_active"),
	}
	if in.Name == "" {
		return in, fmt.Errorf("%w: name is required", errBadRequest)
	}

	var err error
	in.RatePerCFT, err = formFloat(r, "rate_per_cft", 0, parseNonNegativeFloat)
	return in, err
}

func (s *server) handleTiersList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetMaterial(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	tiers, err := s.store.ListTiers(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tiers)
}

func (s *server) handleTiersCreate(w http.ResponseWriter, r *http.Request) {
	in, err := parseTierInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tier, err := s.store.CreateTier(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tier)
}

func parseTierInput(w http.ResponseWriter, r *http.Request) (store.TierInput, error) {
	var in store.TierInput
	if isJSONRequest(r) {
		err := decodeJSON(w, r, &in)
		return in, err
	}

	if err := parseForm(w, r); err != nil {
		return in, err
	}
	var err error
	if in.MinSize, err = parsePositiveFloat(r.FormValue("min_size"), "min_size"); err != nil {
		return in, err
	}
	if in.MaxSize, err = parsePositiveFloat(r.FormValue("max_size"), "max_size"); err != nil {
		return in, err
	}
	if in.Thickness, err = parsePositiveFloat(r.FormValue("thickness"), "thickness"); err != nil {
		return in, err
	}
	if in.RatePerCFT, err = parsePositiveFloat(r.FormValue("rate_per_cft"), "rate_per_cft"); err != nil {
		return in, err
	}
	return in, nil
}

// handleTiersImport accepts CSV either as the raw request body or as a
// multipart upload in the "file" field.
func (s *server) handleTiersImport(w http.ResponseWriter, r *http.Request) {
	body := io.Reader(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: invalid multipart form", errBadRequest))
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: file is required", errBadRequest))
			return
		}
		defer file.Close()
		body = file
	}

	created, err := s.store.ImportTiers(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleTiersDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTier(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
