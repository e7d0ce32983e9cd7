package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maitri-mission/maitri/internal/store"
)

func (s *Server) handleListAstronauts(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

type createAstronautRequest struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	PhotoURL    string `json:"photoUrl"`
}

func (s *Server) handleCreateAstronaut(w http.ResponseWriter, r *http.Request) {
	var req createAstronautRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	a := &store.Astronaut{
		Name:        req.Name,
		Designation: req.Designation,
		PhotoURL:    req.PhotoURL,
	}
	if err := s.store.Create(r.Context(), a); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

type setPhotoRequest struct {
	PhotoURL string `json:"photoUrl"`
}

func (s *Server) handleSetPhoto(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req setPhotoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.store.SetPhoto(r.Context(), name, req.PhotoURL); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddAdvice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var d store.DoctorAdvice
	if err := decodeJSON(r, &d); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(d.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	if d.Date == "" {
		d.Date = time.Now().UTC().Format("2006-01-02")
	}
	stored, err := s.store.AddDoctorAdvice(r.Context(), name, d)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleAddProcedure(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var p store.MissionProcedure
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	stored, err := s.store.AddProcedure(r.Context(), name, p)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleAddMassProtocol(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var p store.MassProtocol
	if err := decodeJSON(r, &p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	stored, err := s.store.AddMassProtocol(r.Context(), name, p)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

// handleUploadEarthlink records an inbound family message uploaded by ground
// crew. Unlike the astronaut-facing route, the sender name is required.
func (s *Server) handleUploadEarthlink(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var m store.EarthlinkMessage
	if err := decodeJSON(r, &m); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(m.From) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "from is required")
		return
	}
	if m.Text == "" && m.PhotoURL == "" && m.VideoURL == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is empty")
		return
	}
	if m.Date == "" {
		m.Date = time.Now().UTC().Format("2006-01-02")
	}
	stored, err := s.store.AddEarthlinkMessage(r.Context(), name, m)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}
