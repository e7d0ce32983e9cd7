package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maitri-mission/maitri/internal/chat"
	"github.com/maitri-mission/maitri/internal/store"
)

func (s *Server) handleGetAstronaut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	a, err := s.store.Get(r.Context(), name)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleAddSymptom(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var l store.SymptomLog
	if err := decodeJSON(r, &l); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	l.Severity = strings.ToLower(l.Severity)
	if !store.ValidSeverity(l.Severity) {
		respondError(w, http.StatusBadRequest, "invalid_severity",
			fmt.Sprintf("invalid severity value %q", l.Severity))
		return
	}
	if strings.TrimSpace(l.Symptom) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "symptom is required")
		return
	}
	if l.Date == "" {
		l.Date = time.Now().UTC().Format("2006-01-02")
	}
	stored, err := s.store.AddSymptomLog(r.Context(), name, l)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

type attachMediaRequest struct {
	MediaType string `json:"mediaType"`
	DataURL   string `json:"dataUrl"`
}

func (s *Server) handleAttachSymptomMedia(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	logID := chi.URLParam(r, "id")
	var req attachMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	mediaType := strings.ToLower(req.MediaType)
	if mediaType != "photo" && mediaType != "video" {
		respondError(w, http.StatusBadRequest, "invalid_media_type",
			fmt.Sprintf("invalid mediaType %q", req.MediaType))
		return
	}
	if err := s.store.AttachSymptomMedia(r.Context(), name, logID, mediaType, req.DataURL); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddCaptainLog(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var l store.CaptainLog
	if err := decodeJSON(r, &l); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(l.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}
	if l.Date == "" {
		l.Date = time.Now().UTC().Format("2006-01-02")
	}
	stored, err := s.store.AddCaptainLog(r.Context(), name, l)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleUpsertCheckIn(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var c store.DailyCheckIn
	if err := decodeJSON(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if c.Date == "" {
		c.Date = time.Now().UTC().Format("2006-01-02")
	}
	if err := s.store.UpsertCheckIn(r.Context(), name, c); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReplaceTasks(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var tasks []store.MissionTask
	if err := decodeJSON(r, &tasks); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := s.store.ReplaceTasks(r.Context(), name, tasks); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var t store.MissionTask
	if err := decodeJSON(r, &t); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(t.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	stored, err := s.store.AddTask(r.Context(), name, t)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleSendEarthlink(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var m store.EarthlinkMessage
	if err := decodeJSON(r, &m); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if m.Text == "" && m.PhotoURL == "" && m.VideoURL == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "message is empty")
		return
	}
	if m.From == "" {
		m.From = name
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

func (s *Server) handleMarkEarthlinkViewed(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	id := chi.URLParam(r, "id")
	if err := s.store.MarkEarthlinkViewed(r.Context(), name, id); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chatRequest struct {
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "chat service not configured")
		return
	}
	name := chi.URLParam(r, "name")
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if len(req.Messages) == 0 {
		respondError(w, http.StatusBadRequest, "invalid_request", "messages is empty")
		return
	}
	history := make([]chat.Message, len(req.Messages))
	for i, m := range req.Messages {
		history[i] = chat.Message{Role: m.Role, Text: m.Text}
	}
	reply, err := s.chat.Respond(r.Context(), name, history)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondStoreError(w, err)
			return
		}
		s.logger.Error("chat turn failed", "astronaut", name, "err", err)
		respondError(w, http.StatusBadGateway, "chat_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

type sceneRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	if s.scenes == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "scene generator not configured")
		return
	}
	var req sceneRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "prompt is required")
		return
	}
	sc, err := s.scenes.Generate(r.Context(), req.Prompt)
	if err != nil {
		respondError(w, http.StatusBadGateway, "scene_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sc)
}
