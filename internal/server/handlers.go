// ABOUTME: HTTP handlers for recording selections and personalization lookups
// ABOUTME: Decodes JSON requests, canonicalizes categories, and maps errors to status codes
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/harper/echomind/internal/core"
	"github.com/harper/echomind/internal/models"
	"github.com/harper/echomind/internal/storage"
)

// situationRequest names a user, a category, and the live context
type situationRequest struct {
	UserID   string               `json:"user_id"`
	Category string               `json:"category"`
	Context  models.ContextFields `json:"context"`
	Limit    int                  `json:"limit,omitempty"`
}

type personalizationResponse struct {
	Hint                   string `json:"hint"`
	PromptLine             string `json:"prompt_line"`
	PersonalizationEnabled bool   `json:"personalization_enabled"`
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	var sel models.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("record request", zap.String("user_id", sel.UserID), zap.String("category", sel.Category))

	rec, err := s.engine.Record(r.Context(), sel)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidSelection):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, storage.ErrStoreUnavailable), errors.Is(err, storage.ErrCollectionNotFound):
			s.logger.Error("record failed", zap.Error(err))
			s.respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			s.logger.Error("record failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handlePersonalize(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSituation(w, r)
	if !ok {
		return
	}

	hint := s.engine.Personalize(r.Context(), req.UserID, req.Category, req.Context)
	s.respondJSON(w, http.StatusOK, personalizationResponse{
		Hint:                   hint,
		PromptLine:             core.PromptLine(hint),
		PersonalizationEnabled: s.engine.PersonalizationEnabled(),
	})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSituation(w, r)
	if !ok {
		return
	}

	matches, err := s.engine.Similar(r.Context(), req.UserID, req.Category, req.Context, req.Limit)
	if err != nil {
		s.logger.Error("similarity search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": req.UserID,
		"matches": matches,
	})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	category, err := models.ParseCategory(r.URL.Query().Get("category"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	phrases := s.engine.TopPhrases(r.Context(), userID, category.String(), limit)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  userID,
		"category": category.String(),
		"phrases":  phrases,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.logger.Error("stats failed", zap.Error(err))
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":                  "ok",
		"personalization_enabled": s.engine.PersonalizationEnabled(),
		"dimension":               s.engine.Dimensions(),
	})
}

// decodeSituation reads a situationRequest and canonicalizes its category.
// It writes the error response itself and reports whether to continue.
func (s *Server) decodeSituation(w http.ResponseWriter, r *http.Request) (*situationRequest, bool) {
	var req situationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return nil, false
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	req.Category = category.String()
	if req.Limit < 0 {
		s.respondError(w, http.StatusBadRequest, "limit must not be negative")
		return nil, false
	}
	return &req, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
