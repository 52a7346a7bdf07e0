package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

type SpecializationHandler struct {
	specs  *storage.SpecializationRepository
	logger *slog.Logger
}

func NewSpecializationHandler(specs *storage.SpecializationRepository, logger *slog.Logger) *SpecializationHandler {
	return &SpecializationHandler{specs: specs, logger: logger}
}

type specializationRequest struct {
	Name string `json:"name"`
}

type specializationResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toSpecializationResponse(s model.Specialization) specializationResponse {
	return specializationResponse{ID: s.ID, Name: s.Name}
}

func (h *SpecializationHandler) List(w http.ResponseWriter, r *http.Request) {
	specs, err := h.specs.List(r.Context())
	if err != nil {
		h.logger.Error("list specializations failed", "err", err)
		http.Error(w, "failed to list specializations", http.StatusInternalServerError)
		return
	}
	resp := make([]specializationResponse, 0, len(specs))
	for _, s := range specs {
		resp = append(resp, toSpecializationResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SpecializationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "specialization not found", http.StatusNotFound)
		return
	}
	spec, err := h.specs.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "specialization not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get specialization failed", "err", err)
		http.Error(w, "failed to load specialization", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toSpecializationResponse(spec))
}

func (h *SpecializationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req specializationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	spec := model.Specialization{ID: uuid.NewString(), Name: req.Name}
	if err := h.specs.Create(r.Context(), spec); err != nil {
		// Uniqueness is case-insensitive, enforced by the index on lower(name).
		if storage.IsUniqueViolation(err) {
			http.Error(w, "specialization already exists", http.StatusConflict)
			return
		}
		h.logger.Error("create specialization failed", "err", err)
		http.Error(w, "failed to create specialization", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toSpecializationResponse(spec))
}

func (h *SpecializationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req specializationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "specialization not found", http.StatusNotFound)
		return
	}
	spec := model.Specialization{ID: id, Name: req.Name}
	if err := h.specs.Update(r.Context(), spec); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "specialization not found", http.StatusNotFound)
			return
		}
		if storage.IsUniqueViolation(err) {
			http.Error(w, "specialization already exists", http.StatusConflict)
			return
		}
		h.logger.Error("update specialization failed", "err", err)
		http.Error(w, "failed to update specialization", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toSpecializationResponse(spec))
}

func (h *SpecializationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "specialization not found", http.StatusNotFound)
		return
	}
	if err := h.specs.Delete(r.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "specialization not found", http.StatusNotFound)
			return
		}
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "specialization is in use", http.StatusConflict)
			return
		}
		h.logger.Error("delete specialization failed", "err", err)
		http.Error(w, "failed to delete specialization", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
