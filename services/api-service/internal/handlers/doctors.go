package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

type DoctorHandler struct {
	doctors *storage.DoctorRepository
	specs   *storage.SpecializationRepository
	logger  *slog.Logger
}

func NewDoctorHandler(doctors *storage.DoctorRepository, specs *storage.SpecializationRepository, logger *slog.Logger) *DoctorHandler {
	return &DoctorHandler{doctors: doctors, specs: specs, logger: logger}
}

type doctorRequest struct {
	Name             string  `json:"name"`
	SpecializationID string  `json:"specializationId"`
	City             string  `json:"city"`
	UserID           *string `json:"userId"`
}

type doctorResponse struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	SpecializationID string  `json:"specializationId"`
	Specialization   string  `json:"specialization,omitempty"`
	City             string  `json:"city"`
	Rating           float64 `json:"rating"`
}

func toDoctorResponse(d model.Doctor) doctorResponse {
	resp := doctorResponse{
		ID:               d.ID,
		Name:             d.Name,
		SpecializationID: d.SpecializationID,
		City:             d.City,
		Rating:           d.Rating,
	}
	if d.Specialization != nil {
		resp.Specialization = d.Specialization.Name
	}
	return resp
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctors.List(r.Context())
	if err != nil {
		h.logger.Error("list doctors failed", "err", err)
		http.Error(w, "failed to list doctors", http.StatusInternalServerError)
		return
	}
	h.writeDoctors(w, doctors)
}

func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	doctor, err := h.doctors.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get doctor failed", "err", err)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(doctor))
}

func (h *DoctorHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.DoctorFilter{
		City:             strings.TrimSpace(q.Get("city")),
		SpecializationID: strings.TrimSpace(q.Get("specializationId")),
	}
	if filter.SpecializationID != "" && !validID(filter.SpecializationID) {
		http.Error(w, "invalid specializationId", http.StatusBadRequest)
		return
	}
	if raw := strings.TrimSpace(q.Get("minRating")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 5 {
			http.Error(w, "invalid minRating", http.StatusBadRequest)
			return
		}
		filter.MinRating = v
	}
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		filter.FreeOn = &day
	}

	doctors, err := h.doctors.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error("doctor search failed", "err", err)
		http.Error(w, "failed to search doctors", http.StatusInternalServerError)
		return
	}
	h.writeDoctors(w, doctors)
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req doctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.SpecializationID = strings.TrimSpace(req.SpecializationID)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.SpecializationID == "" || req.City == "" {
		http.Error(w, "name, specializationId, and city required", http.StatusBadRequest)
		return
	}
	if !validID(req.SpecializationID) {
		http.Error(w, "invalid specializationId", http.StatusBadRequest)
		return
	}
	if req.UserID != nil && !validID(*req.UserID) {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return
	}

	spec, err := h.specs.GetByID(r.Context(), req.SpecializationID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "specialization not found", http.StatusNotFound)
			return
		}
		h.logger.Error("specialization lookup failed", "err", err)
		http.Error(w, "failed to load specialization", http.StatusInternalServerError)
		return
	}

	doctor := model.Doctor{
		ID:               uuid.NewString(),
		Name:             req.Name,
		SpecializationID: spec.ID,
		City:             req.City,
		UserID:           req.UserID,
		Specialization:   &spec,
	}
	if err := h.doctors.Create(r.Context(), doctor); err != nil {
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "linked user not found", http.StatusBadRequest)
			return
		}
		h.logger.Error("create doctor failed", "err", err)
		http.Error(w, "failed to create doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toDoctorResponse(doctor))
}

func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req doctorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	doctor, err := h.doctors.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get doctor failed", "err", err)
		http.Error(w, "failed to load doctor", http.StatusInternalServerError)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		doctor.Name = name
	}
	if city := strings.TrimSpace(req.City); city != "" {
		doctor.City = city
	}
	if specID := strings.TrimSpace(req.SpecializationID); specID != "" {
		if !validID(specID) {
			http.Error(w, "invalid specializationId", http.StatusBadRequest)
			return
		}
		spec, err := h.specs.GetByID(r.Context(), specID)
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "specialization not found", http.StatusNotFound)
				return
			}
			h.logger.Error("specialization lookup failed", "err", err)
			http.Error(w, "failed to load specialization", http.StatusInternalServerError)
			return
		}
		doctor.SpecializationID = spec.ID
		doctor.Specialization = &spec
	}
	if req.UserID != nil {
		if !validID(*req.UserID) {
			http.Error(w, "invalid userId", http.StatusBadRequest)
			return
		}
		doctor.UserID = req.UserID
	}

	if err := h.doctors.Update(r.Context(), doctor); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "linked user not found", http.StatusBadRequest)
			return
		}
		h.logger.Error("update doctor failed", "err", err)
		http.Error(w, "failed to update doctor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(doctor))
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	if err := h.doctors.Delete(r.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		// Appointments reference doctors and are never physically deleted.
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "doctor has appointments", http.StatusConflict)
			return
		}
		h.logger.Error("delete doctor failed", "err", err)
		http.Error(w, "failed to delete doctor", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DoctorHandler) writeDoctors(w http.ResponseWriter, doctors []model.Doctor) {
	resp := make([]doctorResponse, 0, len(doctors))
	for _, d := range doctors {
		resp = append(resp, toDoctorResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}
