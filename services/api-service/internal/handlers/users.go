package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

// UserHandler is the admin-only user CRUD surface. Password hashes never
// leave the handler.
type UserHandler struct {
	users     *storage.UserRepository
	logger    *slog.Logger
	adminCode string
}

func NewUserHandler(users *storage.UserRepository, logger *slog.Logger, adminCode string) *UserHandler {
	return &UserHandler{users: users, logger: logger, adminCode: adminCode}
}

type updateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", "err", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get user failed", "err", err)
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Create follows the register semantics: the invitation code gates the Admin
// role even for an admin caller, so the code stays the single path to
// privilege.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	user, status, msg := buildUser(req, h.adminCode)
	if status != 0 {
		http.Error(w, msg, status)
		return
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if storage.IsUniqueViolation(err) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		h.logger.Error("create user failed", "err", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get user failed", "err", err)
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}

	if name := strings.TrimSpace(req.Username); name != "" {
		user.Username = name
	}
	switch strings.TrimSpace(req.Role) {
	case "":
	case model.RoleUser, model.RoleAdmin:
		user.Role = strings.TrimSpace(req.Role)
	default:
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}
	// The password is rehashed only when the request carries a new one.
	if req.Password != "" {
		hash, err := hashPassword(strings.TrimSpace(req.Password))
		if err != nil {
			http.Error(w, "failed to hash password", http.StatusInternalServerError)
			return
		}
		user.PasswordHash = hash
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if storage.IsUniqueViolation(err) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		h.logger.Error("update user failed", "err", err)
		http.Error(w, "failed to update user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "user has related records", http.StatusConflict)
			return
		}
		h.logger.Error("delete user failed", "err", err)
		http.Error(w, "failed to delete user", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
