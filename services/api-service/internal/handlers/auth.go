package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fracto-health/fracto/libs/auth"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
)

const tokenTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	users     *storage.UserRepository
	logger    *slog.Logger
	jwtSecret string
	adminCode string
}

func NewAuthHandler(users *storage.UserRepository, logger *slog.Logger, jwtSecret, adminCode string) *AuthHandler {
	return &AuthHandler{
		users:     users,
		logger:    logger,
		jwtSecret: jwtSecret,
		adminCode: adminCode,
	}
}

type registerRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	InvitationCode string `json:"invitationCode"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("register failed", "err", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Username: user.Username, Role: user.Role})
}

// buildUser validates a registration payload and assembles the user row.
// A zero status means the payload is acceptable. Admin registration is gated
// on the invitation code; with no code configured Admin self-registration is
// disabled entirely.
func buildUser(req registerRequest, adminCode string) (model.User, int, string) {
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	if req.Username == "" || req.Password == "" {
		return model.User{}, http.StatusBadRequest, "username and password required"
	}

	role := model.RoleUser
	switch strings.TrimSpace(req.Role) {
	case "", model.RoleUser:
	case model.RoleAdmin:
		if adminCode == "" || req.InvitationCode != adminCode {
			return model.User{}, http.StatusBadRequest, "invalid invitation code"
		}
		role = model.RoleAdmin
	default:
		return model.User{}, http.StatusBadRequest, "invalid role"
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return model.User{}, http.StatusInternalServerError, "failed to hash password"
	}

	return model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	}, 0, ""
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login lookup failed", "err", err)
		http.Error(w, "failed to lookup user", http.StatusInternalServerError)
		return
	}

	if err := verifyPassword(user.PasswordHash, req.Password); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      user.ID,
		Username: user.Username,
		Role:     user.Role,
		Iat:      now.Unix(),
		Exp:      now.Add(tokenTTL).Unix(),
	}, h.jwtSecret)
	if err != nil {
		h.logger.Error("token sign failed", "err", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, TokenType: "Bearer"})
}

func hashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}
