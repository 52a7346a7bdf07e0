package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fracto-health/fracto/services/api-service/internal/model"
)

func TestPasswordHashing(t *testing.T) {
	password := "pass123"
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if err := verifyPassword(hash, password); err != nil {
		t.Fatalf("verifyPassword should succeed: %v", err)
	}
	if err := verifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatal("verifyPassword should fail for wrong password")
	}
}

func TestBuildUser(t *testing.T) {
	const code = "letmein"

	tests := []struct {
		name       string
		req        registerRequest
		adminCode  string
		wantStatus int
		wantRole   string
	}{
		{
			name:       "missing username",
			req:        registerRequest{Password: "pw"},
			adminCode:  code,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing password",
			req:        registerRequest{Username: "alice"},
			adminCode:  code,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "defaults to User role",
			req:       registerRequest{Username: "alice", Password: "pw"},
			adminCode: code,
			wantRole:  model.RoleUser,
		},
		{
			name:      "admin with valid code",
			req:       registerRequest{Username: "root", Password: "pw", Role: model.RoleAdmin, InvitationCode: code},
			adminCode: code,
			wantRole:  model.RoleAdmin,
		},
		{
			name:       "admin with wrong code",
			req:        registerRequest{Username: "root", Password: "pw", Role: model.RoleAdmin, InvitationCode: "nope"},
			adminCode:  code,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "admin disabled when no code configured",
			req:        registerRequest{Username: "root", Password: "pw", Role: model.RoleAdmin, InvitationCode: ""},
			adminCode:  "",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown role",
			req:        registerRequest{Username: "alice", Password: "pw", Role: "Doctor"},
			adminCode:  code,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, status, _ := buildUser(tt.req, tt.adminCode)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantStatus != 0 {
				return
			}
			if user.Role != tt.wantRole {
				t.Errorf("role = %q, want %q", user.Role, tt.wantRole)
			}
			if user.ID == "" {
				t.Error("expected generated id")
			}
			if user.PasswordHash == tt.req.Password {
				t.Error("password stored unhashed")
			}
		})
	}
}

func TestRegisterRejectsBadJSON(t *testing.T) {
	h := NewAuthHandler(nil, testLogger(), "secret", "")
	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginRejectsMissingFields(t *testing.T) {
	h := NewAuthHandler(nil, testLogger(), "secret", "")
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"alice"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
