package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateDoctorValidation(t *testing.T) {
	h := NewDoctorHandler(nil, nil, testLogger())

	tests := []struct {
		name string
		body string
	}{
		{"bad json", "{"},
		{"missing name", `{"specializationId":"s1","city":"Dhaka"}`},
		{"missing city", `{"name":"Dr. Roy","specializationId":"s1"}`},
		{"malformed specializationId", `{"name":"Dr. Roy","specializationId":"s1","city":"Dhaka"}`},
		{"malformed userId", `{"name":"Dr. Roy","specializationId":"` + testDoctorID + `","city":"Dhaka","userId":"u1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, httptest.NewRequest(http.MethodPost, "/doctor", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSearchRejectsBadParams(t *testing.T) {
	h := NewDoctorHandler(nil, nil, testLogger())

	for _, target := range []string{
		"/doctor/search?minRating=abc",
		"/doctor/search?minRating=9",
		"/doctor/search?date=not-a-date",
		"/doctor/search?specializationId=abc",
	} {
		rec := httptest.NewRecorder()
		h.Search(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

// Malformed path ids are indistinguishable from missing resources.
func TestGetDoctorRejectsMalformedID(t *testing.T) {
	h := NewDoctorHandler(nil, nil, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/doctor/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetSpecializationRejectsMalformedID(t *testing.T) {
	h := NewSpecializationHandler(nil, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/specialization/abc", nil)
	req.SetPathValue("id", "abc")
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCreateSpecializationValidation(t *testing.T) {
	h := NewSpecializationHandler(nil, testLogger())

	for _, body := range []string{"{", `{"name":""}`, `{"name":"   "}`} {
		rec := httptest.NewRecorder()
		h.Create(rec, httptest.NewRequest(http.MethodPost, "/specialization", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}
