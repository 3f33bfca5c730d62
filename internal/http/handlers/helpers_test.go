package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"householdmeter/internal/service"
)

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &service.ValidationError{Reason: "bad value"}, 400},
		{"not found", &service.NotFoundError{Reason: "no readings"}, 404},
		{"internal", errors.New("boom"), 500},
	}

	for _, tc := range cases {
		recorder := httptest.NewRecorder()
		writeServiceError(recorder, tc.err)
		if recorder.Code != tc.wantStatus {
			t.Errorf("%s: status = %d, want %d", tc.name, recorder.Code, tc.wantStatus)
		}

		var body map[string]string
		if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
			t.Errorf("%s: decode body: %v", tc.name, err)
			continue
		}
		if body["error"] == "" {
			t.Errorf("%s: missing error message", tc.name)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	recorder := httptest.NewRecorder()
	NewHealthHandler()(recorder, httptest.NewRequest("GET", "/health", nil))
	if recorder.Code != 200 {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
}
