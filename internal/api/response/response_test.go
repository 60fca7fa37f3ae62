package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAccepted(t *testing.T) {
	rec := httptest.NewRecorder()
	Accepted(rec, "login")

	if rec.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}

	var body struct {
		Data AcceptedResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Data.Operation != "login" || body.Data.Status != "queued" {
		t.Errorf("Unexpected body: %+v", body.Data)
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	ServiceUnavailable(rec, errors.New("worker not initialised"))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected code 503, got %d", body.Code)
	}
	if body.Message != "worker not initialised" {
		t.Errorf("Expected message, got %q", body.Message)
	}
	if body.Error != "Service Unavailable" {
		t.Errorf("Expected status text, got %q", body.Error)
	}
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rec.Body.String())
	}
}
