package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"learnify-backend/internal/models"
	"learnify-backend/internal/services"
)

// ─── Error Mapping Tests ───

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"email": "bad"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "Email already in use"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Document not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid email or password"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "Verify your email"}, http.StatusForbidden, "FORBIDDEN"},
		{"rate limited", &services.RateLimitError{Message: "Slow down"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"configuration", &services.ConfigurationError{Message: "No AI model available"}, http.StatusInternalServerError, "CONFIGURATION_ERROR"},
		{"unknown", context.DeadlineExceeded, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", "req-123")

			handleServiceError(rr, req, tt.err)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding error response: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", resp.Error.Code, tt.wantCode)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("request_id = %q, want req-123", resp.Error.RequestID)
			}
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	handleServiceError(rr, req, &services.ValidationError{
		Fields: map[string]string{"password": "Password must be at least 8 characters"},
	})

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if resp.Error.Fields["password"] == "" {
		t.Error("field errors should be carried through to the response")
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["message"] != "ok" {
		t.Errorf("message = %q", body["message"])
	}
}

// ─── Request Validation Tests ───
// These hit the handler paths that reject before touching any service.

func TestAuthHandlerRejectsMalformedBody(t *testing.T) {
	h := NewAuthHandler(nil)

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"register", h.Register},
		{"login", h.Login},
		{"refresh", h.Refresh},
		{"logout", h.Logout},
		{"resend", h.ResendVerification},
	}

	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
			rr := httptest.NewRecorder()

			ep.handler(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestVerifyEmailRequiresToken(t *testing.T) {
	h := NewAuthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/verify-email", nil)
	rr := httptest.NewRecorder()

	h.VerifyEmail(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestUploadRejectsNonMultipartBody(t *testing.T) {
	h := NewDocumentHandler(nil, 50*1024*1024)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", strings.NewReader("plain body"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	h.Upload(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestGenerateRequiresDocumentID(t *testing.T) {
	h := NewTestHandler(nil)

	body, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/tests/generate", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	h.Generate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}

	var resp models.ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Error.Fields["document_id"] == "" {
		t.Error("expected a document_id field error")
	}
}

func TestInvalidResourceIDsReturn400(t *testing.T) {
	docHandler := NewDocumentHandler(nil, 0)
	testHandler := NewTestHandler(nil)
	chatHandler := NewChatHandler(nil)

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"document get", docHandler.Get},
		{"document delete", docHandler.Delete},
		{"test get", testHandler.Get},
		{"test submit", testHandler.Submit},
		{"attempt get", testHandler.GetAttempt},
		{"conversation get", chatHandler.GetConversation},
		{"send message", chatHandler.SendMessage},
	}

	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "not-a-uuid")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			ep.handler(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}
