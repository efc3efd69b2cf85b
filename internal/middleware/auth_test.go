package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateAndParseToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()

	token, expiresIn, err := auth.GenerateAccessToken(userID, "admin")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}
	if expiresIn <= 0 {
		t.Errorf("Expected positive expiry, got %d", expiresIn)
	}

	parsedID, role, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsedID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, parsedID)
	}
	if role != "admin" {
		t.Errorf("Expected role 'admin', got %q", role)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := NewJWTAuth("secret-a").GenerateAccessToken(uuid.New(), "student")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	if _, _, err := NewJWTAuth("secret-b").ParseToken(token); err == nil {
		t.Error("Expected verification to fail with the wrong secret")
	}
}

func TestMiddleware_AttachesIdentity(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	userID := uuid.New()
	token, _, _ := auth.GenerateAccessToken(userID, "student")

	var gotID uuid.UUID
	var gotRole string
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if gotID != userID {
		t.Errorf("Expected user ID %s in context, got %s", userID, gotID)
	}
	if gotRole != "student" {
		t.Errorf("Expected role 'student' in context, got %q", gotRole)
	}
}

func TestMiddleware_RejectsMissingAndMalformedHeaders(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a valid token")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	adminOnly := auth.Middleware(RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("admin passes", func(t *testing.T) {
		token, _, _ := auth.GenerateAccessToken(uuid.New(), "admin")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		adminOnly.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200 for admin, got %d", rr.Code)
		}
	})

	t.Run("student is forbidden", func(t *testing.T) {
		token, _, _ := auth.GenerateAccessToken(uuid.New(), "student")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		adminOnly.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403 for student, got %d", rr.Code)
		}
	})
}
