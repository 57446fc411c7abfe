package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canteen/internal/auth"

	"github.com/gin-gonic/gin"
)

func testTokens(t *testing.T) *auth.Tokens {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret-key-for-testing-only", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tokens
}

func protectedRouter(tokens *auth.Tokens, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(tokens))
	if len(roles) > 0 {
		router.Use(RequireRole(roles...))
	}
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"userID": c.GetString(KeyUserID),
			"role":   c.GetString(KeyUserRole),
		})
	})
	return router
}

func get(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_MissingAuthHeader(t *testing.T) {
	w := get(protectedRouter(testTokens(t)), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_InvalidAuthFormat(t *testing.T) {
	w := get(protectedRouter(testTokens(t)), "InvalidFormat")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	w := get(protectedRouter(testTokens(t)), "Bearer invalid_token_xyz")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := testTokens(t)
	token, err := tokens.Generate(auth.Claims{UserID: "test-user-id", Email: "test@example.com", Role: auth.RoleCustomer})
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	w := get(protectedRouter(tokens), "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tokens := testTokens(t)
	router := protectedRouter(tokens, auth.RoleVendor)

	customer, _ := tokens.Generate(auth.Claims{UserID: "c-1", Role: auth.RoleCustomer})
	vendor, _ := tokens.Generate(auth.Claims{UserID: "v-1", Role: auth.RoleVendor})

	if w := get(router, "Bearer "+customer); w.Code != http.StatusForbidden {
		t.Errorf("customer: expected 403, got %d", w.Code)
	}
	if w := get(router, "Bearer "+vendor); w.Code != http.StatusOK {
		t.Errorf("vendor: expected 200, got %d", w.Code)
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireRole(auth.RoleVendor))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := get(router, ""); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 when no role was stored, got %d", w.Code)
	}
}
