package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SamahJonathan/licitacion-ia/config"
	"github.com/gin-gonic/gin"
)

func authTestConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret",
			TokenExpireHours: 1,
		},
		Users: []config.User{
			{Username: "operador", Password: "clave"},
		},
	}
}

func loginBody(username, password string) *bytes.Buffer {
	body, _ := json.Marshal(LoginRequest{Username: username, Password: password})
	return bytes.NewBuffer(body)
}

func setupLoginRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.POST("/auth/login", NewAuthHandler(cfg).Login)
	return router
}

func TestLogin(t *testing.T) {
	router := setupLoginRouter(authTestConfig())

	req := httptest.NewRequest("POST", "/auth/login", loginBody("operador", "clave"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Token == "" {
		t.Error("Expected a token")
	}
	if resp.Username != "operador" {
		t.Errorf("Username = %q", resp.Username)
	}
}

func TestLoginRejections(t *testing.T) {
	router := setupLoginRouter(authTestConfig())

	tests := []struct {
		name     string
		body     *bytes.Buffer
		expected int
	}{
		{"wrong password", loginBody("operador", "incorrecta"), http.StatusUnauthorized},
		{"unknown user", loginBody("nadie", "clave"), http.StatusUnauthorized},
		{"missing fields", bytes.NewBufferString(`{}`), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/auth/login", tt.body)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, w.Code)
			}
		})
	}
}
