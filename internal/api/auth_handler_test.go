package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthAPI(t *testing.T) chi.Router {
	t.Helper()

	tokens := jwtauth.New("HS256", []byte("test-secret"), nil)
	handler, err := NewAuthHandler(tokens, "admin", "swordfish")
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Mount("/api/auth", handler.Routes())
	return router
}

func postLogin(t *testing.T, router chi.Router, username, password string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(LoginRequest{Username: username, Password: password})
	require.NoError(t, err)

	return doRequest(router, http.MethodPost, "/api/auth/login", bytes.NewReader(body), "application/json")
}

func TestAuthHandler_Login(t *testing.T) {
	router := setupAuthAPI(t)

	t.Run("valid credentials issue a token", func(t *testing.T) {
		w := postLogin(t, router, "admin", "swordfish")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "admin", resp.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postLogin(t, router, "admin", "guess")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown username", func(t *testing.T) {
		w := postLogin(t, router, "root", "swordfish")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		w := postLogin(t, router, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := doRequest(router, http.MethodPost, "/api/auth/login",
			bytes.NewBufferString("not-json"), "application/json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_Verify(t *testing.T) {
	router := setupAuthAPI(t)

	t.Run("accepts a freshly issued token", func(t *testing.T) {
		w := postLogin(t, router, "admin", "swordfish")
		require.Equal(t, http.StatusOK, w.Code)

		var login LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
		req.Header.Set("Authorization", "BEARER "+login.Token)
		verify := httptest.NewRecorder()
		router.ServeHTTP(verify, req)

		require.Equal(t, http.StatusOK, verify.Code, verify.Body.String())

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(verify.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["valid"])
		assert.Equal(t, "admin", resp["username"])
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/auth/verify", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/verify", nil)
		req.Header.Set("Authorization", "BEARER not-a-token")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
