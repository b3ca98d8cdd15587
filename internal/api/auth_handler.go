package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

// LoginRequest is the request body for admin login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response body for a successful login
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// AuthHandler issues and verifies admin tokens. The rest of the API only
// sees the resulting yes/no answer through the jwtauth middleware.
type AuthHandler struct {
	tokens       *jwtauth.JWTAuth
	username     string
	passwordHash []byte
}

// NewAuthHandler creates an auth handler for a single admin credential. The
// plaintext password is hashed once here and never retained.
func NewAuthHandler(tokens *jwtauth.JWTAuth, username, password string) (*AuthHandler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &AuthHandler{
		tokens:       tokens,
		username:     username,
		passwordHash: hash,
	}, nil
}

// Routes returns the authentication routes
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.tokens), jwtauth.Authenticator)
		r.Get("/verify", h.Verify)
	})

	return r
}

// Login checks the supplied credentials and issues a signed token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrResponse{Error: "invalid request body"})
		return
	}

	if req.Username == "" || req.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrResponse{Error: "username and password are required"})
		return
	}

	if req.Username != h.username ||
		bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)) != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrResponse{Error: "invalid credentials"})
		return
	}

	claims := map[string]interface{}{"username": req.Username}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, tokenLifetime)

	_, token, err := h.tokens.Encode(claims)
	if err != nil {
		slog.Error("failed to encode token", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrResponse{Error: "internal server error"})
		return
	}

	render.JSON(w, r, LoginResponse{Token: token, Username: req.Username})
}

// Verify reports whether the presented token is valid
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrResponse{Error: "invalid token"})
		return
	}

	username, _ := claims["username"].(string)
	render.JSON(w, r, map[string]interface{}{"valid": true, "username": username})
}
