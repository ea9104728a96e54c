package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"energy-cloud/internal/auth"
	"energy-cloud/internal/credentials/application"
	credentials "energy-cloud/internal/credentials/domain"
)

// CredentialDTO is the wire representation of the authenticated identity.
type CredentialDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Handler serves /auth endpoints.
type Handler struct {
	service *application.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *application.Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("auth handler: nil service")
	}
	return &Handler{service: service}, nil
}

// ServeHTTP routes auth requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/auth/register" && r.Method == http.MethodPost:
		h.handleRegister(w, r)
	case r.URL.Path == "/auth/login" && r.Method == http.MethodPost:
		h.handleLogin(w, r)
	case r.URL.Path == "/auth/me" && r.Method == http.MethodGet:
		h.handleMe(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req application.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req application.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	username := auth.UsernameFromContext(r.Context())
	if username == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	credential, err := h.service.ByUsername(r.Context(), username)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CredentialDTO{
		ID:       credential.ID,
		Username: credential.Username,
		Email:    credential.Email,
		Role:     string(credential.Role),
	})
}

func respondError(w http.ResponseWriter, err error) {
	var validation application.ErrValidation
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	case errors.Is(err, credentials.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, credentials.ErrDuplicate):
		http.Error(w, "username or email already registered", http.StatusConflict)
	case errors.Is(err, credentials.ErrNotFound):
		http.Error(w, "credential not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
