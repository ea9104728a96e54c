package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energy-cloud/internal/audit"
	"energy-cloud/internal/auth"
	devices "energy-cloud/internal/devices/domain"
	devicehttp "energy-cloud/internal/devices/interfaces/http"
	"energy-cloud/internal/users/application"
	users "energy-cloud/internal/users/domain"
)

// ProfileDTO is the wire representation of a user profile.
type ProfileDTO struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// UserDevicesResponse bundles a profile with the devices assigned to it.
type UserDevicesResponse struct {
	User    ProfileDTO             `json:"user"`
	Devices []devicehttp.DeviceDTO `json:"devices"`
}

// ToDTO maps a profile to its wire form.
func ToDTO(profile users.UserProfile) ProfileDTO {
	return ProfileDTO{
		ID:          profile.ID,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Email:       profile.Email,
		PhoneNumber: profile.PhoneNumber,
		Address:     profile.Address,
		City:        profile.City,
		Country:     profile.Country,
	}
}

// DeviceProvider resolves the devices assigned to a user.
type DeviceProvider interface {
	ByOwner(ctx context.Context, ownerID string) ([]devices.Device, error)
}

// Handler serves user profile endpoints.
type Handler struct {
	service     *application.Service
	devices     DeviceProvider
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *application.Service, deviceProvider DeviceProvider, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("user handler: nil service")
	}
	if deviceProvider == nil {
		return nil, errors.New("user handler: nil device provider")
	}
	return &Handler{service: service, devices: deviceProvider, auditLogger: auditLogger}, nil
}

// ServeHTTP routes user requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/users" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/users/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	// "/users/me" resolves the id from the authenticated identity.
	userID := parts[0]
	self := userID == "me"
	if self {
		userID = auth.UserIDFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		if !self && !h.ensureSelfOrAdmin(w, r, userID) {
			return
		}
		h.handleGet(w, r, userID)
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.handleUpdate(w, r, userID)
	case len(parts) == 1 && r.Method == http.MethodDelete && !self:
		h.handleDelete(w, r, userID)
	case len(parts) == 2 && parts[1] == "devices" && r.Method == http.MethodGet:
		if !self && !h.ensureSelfOrAdmin(w, r, userID) {
			return
		}
		h.handleDevices(w, r, userID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, "failed to load users", http.StatusInternalServerError)
		return
	}
	result := make([]ProfileDTO, 0, len(list))
	for _, profile := range list {
		result = append(result, ToDTO(profile))
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req application.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	profile, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ToDTO(*profile))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*profile))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, userID string) {
	if userID != auth.UserIDFromContext(r.Context()) && !isAdmin(r) {
		http.Error(w, "not allowed", http.StatusForbidden)
		return
	}
	var req application.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ID != userID {
		http.Error(w, "payload id must match authenticated user id", http.StatusBadRequest)
		return
	}
	profile, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*profile))
	h.logAudit(r, userID, "profile.update")
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.service.Delete(r.Context(), userID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, userID, "profile.delete")
}

func (h *Handler) handleDevices(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	owned, err := h.devices.ByOwner(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load devices", http.StatusInternalServerError)
		return
	}
	response := UserDevicesResponse{
		User:    ToDTO(*profile),
		Devices: make([]devicehttp.DeviceDTO, 0, len(owned)),
	}
	for _, device := range owned {
		response.Devices = append(response.Devices, devicehttp.ToDTO(device))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) ensureSelfOrAdmin(w http.ResponseWriter, r *http.Request, userID string) bool {
	if userID == auth.UserIDFromContext(r.Context()) || isAdmin(r) {
		return true
	}
	http.Error(w, "not allowed", http.StatusForbidden)
	return false
}

func (h *Handler) logAudit(r *http.Request, userID, action string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.UsernameFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "user_profile",
		ResourceID:   userID,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func isAdmin(r *http.Request) bool {
	return auth.RoleFromContext(r.Context()) == auth.RoleAdmin
}

func respondError(w http.ResponseWriter, err error) {
	var validation application.ErrValidation
	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Reason, http.StatusBadRequest)
	case errors.Is(err, users.ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, users.ErrDuplicate):
		http.Error(w, "email already registered", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
