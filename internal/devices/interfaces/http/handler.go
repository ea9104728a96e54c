package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"energy-cloud/internal/audit"
	"energy-cloud/internal/auth"
	"energy-cloud/internal/devices/application"
	devices "energy-cloud/internal/devices/domain"
)

// DeviceDTO is the wire representation of a device.
type DeviceDTO struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	MaximumConsumption float64 `json:"maximumConsumption"`
	PowerConsumption   float64 `json:"powerConsumption"`
	OwnerID            *string `json:"ownerId"`
}

// ToDTO maps a device to its wire form. Unassigned devices carry a null
// ownerId, matching the persistence model.
func ToDTO(device devices.Device) DeviceDTO {
	dto := DeviceDTO{
		ID:                 device.ID,
		Name:               device.Name,
		Description:        device.Description,
		MaximumConsumption: device.MaximumConsumption,
		PowerConsumption:   device.PowerConsumption,
	}
	if device.OwnerID != "" {
		owner := device.OwnerID
		dto.OwnerID = &owner
	}
	return dto
}

func toDTOs(list []devices.Device) []DeviceDTO {
	result := make([]DeviceDTO, 0, len(list))
	for _, device := range list {
		result = append(result, ToDTO(device))
	}
	return result
}

// Handler serves device endpoints.
type Handler struct {
	service     *application.Service
	auditLogger audit.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *application.Service, auditLogger audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("device handler: nil service")
	}
	return &Handler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP routes device requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/devices" {
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

	path := strings.TrimPrefix(r.URL.Path, "/devices/")
	parts := strings.Split(path, "/")
	if len(parts) < 1 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if parts[0] == "available" && len(parts) == 1 && r.Method == http.MethodGet {
		h.handleAvailable(w, r)
		return
	}

	deviceID := parts[0]
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, deviceID)
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.handleUpdate(w, r, deviceID)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.handleDelete(w, r, deviceID)
	case len(parts) == 3 && parts[1] == "assign" && r.Method == http.MethodPost:
		h.handleAssign(w, r, deviceID, parts[2])
	case len(parts) == 2 && parts[1] == "unassign" && r.Method == http.MethodPost:
		h.handleUnassign(w, r, deviceID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, "failed to load devices", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(list))
}

func (h *Handler) handleAvailable(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Available(r.Context())
	if err != nil {
		http.Error(w, "failed to load available devices", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toDTOs(list))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, deviceID string) {
	device, err := h.service.Get(r.Context(), deviceID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !isAdmin(r) && device.OwnerID != auth.UserIDFromContext(r.Context()) {
		http.Error(w, "not allowed", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*device))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req application.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	device, err := h.service.Create(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ToDTO(*device))
	h.logAudit(r, device.ID, "device.create", map[string]any{"name": device.Name})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, deviceID string) {
	var req application.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	device, err := h.service.Update(r.Context(), deviceID, req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*device))
	h.logAudit(r, deviceID, "device.update", map[string]any{"name": device.Name})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, deviceID string) {
	if err := h.service.Delete(r.Context(), deviceID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, deviceID, "device.delete", nil)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request, deviceID, targetUserID string) {
	if !isAdmin(r) && targetUserID != auth.UserIDFromContext(r.Context()) {
		http.Error(w, "you can only assign yourself", http.StatusForbidden)
		return
	}
	device, err := h.service.Assign(r.Context(), deviceID, targetUserID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*device))
	h.logAudit(r, deviceID, "device.assign", map[string]any{"owner": targetUserID})
}

func (h *Handler) handleUnassign(w http.ResponseWriter, r *http.Request, deviceID string) {
	if !isAdmin(r) {
		device, err := h.service.Get(r.Context(), deviceID)
		if err != nil {
			respondError(w, err)
			return
		}
		if device.OwnerID == "" || device.OwnerID != auth.UserIDFromContext(r.Context()) {
			http.Error(w, "you can only unassign your own devices", http.StatusForbidden)
			return
		}
	}
	device, err := h.service.Unassign(r.Context(), deviceID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToDTO(*device))
	h.logAudit(r, deviceID, "device.unassign", nil)
}

func (h *Handler) logAudit(r *http.Request, deviceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.UsernameFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "device",
		ResourceID:   deviceID,
		Metadata:     payload,
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
	case errors.Is(err, devices.ErrNotFound):
		http.Error(w, "device not found", http.StatusNotFound)
	case errors.Is(err, devices.ErrAlreadyAssigned):
		http.Error(w, "device already assigned", http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
