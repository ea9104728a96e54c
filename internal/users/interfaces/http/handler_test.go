package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"energy-cloud/internal/auth"
	devicesapp "energy-cloud/internal/devices/application"
	devicesmemory "energy-cloud/internal/devices/infrastructure/memory"
	"energy-cloud/internal/users/application"
	usersmemory "energy-cloud/internal/users/infrastructure/memory"
)

type fixture struct {
	handler *Handler
	users   *application.Service
	devices *devicesapp.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	userService, err := application.NewService(usersmemory.NewProfileRepository())
	if err != nil {
		t.Fatalf("user service: %v", err)
	}
	deviceService, err := devicesapp.NewService(devicesmemory.NewDeviceRepository())
	if err != nil {
		t.Fatalf("device service: %v", err)
	}
	handler, err := NewHandler(userService, deviceService, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return fixture{handler: handler, users: userService, devices: deviceService}
}

func seedProfile(t *testing.T, f fixture, id, email string) {
	t.Helper()
	_, err := f.users.Create(context.Background(), application.ProfileRequest{ID: id, FirstName: "Alice", LastName: "Smith", Email: email})
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func authedRequest(method, target, body, userID string, role auth.Role) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := auth.WithIdentity(req.Context(), userID, role, "alice")
	return req.WithContext(ctx)
}

func TestMeDevicesReturnsBundle(t *testing.T) {
	f := newFixture(t)
	seedProfile(t, f, "user-1", "alice@example.com")

	device, err := f.devices.Create(context.Background(), devicesapp.CreateRequest{Name: "AC", MaximumConsumption: 2.5, PowerConsumption: 1.2})
	if err != nil {
		t.Fatalf("create device: %v", err)
	}
	if _, err := f.devices.Assign(context.Background(), device.ID, "user-1"); err != nil {
		t.Fatalf("assign: %v", err)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/me/devices", "", "user-1", auth.RoleUser))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp UserDevicesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.ID != "user-1" || resp.User.Email != "alice@example.com" {
		t.Fatalf("unexpected user %+v", resp.User)
	}
	if len(resp.Devices) != 1 || resp.Devices[0].ID != device.ID {
		t.Fatalf("unexpected devices %+v", resp.Devices)
	}
	if resp.Devices[0].OwnerID == nil || *resp.Devices[0].OwnerID != "user-1" {
		t.Fatalf("expected ownerId user-1, got %+v", resp.Devices[0].OwnerID)
	}
}

func TestMeWithoutIdentityUnauthorized(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateRejectsMismatchedPayloadID(t *testing.T) {
	f := newFixture(t)
	seedProfile(t, f, "user-1", "alice@example.com")

	body := `{"id":"user-2","firstName":"Alice","lastName":"Smith","email":"alice@example.com"}`
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/users/me", body, "user-1", auth.RoleUser))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "payload id must match") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestUpdateReplacesProfile(t *testing.T) {
	f := newFixture(t)
	seedProfile(t, f, "user-1", "alice@example.com")

	body := `{"id":"user-1","firstName":"Alice","lastName":"Smith","email":"alice@example.com","city":"Oslo"}`
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/users/me", body, "user-1", auth.RoleUser))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ProfileDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.City != "Oslo" {
		t.Fatalf("expected updated city, got %+v", resp)
	}
}

func TestGetOtherUserForbiddenForNonAdmin(t *testing.T) {
	f := newFixture(t)
	seedProfile(t, f, "user-2", "bob@example.com")

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/user-2", "", "user-1", auth.RoleUser))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/user-2", "", "user-1", auth.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestDuplicateEmailConflict(t *testing.T) {
	f := newFixture(t)
	seedProfile(t, f, "user-1", "alice@example.com")
	seedProfile(t, f, "user-2", "bob@example.com")

	body := `{"id":"user-1","firstName":"Alice","lastName":"Smith","email":"bob@example.com"}`
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, authedRequest(http.MethodPut, "/users/user-1", body, "user-1", auth.RoleUser))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}
