package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrAuthRejected marks a 401/403 from a session-bearing call. Callers
// redirect to login instead of surfacing it inline.
var ErrAuthRejected = errors.New("dashboard: auth rejected")

// Identity is the authenticated identity returned by the session check.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Profile mirrors the server's user profile representation.
type Profile struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

// Device mirrors the server's device representation.
type Device struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	MaximumConsumption float64 `json:"maximumConsumption"`
	PowerConsumption   float64 `json:"powerConsumption"`
	OwnerID            *string `json:"ownerId"`
}

// UserDevices bundles the profile with the devices it owns.
type UserDevices struct {
	User    Profile  `json:"user"`
	Devices []Device `json:"devices"`
}

// CreateDeviceRequest is the body for creating a device.
type CreateDeviceRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	MaximumConsumption float64 `json:"maximumConsumption"`
	PowerConsumption   float64 `json:"powerConsumption"`
}

// Client is a minimal REST client for the energy-cloud API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient constructs an API client bound to a bearer token.
func NewClient(baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("dashboard: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Me returns the session identity.
func (c *Client) Me(ctx context.Context) (Identity, error) {
	var resp Identity
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return Identity{}, err
	}
	return resp, nil
}

// MyDevices returns the caller's profile together with owned devices.
func (c *Client) MyDevices(ctx context.Context) (UserDevices, error) {
	var resp UserDevices
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/devices", nil, &resp); err != nil {
		return UserDevices{}, err
	}
	return resp, nil
}

// AvailableDevices returns devices with no current owner.
func (c *Client) AvailableDevices(ctx context.Context) ([]Device, error) {
	var resp []Device
	if err := c.doJSON(ctx, http.MethodGet, "/devices/available", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateDevice creates a device. Admin only server-side.
func (c *Client) CreateDevice(ctx context.Context, req CreateDeviceRequest) (Device, error) {
	var resp Device
	if err := c.doJSON(ctx, http.MethodPost, "/devices", req, &resp); err != nil {
		return Device{}, err
	}
	return resp, nil
}

// AssignDevice assigns a device to a user and returns the updated device.
func (c *Client) AssignDevice(ctx context.Context, deviceID, userID string) (Device, error) {
	if deviceID == "" || userID == "" {
		return Device{}, errors.New("dashboard: empty assign args")
	}
	path := fmt.Sprintf("/devices/%s/assign/%s", deviceID, userID)
	var resp Device
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return Device{}, err
	}
	return resp, nil
}

// UnassignDevice releases a device back to the available pool.
func (c *Client) UnassignDevice(ctx context.Context, deviceID string) (Device, error) {
	if deviceID == "" {
		return Device{}, errors.New("dashboard: empty device id")
	}
	var resp Device
	if err := c.doJSON(ctx, http.MethodPost, "/devices/"+deviceID+"/unassign", nil, &resp); err != nil {
		return Device{}, err
	}
	return resp, nil
}

// RemoveDevice deletes a device. A 404 counts as success: the device is
// already gone, which is the state the caller asked for.
func (c *Client) RemoveDevice(ctx context.Context, deviceID string) error {
	if deviceID == "" {
		return errors.New("dashboard: empty device id")
	}
	err := c.doJSON(ctx, http.MethodDelete, "/devices/"+deviceID, nil, nil)
	if errors.Is(err, errNotFound) {
		return nil
	}
	return err
}

// UpdateProfile sends the buffer as a full replacement and returns the
// server's committed profile.
func (c *Client) UpdateProfile(ctx context.Context, profile Profile) (Profile, error) {
	var resp Profile
	if err := c.doJSON(ctx, http.MethodPut, "/users/me", profile, &resp); err != nil {
		return Profile{}, err
	}
	return resp, nil
}

// LoginResult is the credential issued by /auth/login.
type LoginResult struct {
	CredentialID string `json:"credentialId"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	Token        string `json:"token"`
}

// Login exchanges credentials for a bearer token. It requires no session,
// so it lives outside Client.
func Login(ctx context.Context, baseURL, username, password string) (LoginResult, error) {
	client, err := NewClient(baseURL, "")
	if err != nil {
		return LoginResult{}, err
	}
	body := map[string]string{"username": username, "password": password}
	var resp LoginResult
	if err := client.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return LoginResult{}, err
	}
	return resp, nil
}

var errNotFound = errors.New("dashboard: not found")

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrAuthRejected
	}
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode >= 300 {
		if msg := readErrorBody(resp.Body); msg != "" {
			return fmt.Errorf("dashboard: http %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("dashboard: http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
