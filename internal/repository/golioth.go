package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jacuzzi_controller/internal/config"
	"jacuzzi_controller/internal/models"
)

const (
	apiKeyHeader   = "x-api-key"
	requestTimeout = 10 * time.Second
)

// GoliothClient talks to the device-cloud REST API. State values travel as
// bare strings because LightDB is untyped; the typed boundary is
// models.ParseDeviceState on the way in and the Format* helpers on the way out.
type GoliothClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGoliothClient(cfg *config.Golioth) *GoliothClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	return &GoliothClient{
		baseURL:    fmt.Sprintf("%s/projects/%s/devices", base, cfg.ProjectID),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type deviceListResponse struct {
	List []models.Device `json:"list"`
}

type deviceDataResponse struct {
	Data map[string]any `json:"data"`
}

// ListDevices returns every device in the project.
func (c *GoliothClient) ListDevices(ctx context.Context) ([]models.Device, error) {
	var out deviceListResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL, "", &out); err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	return out.List, nil
}

// GetState fetches the full LightDB data map and parses it into a typed snapshot.
func (c *GoliothClient) GetState(ctx context.Context, deviceID string) (models.DeviceState, error) {
	var out deviceDataResponse
	if err := c.do(ctx, http.MethodGet, c.dataURL(deviceID, ""), "", &out); err != nil {
		return models.DeviceState{}, fmt.Errorf("get state of %s: %w", deviceID, err)
	}
	return models.ParseDeviceState(out.Data), nil
}

// SetState writes one field. The body is the serialized string value.
func (c *GoliothClient) SetState(ctx context.Context, deviceID, path, value string) error {
	if err := c.do(ctx, http.MethodPost, c.dataURL(deviceID, path), value, nil); err != nil {
		return fmt.Errorf("set %s=%s on %s: %w", path, value, deviceID, err)
	}
	return nil
}

// DeleteState removes one field entirely.
func (c *GoliothClient) DeleteState(ctx context.Context, deviceID, path string) error {
	if err := c.do(ctx, http.MethodDelete, c.dataURL(deviceID, path), "", nil); err != nil {
		return fmt.Errorf("delete %s on %s: %w", path, deviceID, err)
	}
	return nil
}

func (c *GoliothClient) dataURL(deviceID, path string) string {
	u := c.baseURL + "/" + deviceID + "/data"
	if path != "" {
		u += "/" + path
	}
	return u
}

// do performs one request and decodes the JSON response into out (when non-nil).
func (c *GoliothClient) do(ctx context.Context, method, url, body string, out any) error {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("cloud API status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
