// Package fleetapi implements the client for the upstream fleet API: shift
// definitions, the zone catalog, and optionally a server-side active-shift
// snapshot.
package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/clambin/go-common/http/metrics"
	"github.com/clambin/go-common/http/roundtripper"
	"github.com/fleetyard/shift-monitor/internal/schedule"
)

// Zone is an externally authored geographic area linkable to a shift. The
// geometry string is normalized by the geometry package; this client treats
// it as opaque.
type Zone struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Geometry string `json:"geometry"`
}

// ErrNotSupported indicates the server does not implement the requested
// endpoint. Callers fall back to computing the result locally.
var ErrNotSupported = errors.New("endpoint not supported by server")

// Client calls the fleet API. All calls send the bearer token and run
// through an instrumented transport.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string, requestMetrics metrics.RequestMetrics) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: roundtripper.New(
				roundtripper.WithRequestMetrics(requestMetrics),
				roundtripper.WithRoundTripper(http.DefaultTransport),
			),
		},
	}
}

// NewMetrics creates the request metrics for a Client. The returned metrics
// implement prometheus.Collector and must be registered by the caller.
func NewMetrics(namespace, subsystem string) metrics.RequestMetrics {
	return metrics.NewRequestMetrics(metrics.Options{
		Namespace: namespace,
		Subsystem: subsystem,
		LabelValues: func(request *http.Request, statusCode int) (string, string, string) {
			path := request.URL.Path
			// collapse per-shift paths to avoid a metric per shift id
			if strings.HasPrefix(path, "/api/v1/shifts/") {
				path = "/api/v1/shifts"
			}
			return request.Method, path, strconv.Itoa(statusCode)
		},
	})
}

// GetShifts returns the shift definitions for the given vehicles. An empty
// vehicle list returns all shifts.
func (c *Client) GetShifts(ctx context.Context, vehicleIDs []string) (schedule.Shifts, error) {
	endpoint := "/api/v1/shifts"
	if len(vehicleIDs) > 0 {
		endpoint += "?vehicles=" + url.QueryEscape(strings.Join(vehicleIDs, ","))
	}
	var shifts schedule.Shifts
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &shifts); err != nil {
		return nil, err
	}
	for _, shift := range shifts {
		if err := shift.Validate(); err != nil {
			return nil, fmt.Errorf("invalid shift %q from server: %w", shift.ID, err)
		}
	}
	return shifts, nil
}

// GetActiveShifts returns the shifts the server considers active for the
// given vehicles, optionally at an explicit instant. Servers without this
// endpoint return ErrNotSupported.
func (c *Client) GetActiveShifts(ctx context.Context, vehicleIDs []string, at *schedule.Instant) (schedule.Shifts, error) {
	values := make(url.Values)
	if len(vehicleIDs) > 0 {
		values.Set("vehicles", strings.Join(vehicleIDs, ","))
	}
	if at != nil {
		values.Set("weekday", strconv.Itoa(int(at.Weekday)))
		values.Set("time", strconv.Itoa(int(at.Time)))
	}
	endpoint := "/api/v1/shifts/active"
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}
	var shifts schedule.Shifts
	err := c.call(ctx, http.MethodGet, endpoint, nil, &shifts)
	return shifts, err
}

// GetZones returns the zone catalog.
func (c *Client) GetZones(ctx context.Context) ([]Zone, error) {
	var zones []Zone
	err := c.call(ctx, http.MethodGet, "/api/v1/zones", nil, &zones)
	return zones, err
}

// CreateShift submits a new shift definition. The definition is validated
// locally first: an invalid shift is never sent to the server.
func (c *Client) CreateShift(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	var created schedule.Shift
	if err := shift.Validate(); err != nil {
		return created, err
	}
	err := c.call(ctx, http.MethodPost, "/api/v1/shifts", shift, &created)
	return created, err
}

// UpdateShift replaces an existing shift definition.
func (c *Client) UpdateShift(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	var updated schedule.Shift
	if err := shift.Validate(); err != nil {
		return updated, err
	}
	err := c.call(ctx, http.MethodPut, "/api/v1/shifts/"+url.PathEscape(shift.ID), shift, &updated)
	return updated, err
}

// DeleteShift removes a shift definition.
func (c *Client) DeleteShift(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/shifts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) call(ctx context.Context, method, endpoint string, request, response any) error {
	var body bytes.Buffer
	if request != nil {
		if err := json.NewEncoder(&body).Encode(request); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, ErrNotSupported)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return fmt.Errorf("%s: %s", endpoint, resp.Status)
	}

	if response == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
