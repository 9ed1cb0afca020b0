package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Transport constants.
const (
	// defaultRequestTimeout bounds a single hub request when the caller's
	// context carries no deadline.
	defaultRequestTimeout = 10 * time.Second

	// maxErrorBodyLen limits how much of an error response body is kept.
	maxErrorBodyLen = 512
)

// Logger is the minimal logging interface used by this package.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// EntityState is the hub's state payload for one entity.
type EntityState struct {
	// EntityID is the entity identifier (e.g. "light.kitchen").
	EntityID string `json:"entity_id"`

	// State is the entity's current state string (e.g. "on", "heat", "21.5").
	State string `json:"state"`

	// Attributes holds the entity's attribute map (brightness, temperature, ...).
	Attributes map[string]any `json:"attributes"`
}

// Client is the HTTP client for the Home Assistant REST API.
//
// All requests carry the long-lived access token as a bearer credential and
// JSON content headers. Failures are reported as *TransportError.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  Logger
}

// ClientOptions holds configuration for creating a hub client.
type ClientOptions struct {
	// Host is the hub's IP address or hostname. Required.
	Host string

	// Port is the hub's API port. Required.
	Port int

	// AccessToken is the long-lived access token. Required.
	AccessToken string

	// Timeout bounds each request. Default: 10 seconds.
	Timeout time.Duration

	// Logger is optional structured logger.
	Logger Logger
}

// NewClient creates a hub client.
//
// Returns an error if host, port, or access token is missing, matching the
// driver's configure contract.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("hass: hub host is required")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("hass: hub port is required")
	}
	if opts.AccessToken == "" {
		return nil, fmt.Errorf("hass: hub access token is required")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL: "http://" + opts.Host + ":" + strconv.Itoa(opts.Port) + "/api",
		token:   opts.AccessToken,
		http:    &http.Client{Timeout: timeout},
		logger:  opts.Logger,
	}, nil
}

// EntityState fetches the state and attributes of one entity.
//
// Parameters:
//   - ctx: Context for cancellation and deadline
//   - entityID: Entity identifier (e.g. "climate.thermostat")
//
// Returns:
//   - EntityState: the decoded payload
//   - error: *TransportError on connection failure or non-200 status
func (c *Client) EntityState(ctx context.Context, entityID string) (EntityState, error) {
	op := "get state of " + entityID

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/states/"+entityID, nil)
	if err != nil {
		return EntityState{}, &TransportError{Op: op, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return EntityState{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return EntityState{}, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		}
	}

	var state EntityState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return EntityState{}, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	c.logDebug("entity state fetched", "entity_id", entityID, "state", state.State)
	return state, nil
}

// CallService invokes a hub service (e.g. light/turn_on) with a JSON payload.
//
// Parameters:
//   - ctx: Context for cancellation and deadline
//   - domain: Service domain (e.g. "light", "climate")
//   - service: Service name (e.g. "turn_on", "set_hvac_mode")
//   - payload: Service data; must include "entity_id"
//
// Returns:
//   - error: *TransportError on connection failure or non-2xx status
func (c *Client) CallService(ctx context.Context, domain, service string, payload map[string]any) error {
	op := fmt.Sprintf("call service %s/%s", domain, service)

	body, err := json.Marshal(payload)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode payload: %w", err)}
	}

	url := c.baseURL + "/services/" + domain + "/" + service
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		}
	}

	c.logDebug("service called", "domain", domain, "service", service)
	return nil
}

// Ping checks hub reachability via GET /api/.
// Used by health reporting.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return &TransportError{Op: "ping hub", Err: err}
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: "ping hub", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{
			Op:         "ping hub",
			StatusCode: resp.StatusCode,
			Body:       readErrorBody(resp.Body),
		}
	}
	return nil
}

// setHeaders applies the bearer token and JSON content headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
}

// readErrorBody reads a bounded prefix of an error response body.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodyLen))
	if err != nil {
		return ""
	}
	return string(body)
}

// logDebug logs a debug message if logger is set.
func (c *Client) logDebug(msg string, keysAndValues ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, keysAndValues...)
	}
}
