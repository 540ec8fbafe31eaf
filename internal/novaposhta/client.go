// Package novaposhta is a client for the Nova Poshta JSON API address model.
package novaposhta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public JSON endpoint.
const DefaultBaseURL = "https://api.novaposhta.ua/v2.0/json/"

// Client calls the Nova Poshta API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithAPIKey sets the key sent with every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client. It has no effect
// on a client passed with WithHTTPClient.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client for baseURL, or DefaultBaseURL when empty.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c
}

// GetAreas lists all areas.
func (c *Client) GetAreas(ctx context.Context) ([]Area, error) {
	var areas []Area
	if err := c.doRequest(ctx, MethodGetAreas, map[string]string{}, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// GetCities lists the cities of an area.
func (c *Client) GetCities(ctx context.Context, areaRef string) ([]City, error) {
	props := map[string]string{"AreaRef": areaRef}

	var cities []City
	if err := c.doRequest(ctx, MethodGetCities, props, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

// GetWarehouses lists the warehouses of a city.
func (c *Client) GetWarehouses(ctx context.Context, cityRef string) ([]Warehouse, error) {
	props := map[string]string{"CityRef": cityRef}

	var warehouses []Warehouse
	if err := c.doRequest(ctx, MethodGetWarehouse, props, &warehouses); err != nil {
		return nil, err
	}
	return warehouses, nil
}

// doRequest posts one Address model call and decodes the data array into result.
func (c *Client) doRequest(ctx context.Context, method string, props map[string]string, result interface{}) error {
	body, err := json.Marshal(request{
		APIKey:           c.apiKey,
		ModelName:        ModelAddress,
		CalledMethod:     method,
		MethodProperties: props,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !env.Success {
		return APIError{Method: method, Errors: env.Errors, ErrorCodes: env.ErrorCodes}
	}

	if len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("decoding %s data: %w", method, err)
	}
	return nil
}
