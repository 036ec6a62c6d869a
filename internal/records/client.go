// Package records talks to the remote academic records API.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Endpoint labels used for metrics and logs.
const (
	EndpointLogin      = "login"
	EndpointDepartment = "department"
	EndpointFaculty    = "faculty"
	EndpointLevel      = "level"
	EndpointCGPA       = "cgpa"
)

const maxBodyBytes = 4 << 20

// Observer receives the timing of every upstream call.
type Observer interface {
	ObserveUpstream(endpoint, outcome string, duration time.Duration)
}

// Client calls the records API. Every call is bounded by the client timeout and the request context.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	observer Observer
}

// New creates a client with the given base URL and per-call timeout.
func New(baseURL string, timeout time.Duration, observer Observer) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:  baseURL,
		HTTP:     &http.Client{Timeout: timeout},
		observer: observer,
	}
}

// Login posts the credentials and returns the raw response body.
func (c *Client) Login(ctx context.Context, username, password string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, EndpointLogin, http.MethodPost, "/v1/auth/login", "", bytes.NewReader(body))
}

// Department fetches the department name for id.
func (c *Client) Department(ctx context.Context, token, id string) (string, error) {
	return c.lookup(ctx, EndpointDepartment, "/v1/department/by/"+url.PathEscape(id), token, "DepartmentName")
}

// Faculty fetches the faculty name for id.
func (c *Client) Faculty(ctx context.Context, token, id string) (string, error) {
	return c.lookup(ctx, EndpointFaculty, "/v1/faculty/by/"+url.PathEscape(id), token, "FacultyName")
}

// Level fetches the level name for id.
func (c *Client) Level(ctx context.Context, token, id string) (string, error) {
	return c.lookup(ctx, EndpointLevel, "/v1/level/"+url.PathEscape(id), token, "LevelName")
}

// CGPA posts to the student result endpoint and returns the raw body; its shape varies.
func (c *Client) CGPA(ctx context.Context, token, studentID string) ([]byte, error) {
	path := "/v1/studentResult/student?StudentID=" + url.QueryEscape(studentID)
	return c.do(ctx, EndpointCGPA, http.MethodPost, path, token, nil)
}

func (c *Client) lookup(ctx context.Context, endpoint, path, token, field string) (string, error) {
	raw, err := c.do(ctx, endpoint, http.MethodGet, path, token, nil)
	if err != nil {
		return "", err
	}
	return ParseLookup(raw, field)
}

func (c *Client) do(ctx context.Context, endpoint, method, path, token string, body io.Reader) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.observe(endpoint, "transport_error", start)
		return nil, fmt.Errorf("records %s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.observe(endpoint, "transport_error", start)
		return nil, fmt.Errorf("records %s read body: %w", endpoint, err)
	}
	c.observe(endpoint, fmt.Sprintf("%dxx", resp.StatusCode/100), start)
	return raw, nil
}

func (c *Client) observe(endpoint, outcome string, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveUpstream(endpoint, outcome, time.Since(start))
}
