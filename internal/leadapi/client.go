// Package leadapi is the HTTP client for the lead-management API. All
// requests carry the session cookie and JSON bodies; a 401 surfaces as a
// recognizable APIError rather than a generic failure.
package leadapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"leadctl/internal/query"
)

// Client talks to one lead API deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *persistentJar // nil when using an in-memory jar
}

// New returns a client with an in-memory cookie jar. Sessions last for
// the lifetime of the process.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

// NewPersistent returns a client whose session cookies are mirrored to
// cookiePath, so consecutive CLI invocations stay logged in.
func NewPersistent(baseURL string, timeout time.Duration, cookiePath string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", baseURL, err)
	}
	jar, err := newPersistentJar(cookiePath, base)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		jar:        jar,
	}, nil
}

// BaseURL returns the API base URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Keep the cancellation cause so callers can tell
			// "superseded" apart from "network failed".
			return nil, context.Cause(ctx)
		}
		return nil, fmt.Errorf("lead API not reachable: %w", err)
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) put(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// decodeJSON consumes the response, turning non-2xx statuses into
// *APIError with the server's message when the body carried one.
func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	// Error bodies come as {"message": …} or {"error": {"message": …}}.
	var flat struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &flat) == nil {
		msg = flat.Message
		if msg == "" {
			msg = flat.Error.Message
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// Me probes the current session. A 401 means no session and comes back
// as an APIError recognized by IsUnauthenticated.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.get(ctx, "/api/auth/me")
	if err != nil {
		return nil, err
	}
	var env authEnvelope
	if err := decodeJSON(resp, &env); err != nil {
		return nil, err
	}
	if !env.Success || env.user() == nil {
		return nil, fmt.Errorf("no user data in session probe response")
	}
	return env.user(), nil
}

// Login authenticates with email and password. The session cookie is
// captured by the jar on success.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.post(ctx, "/api/auth/login", body)
	if err != nil {
		return nil, err
	}
	var env authEnvelope
	if err := decodeJSON(resp, &env); err != nil {
		return nil, err
	}
	if !env.Success || env.user() == nil {
		msg := env.Message
		if msg == "" {
			msg = "login failed"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return env.user(), nil
}

// Register creates an account. It does not log in; callers follow up
// with Login using the same credentials.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	resp, err := c.post(ctx, "/api/auth/register", req)
	if err != nil {
		return err
	}
	var env authEnvelope
	if err := decodeJSON(resp, &env); err != nil {
		return err
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "registration failed"
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// Logout tells the server to end the session and drops local cookies
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.get(ctx, "/api/auth/logout")
	if c.jar != nil {
		c.jar.clear()
	}
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}

// ListLeads fetches one page of leads for the given filters.
func (c *Client) ListLeads(ctx context.Context, f query.Filters, p query.Page) (*ListResult, error) {
	resp, err := c.get(ctx, "/leads?"+query.Encode(f, p).Encode())
	if err != nil {
		return nil, err
	}
	var result ListResult
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}
	if result.TotalPages < 1 {
		result.TotalPages = 1
	}
	return &result, nil
}

// GetLead fetches a single lead by id.
func (c *Client) GetLead(ctx context.Context, id string) (*Lead, error) {
	resp, err := c.get(ctx, "/leads/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var lead Lead
	if err := decodeJSON(resp, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// CreateLead creates a lead and returns the server's stored record.
func (c *Client) CreateLead(ctx context.Context, lead Lead) (*Lead, error) {
	lead.ID = ""
	resp, err := c.post(ctx, "/leads", lead)
	if err != nil {
		return nil, err
	}
	var created Lead
	if err := decodeJSON(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateLead replaces the lead with the given id.
func (c *Client) UpdateLead(ctx context.Context, id string, lead Lead) (*Lead, error) {
	resp, err := c.put(ctx, "/leads/"+url.PathEscape(id), lead)
	if err != nil {
		return nil, err
	}
	var updated Lead
	if err := decodeJSON(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteLead removes the lead with the given id.
func (c *Client) DeleteLead(ctx context.Context, id string) error {
	resp, err := c.delete(ctx, "/leads/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil)
}
