package vercel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.vercel.com"

// Config holds Vercel API credentials.
// Embed it in the application config for env parsing with caarlos0/env.
type Config struct {
	Token     string        `env:"VERCEL_TOKEN"`
	ProjectID string        `env:"VERCEL_PROJECT_ID"`
	TeamID    string        `env:"VERCEL_TEAM_ID"`
	BaseURL   string        `env:"VERCEL_API_URL" envDefault:"https://api.vercel.com"`
	Timeout   time.Duration `env:"VERCEL_TIMEOUT" envDefault:"10s"`
}

// Configured reports whether both token and project are set.
func (c Config) Configured() bool {
	return c.Token != "" && c.ProjectID != ""
}

// Client manages the domains of one Vercel project.
type Client struct {
	http *http.Client
	cfg  Config
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a Client. A Client with missing credentials is valid; every
// call on it returns ErrNotConfigured.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Attach adds domain to the project.
func (c *Client) Attach(ctx context.Context, domain string) error {
	if err := c.check(domain); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"name": domain})
	if err != nil {
		return errors.Join(ErrRequestFailed, err)
	}

	endpoint := c.endpoint("/v10/projects/" + url.PathEscape(c.cfg.ProjectID) + "/domains")
	resp, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := readAPIError(resp)
	if resp.StatusCode == http.StatusConflict || apiErr.Code == "domain_already_in_use" {
		return nil
	}
	return errors.Join(ErrRequestFailed, apiErr)
}

// Detach removes domain from the project.
func (c *Client) Detach(ctx context.Context, domain string) error {
	if err := c.check(domain); err != nil {
		return err
	}

	endpoint := c.endpoint("/v9/projects/" + url.PathEscape(c.cfg.ProjectID) + "/domains/" + url.PathEscape(domain))
	resp, err := c.do(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if (resp.StatusCode >= 200 && resp.StatusCode < 300) || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return errors.Join(ErrRequestFailed, readAPIError(resp))
}

func (c *Client) check(domain string) error {
	if !c.cfg.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(domain) == "" {
		return ErrInvalidDomain
	}
	return nil
}

func (c *Client) endpoint(path string) string {
	u := strings.TrimSuffix(c.cfg.BaseURL, "/") + path
	if c.cfg.TeamID != "" {
		u += "?teamId=" + url.QueryEscape(c.cfg.TeamID)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, r)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, fmt.Errorf("%s %s: %w", method, req.URL.Path, err))
	}
	return resp, nil
}

func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body apiErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	return apiErr
}
