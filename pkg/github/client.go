// Package github wraps the go-github SDK with the issue comment operations
// prvoyager needs and converts API responses into flat, typed records.
package github

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST API.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds every API request.
	DefaultTimeout = 30 * time.Second
	// perPage is the GitHub API maximum page size.
	perPage = 100
)

// Client is a token-authenticated GitHub REST client.
type Client struct {
	inner      *github.Client
	token      string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a GitHub
// Enterprise Server "https://ghe.example.com/api/v3" or a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// with token authentication when a token is configured.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a GitHub client authenticated with token.
func NewClient(token string, opts ...Option) (*Client, error) {
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpClient
	if base == nil {
		base = &http.Client{}
	}
	hc := &http.Client{
		Transport:     base.Transport,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       c.timeout,
	}
	if c.token != "" {
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}),
			Base:   base.Transport,
		}
	}

	inner := github.NewClient(hc)
	apiURL, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", c.baseURL, err)
	}
	inner.BaseURL = apiURL
	c.inner = inner
	c.httpClient = hc

	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.inner.BaseURL.String()
}
