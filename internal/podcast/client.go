package podcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"podscribe/internal/config"
)

const (
	defaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0"
	defaultGatewayURL  = "https://spotifeed.timdorr.com"
	defaultSearchURL   = "https://itunes.apple.com/search"
	defaultHTTPTimeout = 30 * time.Second
)

var (
	episodeURLPattern = regexp.MustCompile(`/episode/([a-zA-Z0-9]+)`)
	showURLPattern    = regexp.MustCompile(`open\.spotify\.com/show/([a-zA-Z0-9]+)`)
	showURIPattern    = regexp.MustCompile(`spotify:show:([a-zA-Z0-9]+)`)
)

// Client fetches episode pages, show feeds, and audio enclosures.
type Client struct {
	httpClient *http.Client
	userAgent  string
	gatewayURL string
	searchURL  string
}

// Option customizes the podcast client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent overrides the browser identity sent with every request.
// Episode pages serve a stripped-down document to unknown agents.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		agent = strings.TrimSpace(agent)
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// WithGatewayURL overrides the show-id RSS gateway base URL.
func WithGatewayURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.gatewayURL = strings.TrimRight(base, "/")
		}
	}
}

// WithSearchURL overrides the podcast directory search endpoint.
func WithSearchURL(endpoint string) Option {
	return func(c *Client) {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" {
			c.searchURL = endpoint
		}
	}
}

// NewClient constructs a podcast client with default endpoints.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:  defaultUserAgent,
		gatewayURL: defaultGatewayURL,
		searchURL:  defaultSearchURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// NewConfiguredClient constructs a client from the metadata tool settings.
func NewConfiguredClient(cfg *config.Config, opts ...Option) *Client {
	timeout := time.Duration(cfg.Metadata.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithUserAgent(cfg.Metadata.UserAgent),
		WithGatewayURL(cfg.Metadata.RSSGatewayURL),
		WithSearchURL(cfg.Metadata.ITunesSearchURL),
	}
	return NewClient(append(base, opts...)...)
}

// EpisodeID extracts the episode identifier from an episode page URL.
func EpisodeID(rawURL string) (string, error) {
	if m := episodeURLPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("no episode id in %q", rawURL)
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
