// Package directory fetches snapshots from the remote directory service.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bucketbot/golink/internal/domain"
	"github.com/bucketbot/golink/internal/utils"
)

const (
	// DefaultTimeout bounds a fetch so resolution never hangs on the network
	// when a usable (even stale) cache exists.
	DefaultTimeout = 10 * time.Second

	linksPath = "/v1/go/links"
)

var (
	// ErrUnchanged signals that the directory has not changed since the
	// supplied version token and the cached snapshot can be reused as-is.
	ErrUnchanged = errors.New("directory unchanged")

	// ErrNetworkUnavailable covers unreachable hosts, refused connections
	// and upstream 5xx responses.
	ErrNetworkUnavailable = errors.New("directory service unreachable")

	// ErrTimeout is a fetch that exceeded its deadline.
	ErrTimeout = errors.New("directory fetch timed out")

	// ErrUnauthorized is an authentication failure against the service.
	ErrUnauthorized = errors.New("directory authentication failed - is the API token correct?")

	// ErrMalformedResponse is any response that deviates from the expected
	// schema. Partial parses are never kept.
	ErrMalformedResponse = errors.New("malformed directory response")
)

// Client queries the directory service over HTTPS with bearer auth.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Its timeout still applies.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// NewClient creates a directory client for the given base URL and API token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wire types for the /v1/go/links response

type linksResponse struct {
	Version string     `json:"version"`
	Links   []wireLink `json:"links"`
}

type wireLink struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Owner       string    `json:"owner"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fetch retrieves a fresh directory snapshot. When previousVersion is
// non-empty it is sent as If-None-Match; a 304 reply returns ErrUnchanged so
// the caller reuses its cached snapshot instead of re-parsing an identical
// payload. Duplicate shortcuts are resolved latest-wins and reported back as
// collisions for the caller to log.
func (c *Client) Fetch(ctx context.Context, previousVersion string) (*domain.DirectorySnapshot, []domain.Collision, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+linksPath, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if previousVersion != "" {
		req.Header.Set("If-None-Match", previousVersion)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, classifyTransportError(err)
	}
	defer utils.Close(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, nil, ErrUnchanged
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil, ErrUnauthorized
	case resp.StatusCode >= 500:
		return nil, nil, fmt.Errorf("%w: upstream returned %d", ErrNetworkUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, nil, fmt.Errorf("%w: unexpected status %d", ErrMalformedResponse, resp.StatusCode)
	}

	var body linksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	entries := make([]domain.LinkEntry, 0, len(body.Links))
	for _, link := range body.Links {
		if link.Name == "" {
			return nil, nil, fmt.Errorf("%w: entry with empty name", ErrMalformedResponse)
		}
		if err := domain.ValidateTarget(link.URL); err != nil {
			return nil, nil, fmt.Errorf("%w: entry %q: %v", ErrMalformedResponse, link.Name, err)
		}
		entries = append(entries, domain.LinkEntry{
			Shortcut:    link.Name,
			Target:      link.URL,
			Owner:       link.Owner,
			Description: link.Description,
			UpdatedAt:   link.UpdatedAt,
		})
	}

	version := body.Version
	if version == "" {
		// No version token means the optimization is best-effort only:
		// fall back to ETag, or to unconditional refetch next time.
		version = strings.Trim(resp.Header.Get("ETag"), `"`)
	}

	snapshot, collisions := domain.NewSnapshot(entries, time.Now(), version)
	return snapshot, collisions, nil
}

// classifyTransportError maps transport failures onto the fetch error kinds.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
}
