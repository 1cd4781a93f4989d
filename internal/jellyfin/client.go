package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jellysearch/jellysearch/internal/metrics"
)

const maxErrorBody = 512

// Client handles communication with the Jellyfin API. It is safe for
// concurrent use; connections are pooled by the underlying http.Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	service    Credentials
	logger     zerolog.Logger
}

// NewClient creates a new Jellyfin API client. serviceToken is optional and
// only used for calls made on the proxy's own behalf.
func NewClient(httpClient *http.Client, baseURL, serviceToken string, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		service:    ServiceCredentials(serviceToken),
		logger:     logger.With().Str("component", "jellyfin-client").Logger(),
	}
}

// Service returns the service token credentials, empty when none is configured.
func (c *Client) Service() Credentials {
	return c.service
}

func (c *Client) doRequest(ctx context.Context, op, path, rawQuery string, creds Credentials) ([]byte, error) {
	reqURL := c.baseURL + path
	if rawQuery != "" {
		reqURL += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	creds.Apply(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.OriginRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	metrics.OriginRequestsTotal.WithLabelValues(op, metrics.StatusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: snippet}
	}

	c.logger.Trace().Str("op", op).Str("path", path).Int("bytes", len(body)).Msg("Origin request completed")
	return body, nil
}

// GetUserViews returns the library views visible to a user.
func (c *Client) GetUserViews(ctx context.Context, creds Credentials, userID string) ([]View, error) {
	body, err := c.doRequest(ctx, "user views", "/Users/"+url.PathEscape(userID)+"/Views", "", creds)
	if err != nil {
		return nil, err
	}

	var envelope itemsEnvelope[View]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode user views: %w", err)
	}
	return envelope.Items, nil
}

// GetVirtualFolders returns every configured library.
func (c *Client) GetVirtualFolders(ctx context.Context, creds Credentials) ([]VirtualFolder, error) {
	body, err := c.doRequest(ctx, "virtual folders", "/Library/VirtualFolders", "", creds)
	if err != nil {
		return nil, err
	}

	var folders []VirtualFolder
	if err := json.Unmarshal(body, &folders); err != nil {
		return nil, fmt.Errorf("failed to decode virtual folders: %w", err)
	}
	return folders, nil
}

// GetItems queries the item listing endpoint, scoped to a user when userID
// is set, and returns the raw response body.
func (c *Client) GetItems(ctx context.Context, creds Credentials, userID string, query url.Values) ([]byte, error) {
	path := "/Items"
	if userID != "" {
		path = "/Users/" + url.PathEscape(userID) + "/Items"
	}
	return c.doRequest(ctx, "items", path, query.Encode(), creds)
}

// Forward replays a request path and raw query string verbatim.
func (c *Client) Forward(ctx context.Context, creds Credentials, path, rawQuery string) ([]byte, error) {
	return c.doRequest(ctx, "forward", path, rawQuery, creds)
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "ping", "/System/Info/Public", "", Credentials{})
	return err
}
