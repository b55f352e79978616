// Package plex talks to plex.tv (accounts, home users, resources) and to the
// Plex Media Server itself (library sections, episodes, scrobbles).
package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"time"

	"github.com/amaumene/watchsync/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL   = "https://plex.tv"
	productName      = "watchsync"
	productVersion   = "1.0"
	clientIdentifier = "watchsync-shoko-relay"
	sectionsCacheTTL = 10 * time.Minute
)

// HTTPDoer abstracts http.Client.Do for testing
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client handles communication with plex.tv and Plex Media Servers
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	sections   *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new Plex client
func NewClient(logger *logrus.Logger) *Client {
	return newClient(defaultBaseURL, &http.Client{Timeout: 30 * time.Second}, logger)
}

func newClient(baseURL string, httpClient HTTPDoer, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		sections:   gocache.New(sectionsCacheTTL, 2*sectionsCacheTTL),
		logger:     logger,
	}
}

// request describes a single Plex API call
type request struct {
	method string
	url    string
	token  string
	form   url.Values
	json   bool // decode a JSON response instead of XML
}

// doRequest performs a Plex API request and decodes the response into out
func (c *Client) doRequest(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}

	c.logger.WithFields(logrus.Fields{
		"method": r.method,
		"url":    redactURL(r.url),
	}).Debug("Making Plex API request")

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if r.json {
		req.Header.Set("Accept", "application/json")
	} else {
		req.Header.Set("Accept", "application/xml")
	}
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	applyStandardHeaders(req)
	if r.token != "" {
		req.Header.Set("X-Plex-Token", r.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.ConnectError{Service: models.ServicePlex, Target: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &models.AuthError{Service: models.ServicePlex}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("plex %s %s returned %d: %s", r.method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if r.json {
		err = json.NewDecoder(resp.Body).Decode(out)
	} else {
		err = xml.NewDecoder(resp.Body).Decode(out)
	}
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func applyStandardHeaders(req *http.Request) {
	req.Header.Set("X-Plex-Client-Identifier", clientIdentifier)
	req.Header.Set("X-Plex-Product", productName)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device-Name", productName)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
}

// redactURL strips tokens from URLs before they are logged
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("X-Plex-Token") {
		q.Set("X-Plex-Token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
