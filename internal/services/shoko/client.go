package shoko

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/amaumene/watchsync/internal/config"
	"github.com/amaumene/watchsync/internal/models"
	"github.com/sirupsen/logrus"
)

// Client handles communication with the Shoko Server API
type Client struct {
	baseURL    string
	username   string
	password   string
	device     string
	httpClient *http.Client
	logger     *logrus.Logger

	mu     sync.RWMutex
	apiKey string
}

// NewClient creates a new Shoko API client
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.ShokoURL(), "/"),
		username:   cfg.ShokoUsername,
		password:   cfg.ShokoPassword,
		device:     cfg.ShokoDevice,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Authenticate requests an API key with the configured credentials. It must
// be called before any other request.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	body := map[string]string{
		"user":   c.username,
		"pass":   c.password,
		"device": c.device,
	}

	var resp struct {
		APIKey string `json:"apikey"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth", body, &resp); err != nil {
		return "", err
	}
	if resp.APIKey == "" {
		return "", &models.AuthError{Service: models.ServiceShoko, Err: fmt.Errorf("no API key in response")}
	}

	c.mu.Lock()
	c.apiKey = resp.APIKey
	c.mu.Unlock()

	c.logger.Debug("Shoko API key acquired")
	return resp.APIKey, nil
}

func (c *Client) currentAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// doRequest performs an HTTP request to the Shoko API
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	fullURL := c.baseURL + path
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    fullURL,
	}).Debug("Making Shoko API request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := c.currentAPIKey(); key != "" {
		req.Header.Set("apikey", key)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.ConnectError{Service: models.ServiceShoko, Target: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || (path == "/api/auth" && resp.StatusCode == http.StatusBadRequest) {
		return &models.AuthError{Service: models.ServiceShoko}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("shoko %s %s returned status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
