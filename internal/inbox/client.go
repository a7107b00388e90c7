package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/mobsession-go/internal/core/domain"
)

// Config configures a gateway client.
type Config struct {
	// BaseURL is the gateway root. A missing scheme defaults to http.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// Timeout bounds one call. Default: 15s.
	Timeout time.Duration
}

// httpClient performs authenticated JSON calls against a gateway.
type httpClient struct {
	baseURL  string
	client   *http.Client
	token    string
	username string
	password string
}

func newHTTPClient(cfg Config) (*httpClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, domain.ErrMissingArgument.WithDetails("inbox base url")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &httpClient{
		baseURL: baseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// get fetches path and decodes the JSON answer into target. A 404 answer
// becomes notFound, or ErrSideChannelUnavailable when notFound is nil.
func (c *httpClient) get(ctx context.Context, path string, target any, notFound *domain.DomainError) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ErrSideChannelUnavailable.WithDetails(c.baseURL).WithCause(err)
	}
	return parseResponse(resp, target, notFound)
}

// addHeaders adds authentication and common headers.
func (c *httpClient) addHeaders(req *http.Request) {
	switch {
	case c.username != "":
		req.SetBasicAuth(c.username, c.password)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "mobsession-inbox/1.0")
}

// parseResponse decodes a gateway answer into target.
func parseResponse(resp *http.Response, target any, notFound *domain.DomainError) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg += ": " + errResp.Error
		}
		if resp.StatusCode == http.StatusNotFound && notFound != nil {
			return notFound.WithDetails(msg)
		}
		return domain.ErrSideChannelUnavailable.WithDetails(msg)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return domain.ErrSideChannelUnavailable.WithDetails("parse response").WithCause(err)
		}
	}
	return nil
}
