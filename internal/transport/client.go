package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
)

// DefaultBaseURL is the API root of the platform.
const DefaultBaseURL = "https://i.instagram.com/api/v1/"

const maxResponseBytes = 8 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the API root. Default: DefaultBaseURL.
	BaseURL string
	// Timeout bounds one exchange. Default: 30s.
	Timeout time.Duration
	// RateLimit is the sustained requests per second; 0 disables throttling.
	RateLimit float64
	// RateBurst is the limiter burst. Default: 1.
	RateBurst int
	// SignatureKey and SignatureVersion parameterize payload signing.
	SignatureKey     string
	SignatureVersion string
	// TLS overrides the TLS client configuration (custom roots).
	TLS *tls.Config
	// Proxy is the initial proxy URL; "" means direct.
	Proxy string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   30 * time.Second,
		RateLimit: 2,
		RateBurst: 3,
	}
}

// Observer receives one call per completed exchange.
type Observer interface {
	ObserveRequest(resource string, err error, elapsed time.Duration)
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports every exchange to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithCSRFToken supplies the token echoed in the X-CSRFToken header.
func WithCSRFToken(fn func() string) Option {
	return func(c *Client) { c.csrf = fn }
}

// Client executes platform requests on behalf of one session.
type Client struct {
	base      *url.URL
	userAgent string
	http      *http.Client
	transport *http.Transport
	proxy     atomic.Pointer[url.URL]
	limiter   *rate.Limiter
	signer    Signer
	observer  Observer
	csrf      func() string
}

// NewClient creates a client that stores cookies in jar and identifies as device.
func NewClient(cfg Config, jar http.CookieJar, device *domain.Device, opts ...Option) (*Client, error) {
	if device == nil {
		return nil, domain.ErrMissingArgument.WithDetails("device")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("base url " + cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		base:      base,
		userAgent: device.UserAgent(),
		signer:    NewSigner(cfg.SignatureKey, cfg.SignatureVersion),
		limiter:   rate.NewLimiter(rate.Inf, 0),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	c.transport = &http.Transport{
		Proxy: c.proxyFunc,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       cfg.TLS,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	c.http = &http.Client{
		Transport: c.transport,
		Jar:       jar,
		Timeout:   cfg.Timeout,
	}

	if err := c.SetProxy(cfg.Proxy); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) proxyFunc(*http.Request) (*url.URL, error) {
	return c.proxy.Load(), nil
}

// SetProxy validates raw and routes subsequent requests through it.
// On error the previous proxy stays in effect.
func (c *Client) SetProxy(raw string) error {
	if err := domain.ValidateProxyURL(raw); err != nil {
		return err
	}
	var next *url.URL
	if raw != "" {
		next, _ = url.Parse(raw)
	}
	prev := c.proxy.Swap(next)
	if urlString(prev) != urlString(next) {
		c.transport.CloseIdleConnections()
	}
	return nil
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}

// ProxyURL returns the active proxy URL, or "".
func (c *Client) ProxyURL() string {
	return urlString(c.proxy.Load())
}

// BaseURL returns a copy of the API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Close releases idle connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// Do executes req and decodes a successful JSON answer into out (which may be nil).
func (c *Client) Do(ctx context.Context, req *Request, out any) (err error) {
	start := time.Now()
	ctx = logger.WithRequestID(ctx, uuid.NewString())
	defer func() {
		elapsed := time.Since(start)
		if c.observer != nil {
			c.observer.ObserveRequest(req.Resource(), err, elapsed)
		}
		log := logger.L(ctx).With("resource", req.Resource(), "elapsed", elapsed)
		if err != nil {
			log.Debug("platform request failed", "error", err)
		} else {
			log.Debug("platform request ok")
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ErrTransport.WithDetails("rate limiter").WithCause(err)
	}

	httpReq, err := c.build(ctx, req)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.ErrTransport.WithDetails(req.Resource()).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.ErrTransport.WithDetails("read body").WithCause(err)
	}

	return decodeResponse(resp.StatusCode, body, out)
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	target, err := req.resolve(c.base)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	payload := req.Payload()
	if req.Method() != http.MethodGet && (len(payload) > 0 || req.Signed()) {
		form, err := c.encodeForm(req, payload)
		if err != nil {
			return nil, err
		}
		body = strings.NewReader(form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(httpReq)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	return httpReq, nil
}

func (c *Client) encodeForm(req *Request, payload map[string]any) (url.Values, error) {
	if req.Signed() {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, domain.ErrInvalidArgument.WithDetails("payload").WithCause(err)
		}
		return c.signer.Sign(raw), nil
	}

	form := url.Values{}
	for k, v := range payload {
		switch tv := v.(type) {
		case string:
			form.Set(k, tv)
		case []byte:
			form.Set(k, string(tv))
		case fmt.Stringer:
			form.Set(k, tv.String())
		default:
			raw, err := json.Marshal(tv)
			if err != nil {
				return nil, domain.ErrInvalidArgument.WithDetails("field " + k).WithCause(err)
			}
			form.Set(k, string(bytes.Trim(raw, `"`)))
		}
	}
	return form, nil
}

// addHeaders adds the headers the mobile application sends.
func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US")
	req.Header.Set("X-IG-Connection-Type", "WIFI")
	req.Header.Set("X-IG-Capabilities", "3QI=")
	if c.csrf != nil {
		if tok := c.csrf(); tok != "" {
			req.Header.Set("X-CSRFToken", tok)
		}
	}
}
