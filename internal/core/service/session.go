package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/telemetry/logger"
	"github.com/yndnr/mobsession-go/internal/telemetry/metric"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// MissingCSRFToken is reported by CSRFToken when the jar holds no token.
const MissingCSRFToken = "missing"

// CookieStore is the cookie storage owned by one Session.
type CookieStore interface {
	// GetSessionID returns the session cookie, or ErrCookieNotValid.
	GetSessionID(ctx context.Context) (string, error)

	// GetAccountID returns the account cookie, or ErrCookieNotValid.
	GetAccountID(ctx context.Context) (string, error)

	// CSRFToken returns the csrf cookie, if present.
	CSRFToken() (string, bool)

	// Jar returns the jar the HTTP client reads and writes.
	Jar() http.CookieJar

	// BindDevice records the device the cookies belong to, failing with
	// ErrDeviceMismatch for another device.
	BindDevice(deviceID string) error

	// Save flushes pending changes to the backend.
	Save(ctx context.Context) error

	// Destroy wipes the cookies locally and in the backend.
	Destroy(ctx context.Context) error
}

// Doer executes one platform request.
type Doer interface {
	Do(ctx context.Context, req *transport.Request, out any) error
}

// proxySetter is implemented by doers that route through a proxy.
type proxySetter interface {
	SetProxy(raw string) error
}

// AccountLookup resolves an account id to the account profile.
type AccountLookup interface {
	GetAccountByID(ctx context.Context, s *Session, id string) (*domain.Account, error)
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	proxy   string
	doer    Doer
	client  transport.Config
	logger  logger.Logger
	metrics *metric.Registry
}

// WithProxy sets the initial proxy URL. "" means direct.
func WithProxy(raw string) Option {
	return func(o *sessionOptions) { o.proxy = raw }
}

// WithDoer replaces the HTTP transport, mainly for tests.
func WithDoer(d Doer) Option {
	return func(o *sessionOptions) { o.doer = d }
}

// WithClientConfig configures the HTTP transport built by NewSession.
func WithClientConfig(cfg transport.Config) Option {
	return func(o *sessionOptions) { o.client = cfg }
}

// WithLogger sets the logger used by the session flows.
func WithLogger(l logger.Logger) Option {
	return func(o *sessionOptions) { o.logger = l }
}

// WithMetrics reports requests, logins and challenges to reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(o *sessionOptions) { o.metrics = reg }
}

// Session is an authenticated (or authenticating) identity on the platform:
// one device, one cookie store and an optional proxy.
type Session struct {
	device  *domain.Device
	store   CookieStore
	doer    Doer
	client  *transport.Client
	log     logger.Logger
	metrics *metric.Registry

	mu    sync.RWMutex
	proxy string

	destroyed atomic.Bool
}

// NewSession binds device and store into a Session.
//
// It fails with ErrDeviceMismatch when store holds cookies issued to a
// different device, and with ErrInvalidProxyURL for a malformed proxy.
func NewSession(device *domain.Device, store CookieStore, opts ...Option) (*Session, error) {
	// 1. Validate collaborators
	if device == nil {
		return nil, domain.ErrMissingArgument.WithDetails("device")
	}
	if store == nil {
		return nil, domain.ErrMissingArgument.WithDetails("cookie store")
	}

	o := sessionOptions{client: transport.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	// 2. Validate proxy before anything is bound
	if err := domain.ValidateProxyURL(o.proxy); err != nil {
		return nil, err
	}

	// 3. Check device consistency
	if err := store.BindDevice(device.ID()); err != nil {
		return nil, err
	}

	s := &Session{
		device:  device,
		store:   store,
		doer:    o.doer,
		log:     o.logger,
		metrics: o.metrics,
		proxy:   o.proxy,
	}

	// 4. Build the transport unless one was supplied
	if s.doer == nil {
		cfg := o.client
		cfg.Proxy = o.proxy
		copts := []transport.Option{transport.WithCSRFToken(s.csrfHeader)}
		if o.metrics != nil {
			copts = append(copts, transport.WithObserver(o.metrics))
		}
		client, err := transport.NewClient(cfg, store.Jar(), device, copts...)
		if err != nil {
			return nil, err
		}
		s.client = client
		s.doer = client
	} else if ps, ok := s.doer.(proxySetter); ok && o.proxy != "" {
		if err := ps.SetProxy(o.proxy); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Device returns the device profile of the session.
func (s *Session) Device() *domain.Device { return s.device }

// CookieStore returns the store owning the session cookies.
func (s *Session) CookieStore() CookieStore { return s.store }

// ProxyURL returns the proxy URL, or "" when requests go direct.
func (s *Session) ProxyURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proxy
}

// SetProxy changes the proxy. A malformed URL fails with
// ErrInvalidProxyURL and the previous value stays in effect.
func (s *Session) SetProxy(raw string) error {
	if err := domain.ValidateProxyURL(raw); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ps, ok := s.doer.(proxySetter); ok {
		if err := ps.SetProxy(raw); err != nil {
			return err
		}
	}
	s.proxy = raw
	return nil
}

// CSRFToken returns the csrf cookie value, or MissingCSRFToken.
func (s *Session) CSRFToken() string {
	if tok, ok := s.store.CSRFToken(); ok {
		return tok
	}
	return MissingCSRFToken
}

func (s *Session) csrfHeader() string {
	tok, _ := s.store.CSRFToken()
	return tok
}

// GetAccountID returns the account id of the stored session.
//
// It checks the session cookie, then the account cookie, and fails with
// ErrCookieNotValid when either is absent or expired. No request is made.
func (s *Session) GetAccountID(ctx context.Context) (string, error) {
	if err := s.alive(); err != nil {
		return "", err
	}
	if _, err := s.store.GetSessionID(ctx); err != nil {
		return "", err
	}
	return s.store.GetAccountID(ctx)
}

// GetAccount resolves the account id and looks up its profile.
func (s *Session) GetAccount(ctx context.Context, lookup AccountLookup) (*domain.Account, error) {
	if lookup == nil {
		return nil, domain.ErrMissingArgument.WithDetails("account lookup")
	}
	id, err := s.GetAccountID(ctx)
	if err != nil {
		return nil, err
	}
	return lookup.GetAccountByID(ctx, s, id)
}

// Do executes req with the session cookies and identity.
func (s *Session) Do(ctx context.Context, req *transport.Request, out any) error {
	if err := s.alive(); err != nil {
		return err
	}
	return s.doer.Do(s.context(ctx), req, out)
}

// Save flushes the cookie store.
func (s *Session) Save(ctx context.Context) error {
	if err := s.alive(); err != nil {
		return err
	}
	return s.store.Save(ctx)
}

// Destroy logs out and wipes the cookie store.
//
// The store is invalidated even when the logout request fails; the
// returned error then carries the logout failure. Every later call on the
// session fails with ErrSessionDestroyed.
func (s *Session) Destroy(ctx context.Context) error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return domain.ErrSessionDestroyed
	}
	ctx = s.context(ctx)

	logoutErr := s.doer.Do(ctx, transport.Post(transport.ResourceLogout).GenerateUUID(), nil)
	if logoutErr != nil {
		logger.L(ctx).Warn("logout request failed", "error", logoutErr)
	}

	storeErr := s.store.Destroy(ctx)
	if s.client != nil {
		s.client.Close()
	}

	logger.L(ctx).Info("session destroyed")
	return errors.Join(logoutErr, storeErr)
}

// Destroyed reports whether Destroy has been called.
func (s *Session) Destroyed() bool { return s.destroyed.Load() }

func (s *Session) alive() error {
	if s.destroyed.Load() {
		return domain.ErrSessionDestroyed
	}
	return nil
}

// context scopes ctx to this session's device and attaches the session
// logger, if one was configured.
func (s *Session) context(ctx context.Context) context.Context {
	if u, _ := logger.SessionFromContext(ctx); u == "" {
		ctx = logger.WithSession(ctx, s.device.Username(), s.device.ID())
	}
	if s.log == nil {
		return ctx
	}
	return logger.WithLogger(ctx, s.log)
}

// persist flushes the cookie store and logs a failure.
func (s *Session) persist(ctx context.Context) {
	if err := s.store.Save(ctx); err != nil {
		logger.L(ctx).Warn("failed to persist cookies", "error", err)
	}
}
