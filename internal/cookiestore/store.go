package cookiestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/storage"
)

// Cookie names that carry the session identity.
const (
	CookieSessionID = "sessionid"
	CookieAccountID = "ds_user_id"
	CookieCSRFToken = "csrftoken"
)

// DefaultBaseURL is the API root whose cookies define the session.
const DefaultBaseURL = "https://i.instagram.com/api/v1/"

const (
	keyPrefix     = "cookies/"
	recordVersion = 1
)

// record is the persisted form of a Store.
type record struct {
	Version  int       `json:"version"`
	Username string    `json:"username"`
	DeviceID string    `json:"device_id,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
	Cookies  []Cookie  `json:"cookies"`
}

// Option configures a Store.
type Option func(*Store)

// WithBaseURL sets the API root used to resolve identity cookies.
func WithBaseURL(u *url.URL) Option {
	return func(s *Store) {
		if u != nil {
			s.baseURL = u
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
		s.jar.now = now
	}
}

// Store is the cookie storage of one account.
//
// A Store belongs to exactly one Session; it is safe for concurrent use
// but it is not designed to be shared between sessions.
type Store struct {
	mu       sync.Mutex
	kv       storage.KVEngine
	key      []byte
	username string
	deviceID string
	jar      *Jar
	baseURL  *url.URL
	now      func() time.Time
}

// Open loads the cookies persisted for username, or starts empty.
func Open(ctx context.Context, kv storage.KVEngine, username string, opts ...Option) (*Store, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, domain.ErrMissingArgument.WithDetails("username")
	}
	if kv == nil {
		return nil, domain.ErrMissingArgument.WithDetails("kv engine")
	}

	base, _ := url.Parse(DefaultBaseURL)
	s := &Store{
		kv:       kv,
		key:      []byte(keyPrefix + username),
		username: username,
		jar:      NewJar(),
		baseURL:  base,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	raw, err := kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return s, nil
	case err != nil:
		return nil, domain.ErrStorage.WithDetails("load cookies").WithCause(err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, domain.ErrStorage.WithDetails("decode cookies for " + username).WithCause(err)
	}
	if rec.Version != recordVersion {
		return nil, domain.ErrStorage.WithDetails(fmt.Sprintf("unsupported cookie record version %d", rec.Version))
	}
	s.deviceID = rec.DeviceID
	s.jar.Restore(rec.Cookies)

	return s, nil
}

// Username returns the account the store belongs to.
func (s *Store) Username() string { return s.username }

// Jar returns the cookie jar to install on the HTTP client.
func (s *Store) Jar() http.CookieJar { return s.jar }

// Cookies returns every live cookie.
func (s *Store) Cookies() []Cookie { return s.jar.Export() }

// GetSessionID returns the "sessionid" cookie value.
// It fails with ErrCookieNotValid when the cookie is absent or expired.
func (s *Store) GetSessionID(ctx context.Context) (string, error) {
	return s.identityCookie(CookieSessionID)
}

// GetAccountID returns the "ds_user_id" cookie value.
// It fails with ErrCookieNotValid when the cookie is absent or expired.
func (s *Store) GetAccountID(ctx context.Context) (string, error) {
	return s.identityCookie(CookieAccountID)
}

// CSRFToken returns the "csrftoken" cookie value, if present.
func (s *Store) CSRFToken() (string, bool) {
	c, ok := s.jar.Lookup(s.baseURL, CookieCSRFToken)
	if !ok || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *Store) identityCookie(name string) (string, error) {
	c, ok := s.jar.Lookup(s.baseURL, name)
	if !ok || c.Value == "" {
		return "", domain.ErrCookieNotValid.WithDetails(name)
	}
	return c.Value, nil
}

// DeviceID returns the id of the device the cookies were issued to, or ""
// when the store has not been bound yet.
func (s *Store) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

// BindDevice records the device the cookies belong to. It fails with
// ErrDeviceMismatch when the store is already bound to another device.
func (s *Store) BindDevice(deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deviceID != "" && s.deviceID != deviceID {
		return domain.ErrDeviceMismatch.WithDetails(fmt.Sprintf("store bound to %s, session uses %s", s.deviceID, deviceID))
	}
	if s.deviceID != deviceID {
		s.deviceID = deviceID
		s.jar.markDirty()
	}
	return nil
}

// Save persists the jar if it changed since the last save.
func (s *Store) Save(ctx context.Context) error {
	if !s.jar.takeDirty() {
		return nil
	}
	return s.write(ctx)
}

func (s *Store) write(ctx context.Context) error {
	s.mu.Lock()
	rec := record{
		Version:  recordVersion,
		Username: s.username,
		DeviceID: s.deviceID,
		SavedAt:  s.now().UTC(),
		Cookies:  s.jar.Export(),
	}
	s.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		return domain.ErrStorage.WithDetails("encode cookies").WithCause(err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return domain.ErrStorage.WithDetails("save cookies").WithCause(err)
	}
	return nil
}

// Destroy wipes the cookies from memory and from the backing engine.
// The in-memory device binding is kept.
func (s *Store) Destroy(ctx context.Context) error {
	s.jar.Clear()
	s.jar.takeDirty()

	if err := s.kv.Delete(ctx, s.key); err != nil {
		return domain.ErrStorage.WithDetails("delete cookies").WithCause(err)
	}
	return nil
}

// List returns the usernames that have persisted cookies in kv.
func List(ctx context.Context, kv storage.KVEngine) ([]string, error) {
	var names []string
	err := kv.Scan(ctx, []byte(keyPrefix), func(key, _ []byte) bool {
		names = append(names, strings.TrimPrefix(string(key), keyPrefix))
		return true
	})
	if err != nil {
		return nil, domain.ErrStorage.WithDetails("list cookies").WithCause(err)
	}
	return names, nil
}
