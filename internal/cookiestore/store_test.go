package cookiestore

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/storage"
)

func loginCookies() []*http.Cookie {
	return []*http.Cookie{
		{Name: CookieSessionID, Value: "sess-1", Domain: ".instagram.com", Path: "/"},
		{Name: CookieAccountID, Value: "1234", Domain: ".instagram.com", Path: "/"},
		{Name: CookieCSRFToken, Value: "csrf-1", Domain: ".instagram.com", Path: "/"},
	}
}

func TestStore_EmptyIsNotValid(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, storage.NewMemoryEngine(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.GetSessionID(ctx); !errors.Is(err, domain.ErrCookieNotValid) {
		t.Errorf("GetSessionID() error = %v, want ErrCookieNotValid", err)
	}
	if _, err := s.GetAccountID(ctx); !errors.Is(err, domain.ErrCookieNotValid) {
		t.Errorf("GetAccountID() error = %v, want ErrCookieNotValid", err)
	}
	if _, ok := s.CSRFToken(); ok {
		t.Error("CSRFToken() should be absent")
	}
}

func TestStore_SaveAndReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryEngine()

	s1, err := Open(ctx, kv, "Alice")
	if err != nil {
		t.Fatal(err)
	}
	if err := s1.BindDevice("android-0123456789abcdef"); err != nil {
		t.Fatal(err)
	}
	s1.Jar().SetCookies(s1.baseURL, loginCookies())
	if err := s1.Save(ctx); err != nil {
		t.Fatal(err)
	}

	s2, err := Open(ctx, kv, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if id, err := s2.GetSessionID(ctx); err != nil || id != "sess-1" {
		t.Errorf("GetSessionID() = %q, %v", id, err)
	}
	if id, err := s2.GetAccountID(ctx); err != nil || id != "1234" {
		t.Errorf("GetAccountID() = %q, %v", id, err)
	}
	if tok, ok := s2.CSRFToken(); !ok || tok != "csrf-1" {
		t.Errorf("CSRFToken() = %q, %v", tok, ok)
	}
	if s2.DeviceID() != "android-0123456789abcdef" {
		t.Errorf("DeviceID() = %q", s2.DeviceID())
	}

	names, err := List(ctx, kv)
	if err != nil || len(names) != 1 || names[0] != "alice" {
		t.Errorf("List() = %v, %v", names, err)
	}
}

func TestStore_SaveSkipsCleanJar(t *testing.T) {
	ctx := context.Background()
	kv := &countingKV{KVEngine: storage.NewMemoryEngine()}

	s, _ := Open(ctx, kv, "alice")
	if err := s.Save(ctx); err != nil {
		t.Fatal(err)
	}
	if kv.sets != 0 {
		t.Errorf("Save() on clean jar wrote %d times", kv.sets)
	}

	s.Jar().SetCookies(s.baseURL, loginCookies())
	_ = s.Save(ctx)
	_ = s.Save(ctx)
	if kv.sets != 1 {
		t.Errorf("Save() wrote %d times, want 1", kv.sets)
	}
}

func TestStore_ExpiredSession(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s, _ := Open(ctx, storage.NewMemoryEngine(), "alice", WithClock(func() time.Time { return now }))

	s.Jar().SetCookies(s.baseURL, []*http.Cookie{
		{Name: CookieSessionID, Value: "sess-1", Domain: ".instagram.com", Path: "/", Expires: now.Add(time.Hour)},
		{Name: CookieAccountID, Value: "1234", Domain: ".instagram.com", Path: "/"},
	})
	if _, err := s.GetSessionID(ctx); err != nil {
		t.Fatalf("GetSessionID() error = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.GetSessionID(ctx); !errors.Is(err, domain.ErrCookieNotValid) {
		t.Errorf("GetSessionID() after expiry error = %v, want ErrCookieNotValid", err)
	}
}

func TestStore_BindDevice(t *testing.T) {
	s, _ := Open(context.Background(), storage.NewMemoryEngine(), "alice")

	if err := s.BindDevice("android-a"); err != nil {
		t.Fatal(err)
	}
	if err := s.BindDevice("android-a"); err != nil {
		t.Errorf("rebinding same device error = %v", err)
	}
	if err := s.BindDevice("android-b"); !errors.Is(err, domain.ErrDeviceMismatch) {
		t.Errorf("BindDevice(other) error = %v, want ErrDeviceMismatch", err)
	}
}

func TestStore_Destroy(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryEngine()
	s, _ := Open(ctx, kv, "alice")
	s.Jar().SetCookies(s.baseURL, loginCookies())
	_ = s.Save(ctx)

	if err := s.Destroy(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetSessionID(ctx); !errors.Is(err, domain.ErrCookieNotValid) {
		t.Errorf("GetSessionID() after destroy error = %v", err)
	}
	if _, err := kv.Get(ctx, []byte("cookies/alice")); !errors.Is(err, storage.ErrKeyNotFound) {
		t.Errorf("persisted record should be gone, got %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryEngine()

	if _, err := Open(ctx, kv, " "); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Open(blank) error = %v", err)
	}
	if _, err := Open(ctx, nil, "alice"); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Open(nil kv) error = %v", err)
	}

	_ = kv.Set(ctx, []byte("cookies/bob"), []byte("{not json"))
	if _, err := Open(ctx, kv, "bob"); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Open(corrupt) error = %v, want ErrStorage", err)
	}

	_ = kv.Set(ctx, []byte("cookies/carol"), []byte(`{"version":99}`))
	if _, err := Open(ctx, kv, "carol"); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Open(future version) error = %v, want ErrStorage", err)
	}

	failing := &countingKV{KVEngine: kv, getErr: errors.New("disk on fire")}
	if _, err := Open(ctx, failing, "alice"); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Open(failing kv) error = %v, want ErrStorage", err)
	}
}

// countingKV wraps an engine and counts writes.
type countingKV struct {
	storage.KVEngine
	sets   int
	getErr error
}

func (c *countingKV) Get(ctx context.Context, key []byte) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.KVEngine.Get(ctx, key)
}

func (c *countingKV) Set(ctx context.Context, key, value []byte) error {
	c.sets++
	return c.KVEngine.Set(ctx, key, value)
}
