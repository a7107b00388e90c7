package service

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"testing"

	"github.com/yndnr/mobsession-go/internal/cookiestore"
	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/storage"
	"github.com/yndnr/mobsession-go/internal/transport"
)

var loginSequence = []string{
	transport.ResourceLogin,
	transport.ResourceQESync,
	transport.ResourceAutocompleteUserList,
	transport.ResourceTimelineFeed,
	transport.ResourceRecentRecipients,
	transport.ResourceInbox,
	transport.ResourceMegaphoneLog,
}

// fakeDoer records requests and answers them from per-resource handlers.
type fakeDoer struct {
	mu       sync.Mutex
	calls    []*transport.Request
	handlers map[string]func(*transport.Request) error
	proxy    string
}

func newFakeDoer() *fakeDoer {
	return &fakeDoer{handlers: make(map[string]func(*transport.Request) error)}
}

func (f *fakeDoer) on(resource string, h func(*transport.Request) error) *fakeDoer {
	f.handlers[resource] = h
	return f
}

func (f *fakeDoer) fail(resource string, err error) *fakeDoer {
	return f.on(resource, func(*transport.Request) error { return err })
}

func (f *fakeDoer) Do(_ context.Context, req *transport.Request, _ any) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	h := f.handlers[req.Resource()]
	f.mu.Unlock()
	if h != nil {
		return h(req)
	}
	return nil
}

func (f *fakeDoer) SetProxy(raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.proxy = raw
	return nil
}

func (f *fakeDoer) resources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Resource()
	}
	return out
}

func (f *fakeDoer) count(resource string) int {
	return len(slices.DeleteFunc(f.resources(), func(r string) bool { return r != resource }))
}

type testEnv struct {
	device *domain.Device
	kv     *storage.MemoryEngine
	store  *cookiestore.Store
	doer   *fakeDoer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	device, err := domain.NewDevice("alice")
	if err != nil {
		t.Fatalf("NewDevice: %v", err)
	}
	kv := storage.NewMemoryEngine()
	store, err := cookiestore.Open(context.Background(), kv, "alice")
	if err != nil {
		t.Fatalf("cookiestore.Open: %v", err)
	}
	return &testEnv{device: device, kv: kv, store: store, doer: newFakeDoer()}
}

func (e *testEnv) session(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(e.device, e.store, append([]Option{WithDoer(e.doer)}, opts...)...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

// issueCookies plays the platform setting the identity cookies.
func (e *testEnv) issueCookies() {
	u, _ := url.Parse(cookiestore.DefaultBaseURL)
	e.store.Jar().SetCookies(u, []*http.Cookie{
		{Name: cookiestore.CookieSessionID, Value: "sess-1", Domain: ".instagram.com", Path: "/"},
		{Name: cookiestore.CookieAccountID, Value: "42", Domain: ".instagram.com", Path: "/"},
		{Name: cookiestore.CookieCSRFToken, Value: "csrf-1", Domain: ".instagram.com", Path: "/"},
	})
}

func (e *testEnv) issueCookiesOnLogin() {
	e.doer.on(transport.ResourceLogin, func(*transport.Request) error {
		e.issueCookies()
		return nil
	})
}

func (e *testEnv) persisted(t *testing.T) bool {
	t.Helper()
	_, err := e.kv.Get(context.Background(), []byte("cookies/alice"))
	return err == nil
}
