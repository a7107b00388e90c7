package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/yndnr/mobsession-go/internal/cookiestore"
	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/storage"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// recorded is one request seen by the fake platform.
type recorded struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
}

type fakePlatform struct {
	mu       sync.Mutex
	requests []recorded
	server   *httptest.Server
}

func newFakePlatform(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakePlatform {
	t.Helper()
	p := &fakePlatform{}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		p.mu.Lock()
		p.requests = append(p.requests, recorded{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/api/v1"),
			Query:  r.URL.Query(),
			Form:   r.PostForm,
		})
		p.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePlatform) recorded() []recorded {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recorded(nil), p.requests...)
}

func (p *fakePlatform) baseURL() string { return p.server.URL + "/api/v1/" }

func (p *fakePlatform) clientConfig() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.BaseURL = p.baseURL()
	cfg.RateLimit = 0
	return cfg
}

// store returns a cookie store keyed to the fake platform, holding
// identity cookies when loggedIn is set.
func (p *fakePlatform) store(t *testing.T, loggedIn bool) *cookiestore.Store {
	t.Helper()
	base, _ := url.Parse(p.baseURL())
	store, err := cookiestore.Open(context.Background(), storage.NewMemoryEngine(), "alice", cookiestore.WithBaseURL(base))
	if err != nil {
		t.Fatal(err)
	}
	if loggedIn {
		store.Jar().SetCookies(base, []*http.Cookie{
			{Name: cookiestore.CookieSessionID, Value: "sess", Path: "/"},
			{Name: cookiestore.CookieAccountID, Value: "42", Path: "/"},
			{Name: cookiestore.CookieCSRFToken, Value: "csrf", Path: "/"},
		})
	}
	return store
}

func (p *fakePlatform) session(t *testing.T, loggedIn bool) *service.Session {
	t.Helper()
	device, _ := domain.NewDevice("alice")
	s, err := service.NewSession(device, p.store(t, loggedIn), service.WithClientConfig(p.clientConfig()))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestAccounts_GetAccountByID(t *testing.T) {
	p := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","user":{"pk":42,"username":"alice","full_name":"Alice","media_count":7}}`))
	})
	s := p.session(t, true)

	acc, err := s.GetAccount(context.Background(), Accounts{})
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if acc.ID != "42" || acc.Username != "alice" || acc.MediaCount != 7 {
		t.Errorf("account = %+v", acc)
	}
	if reqs := p.recorded(); len(reqs) != 1 || reqs[0].Path != "/users/42/info/" {
		t.Errorf("requests = %+v", reqs)
	}
}

func TestAccounts_NotLoggedIn(t *testing.T) {
	p := newFakePlatform(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	s := p.session(t, false)

	if _, err := s.GetAccount(context.Background(), Accounts{}); !errors.Is(err, domain.ErrCookieNotValid) {
		t.Errorf("GetAccount() error = %v, want ErrCookieNotValid", err)
	}
	if _, err := (Accounts{}).GetAccountByID(context.Background(), s, ""); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("GetAccountByID(\"\") error = %v", err)
	}
}
